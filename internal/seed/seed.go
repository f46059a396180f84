// Package seed loads demo data into an empty database. Every insert is
// idempotent, so running it twice leaves the data unchanged.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom/stockroom/internal/platform/db"
)

// AdminEmail and AdminPassword identify the seeded administrator.
const (
	AdminEmail    = "admin@stockroom.local"
	AdminPassword = "admin123"
)

type product struct {
	sku       string
	name      string
	category  string
	supplier  string
	price     string
	costPrice string
	quantity  int
	minStock  int
}

var categories = []struct{ name, description string }{
	{"Electronics", "Devices, peripherals and components"},
	{"Office Supplies", "Paper, pens and desk accessories"},
	{"Furniture", "Desks, chairs and storage"},
	{"Networking", "Routers, switches and cabling"},
	{"Accessories", "Cables, adapters and cases"},
}

var suppliers = []struct{ name, email, phone, address, city, country string }{
	{"Acme Distribution", "orders@acme.example", "+31 10 555 0101", "Wilhelminakade 12", "Rotterdam", "Netherlands"},
	{"Northwind Traders", "sales@northwind.example", "+1 206 555 0142", "401 Pine Street", "Seattle", "United States"},
	{"Globex Components", "supply@globex.example", "+65 6555 0188", "8 Kallang Way", "Singapore", "Singapore"},
	{"Initech Office", "hello@initech.example", "+1 512 555 0117", "4120 Freidrich Lane", "Austin", "United States"},
	{"Umbrella Logistics", "trade@umbrella.example", "+33 4 55 50 01 90", "27 Rue de la Part-Dieu", "Lyon", "France"},
}

var products = []product{
	{"TEST-HEADPHONE-001", "Sony Noise Cancelling Headphones", "Electronics", "Acme Distribution", "299.99", "150.00", 50, 10},
	{"TEST-LOW-STOCK", "Low Stock Gaming Mouse", "Electronics", "Acme Distribution", "50.00", "25.00", 2, 5},
	{"TEST-OUT-STOCK", "Sold Out Graphic Card", "Electronics", "Acme Distribution", "1500.00", "800.00", 0, 5},
	{"OFF-PAPER-A4", "A4 Copy Paper (500 sheets)", "Office Supplies", "Initech Office", "6.50", "3.20", 240, 40},
	{"OFF-PEN-BLK", "Gel Pen Black (12 pack)", "Office Supplies", "Initech Office", "9.90", "4.10", 80, 20},
	{"FUR-CHAIR-ERG", "Ergonomic Office Chair", "Furniture", "Northwind Traders", "349.00", "190.00", 12, 5},
	{"FUR-DESK-160", "Standing Desk 160cm", "Furniture", "Northwind Traders", "599.00", "340.00", 4, 5},
	{"NET-SW-24", "24-Port Gigabit Switch", "Networking", "Globex Components", "189.00", "120.00", 18, 6},
	{"NET-CAT6-30", "Cat6 Patch Cable 30m", "Networking", "Globex Components", "24.00", "9.50", 65, 15},
	{"ACC-USBC-HUB", "USB-C 7-in-1 Hub", "Accessories", "Umbrella Logistics", "49.00", "21.00", 33, 10},
}

// Run inserts the demo data in one transaction.
func Run(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}

	return db.WithTx(ctx, pool, func(ctx context.Context) error {
		conn := db.Conn(ctx, pool)

		if _, err := conn.Exec(ctx, `
			INSERT INTO users (name, email, password_hash, role)
			VALUES ('Administrator', $1, $2, 'admin')
			ON CONFLICT (email) DO NOTHING`, AdminEmail, string(hash)); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		logger.Info("seeded users", slog.String("email", AdminEmail))

		for _, c := range categories {
			if _, err := conn.Exec(ctx, `
				INSERT INTO categories (name, description) VALUES ($1, $2)
				ON CONFLICT (name) DO NOTHING`, c.name, c.description); err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
		}
		logger.Info("seeded categories", slog.Int("count", len(categories)))

		for _, s := range suppliers {
			if _, err := conn.Exec(ctx, `
				INSERT INTO suppliers (name, email, phone, address, city, country, rating)
				VALUES ($1, $2, $3, $4, $5, $6, 4.5)
				ON CONFLICT (email) DO NOTHING`, s.name, s.email, s.phone, s.address, s.city, s.country); err != nil {
				return fmt.Errorf("seed suppliers: %w", err)
			}
		}
		logger.Info("seeded suppliers", slog.Int("count", len(suppliers)))

		for _, p := range products {
			if _, err := conn.Exec(ctx, `
				INSERT INTO products (sku, name, category_id, supplier_id, price, cost_price, quantity, min_stock, max_stock, status)
				SELECT $1, $2, c.id, s.id, $5::numeric, $6::numeric, $7, $8, 100, 'active'
				FROM categories c, suppliers s
				WHERE c.name = $3 AND s.name = $4
				ON CONFLICT (sku) DO NOTHING`,
				p.sku, p.name, p.category, p.supplier, p.price, p.costPrice, p.quantity, p.minStock); err != nil {
				return fmt.Errorf("seed products: %w", err)
			}
		}
		logger.Info("seeded products", slog.Int("count", len(products)))
		return nil
	})
}
