package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stockroom/stockroom/internal/app"
	"github.com/stockroom/stockroom/internal/auth"
	"github.com/stockroom/stockroom/internal/inventory"
	jobmetrics "github.com/stockroom/stockroom/internal/jobs"
	"github.com/stockroom/stockroom/internal/masterdata/categories"
	"github.com/stockroom/stockroom/internal/masterdata/products"
	"github.com/stockroom/stockroom/internal/masterdata/suppliers"
	"github.com/stockroom/stockroom/internal/observability"
	"github.com/stockroom/stockroom/internal/orders"
	"github.com/stockroom/stockroom/internal/platform/httpx"
	"github.com/stockroom/stockroom/internal/shared"
	"github.com/stockroom/stockroom/jobs"
)

const tokenPrefix = "stockroom:token"

var (
	// Serve flags
	serveAddr   string
	serveWorker bool
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until SIGINT or SIGTERM.

Examples:
  stockroom serve                  # API only
  stockroom serve --worker         # API and background worker in one process
  stockroom serve --addr :9090     # Override APP_ADDR`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to APP_ADDR)")
	serveCmd.Flags().BoolVar(&serveWorker, "worker", false, "Also run the background worker")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return nil
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.AppAddr = serveAddr
	}

	deps, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer deps.Close()

	metrics := observability.NewMetrics()
	responder := httpx.NewResponder(logger, !cfg.IsProduction())
	validator := httpx.NewValidator()

	redisOpts := cfg.Redis().AsynqOpt()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	tokens := shared.NewTokenStore(deps.Redis, tokenPrefix, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(deps.Pool), tokens, logger, metrics)
	authHandler := auth.NewHandler(logger, authService, responder, validator, cfg.AuthRateLimitPerMinute)

	categoriesService := categories.NewService(categories.NewRepository(deps.Pool))
	suppliersService := suppliers.NewService(suppliers.NewRepository(deps.Pool))
	productsService := products.NewService(products.NewRepository(deps.Pool))

	inventoryService := inventory.NewService(inventory.NewRepository(deps.Pool), jobClient, logger, metrics)
	ordersService := orders.NewService(orders.NewRepository(deps.Pool), inventoryService, logger, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthService:       authService,
		AuthHandler:       authHandler,
		CategoriesHandler: categories.NewHandler(logger, categoriesService, responder, validator),
		SuppliersHandler:  suppliers.NewHandler(logger, suppliersService, responder, validator),
		ProductsHandler:   products.NewHandler(logger, productsService, responder, validator),
		OrdersHandler:     orders.NewHandler(logger, ordersService, responder, validator),
		StockHandler:      inventory.NewHandler(logger, inventoryService, responder, validator),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
		HealthCheck: func(r *http.Request) error {
			if err := deps.Pool.Ping(r.Context()); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			if err := deps.Redis.Ping(r.Context()).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if serveWorker {
		worker, err := jobs.NewStockWorker(jobs.StockWorkerConfig{
			RedisOpts:   redisOpts,
			Pool:        deps.Pool,
			Logger:      logger,
			Metrics:     jobmetrics.NewMetrics(metrics.Registerer()),
			ScanCron:    cfg.LowStockScanCron,
			Concurrency: cfg.WorkerConcurrency,
		})
		if err != nil {
			return fmt.Errorf("init worker: %w", err)
		}
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("worker: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}
