package db

import (
	"strconv"
	"strings"
)

// Where accumulates AND-ed filter conditions. Clauses use "?" for
// arguments; they are renumbered to positional placeholders as added.
type Where struct {
	clauses []string
	args    []any
}

// Add appends clause with its arguments. Each "?" in clause consumes one
// argument in order.
func (w *Where) Add(clause string, args ...any) {
	var b strings.Builder
	next := 0
	for _, r := range clause {
		if r == '?' && next < len(args) {
			w.args = append(w.args, args[next])
			next++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(len(w.args)))
			continue
		}
		b.WriteRune(r)
	}
	w.clauses = append(w.clauses, b.String())
}

// SQL renders the WHERE clause, or "" when nothing was added.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Args returns the bound arguments in placeholder order.
func (w *Where) Args() []any {
	return w.args
}

// Contains returns an ILIKE pattern matching term anywhere, with LIKE
// metacharacters escaped.
func Contains(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}
