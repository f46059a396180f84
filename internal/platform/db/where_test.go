package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWhereNumbersPlaceholders(t *testing.T) {
	var w Where
	require.Equal(t, "", w.SQL())

	w.Add("status = ?", "active")
	w.Add("(name ILIKE ? OR email ILIKE ?)", "%a%", "%a%")
	w.Add("quantity = 0")

	require.Equal(t, " WHERE status = $1 AND (name ILIKE $2 OR email ILIKE $3) AND quantity = 0", w.SQL())
	require.Equal(t, []any{"active", "%a%", "%a%"}, w.Args())
}

func TestContainsEscapesWildcards(t *testing.T) {
	require.Equal(t, `%50\%\_off%`, Contains("50%_off"))
}
