package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	errLocked := errors.New("locked")

	notFound := NotFound("Order not found")
	require.ErrorIs(t, notFound, ErrNotFound)
	require.Equal(t, "Order not found", notFound.Error())

	violation := WrapViolation(errLocked, "Cannot change status")
	wrapped := fmt.Errorf("update status: %w", violation)
	require.ErrorIs(t, wrapped, ErrRuleViolation)
	require.ErrorIs(t, wrapped, errLocked)
	require.NotErrorIs(t, wrapped, ErrNotFound)
}

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	require.NoError(t, v.OrNil())

	v.Add("email", "The email has already been taken.")
	v.Merge(FieldError("name", "The name field is required."))

	err := v.OrNil()
	require.ErrorIs(t, err, ErrValidation)

	var target *ValidationError
	require.True(t, errors.As(err, &target))
	require.Len(t, target.Fields, 2)
	require.Equal(t, "validation failed: email, name", err.Error())
}

func TestAmountRendersTwoDecimals(t *testing.T) {
	total := NewAmount(AmountFromFloat(10).Mul(decimal.NewFromInt(2)).Add(AmountFromFloat(5).Decimal))
	raw, err := json.Marshal(map[string]Amount{"total": total})
	require.NoError(t, err)
	require.JSONEq(t, `{"total":"25.00"}`, string(raw))
}
