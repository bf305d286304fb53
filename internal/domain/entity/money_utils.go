package entity

import (
	"fmt"
	"regexp"
	"strings"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	"github.com/shopspring/decimal"
)

// MaxDecimalPlaces defines the maximum number of decimal places allowed for money amounts
const MaxDecimalPlaces = 2

// MaxAmount is the largest value a numeric(12,2) column can hold
var MaxAmount = decimal.RequireFromString("9999999999.99")

// amountPattern accepts plain decimal notation only: no sign, exponent, grouping or currency symbol
var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?$`)

// ParseAmount parses a user-supplied amount string into a positive decimal.
// The string must use plain notation with at most two decimal places.
func ParseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if len(amount) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}

	if !amountPattern.MatchString(amount) {
		return decimal.Zero, fmt.Errorf("%w: invalid number format", errs.ErrInvalidAmount)
	}

	if parts := strings.SplitN(amount, ".", 2); len(parts) == 2 && len(parts[1]) > MaxDecimalPlaces {
		return decimal.Zero, fmt.Errorf("%w: maximum %d decimal places allowed", errs.ErrInvalidAmount, MaxDecimalPlaces)
	}

	value, err := decimal.NewFromString(strings.TrimSuffix(amount, "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, err.Error())
	}

	if err := ValidateAmount(value); err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

// ValidateAmount checks that an already-decoded amount is positive, has at most
// two decimal places and fits the storage column.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(MaxDecimalPlaces)) {
		return fmt.Errorf("%w: maximum %d decimal places allowed", errs.ErrInvalidAmount, MaxDecimalPlaces)
	}
	if amount.GreaterThan(MaxAmount) {
		return errs.ErrAmountOverflow
	}
	return nil
}

// FormatAmount renders a money value with exactly two decimal places.
// For example 10.1 becomes "10.10" and 300 becomes "300.00".
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MaxDecimalPlaces)
}
