// Package finance holds the pure ledger helpers: amount parsing, month
// ranges and the aggregates behind the finance page and dashboard.
package finance

import (
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/shopspring/decimal"
)

// maxAmount is the first value that no longer fits the numeric(14, 2) column.
var maxAmount = decimal.New(1, 12)

// ParseAmount reads a positive money amount written either with a decimal
// point ("1234.56") or in pt-BR style ("1234,56", "1.234,56"). When a comma
// is present it is the decimal separator and every dot is a thousands
// separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, common.NewValidationError("amount is required")
	}

	if strings.Contains(s, ",") {
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, common.NewValidationError("amount is not a number")
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, common.NewValidationError("amount is not a number")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, common.NewValidationError("amount is not a number")
	}
	if !d.IsPositive() {
		return decimal.Zero, common.NewValidationError("amount must be greater than zero")
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, common.NewValidationError("amount is too large")
	}
	if !d.Equal(d.Truncate(2)) {
		return decimal.Zero, common.NewValidationError("amount must have at most two decimal places")
	}

	return d, nil
}
