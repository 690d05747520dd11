package adjustment

import (
	"fmt"

	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/shopspring/decimal"
)

var minusHundred = decimal.NewFromInt(-100)

// ValidateAdjustment lists every problem with an adjustment definition.
func ValidateAdjustment(adj domain.AppliedAdjustment) []string {
	var msgs []string
	if adj.AccountCode == "" {
		msgs = append(msgs, "account code is required")
	}
	if adj.Name == "" {
		msgs = append(msgs, "adjustment name is required")
	}

	switch adj.Type {
	case domain.AdjustmentPercentage:
		if adj.Value.LessThanOrEqual(minusHundred) {
			msgs = append(msgs, "percentage adjustment must be greater than -100")
		}
	case domain.AdjustmentFixed:
	default:
		msgs = append(msgs, fmt.Sprintf("unknown adjustment type %q", adj.Type))
	}

	if adj.StartMonth != 0 && !adj.StartMonth.Valid() {
		msgs = append(msgs, fmt.Sprintf("start month %d is not a calendar month", int(adj.StartMonth)))
	}
	if adj.EndMonth != 0 && !adj.EndMonth.Valid() {
		msgs = append(msgs, fmt.Sprintf("end month %d is not a calendar month", int(adj.EndMonth)))
	}
	if adj.Year < 0 {
		msgs = append(msgs, "year cannot be negative")
	}
	return msgs
}
