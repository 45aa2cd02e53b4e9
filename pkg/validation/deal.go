package validation

import (
	"fmt"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/waterfall"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/constants"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/format"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
)

// ValidateDeal inspects deal inputs and returns human-readable warnings. It
// never rejects a deal: the engine computes a consistent result for any
// numbers, so these only flag values that are probably mistakes.
func ValidateDeal(name string, in waterfall.Inputs, guilds waterfall.GuildState, sel waterfall.CapitalSelections) []string {
	var warnings []string
	prefix := fmt.Sprintf("Deal '%s'", name)

	amounts := []struct {
		field string
		value float64
	}{
		{"budget", in.Budget},
		{"revenue", in.Revenue},
		{"credits", in.Credits},
		{"debt", in.Debt},
		{"mezzanineDebt", in.MezzanineDebt},
		{"equity", in.Equity},
		{"salesExp", in.SalesExp},
		{"deferments", in.Deferments},
	}
	for _, amount := range amounts {
		if amount.value < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: %s is negative (%s)", prefix, amount.field, format.Currency(amount.value)))
		}
	}

	rates := []struct {
		field string
		value float64
	}{
		{"seniorDebtRate", in.SeniorDebtRate},
		{"mezzanineRate", in.MezzanineRate},
		{"premium", in.Premium},
		{"salesFee", in.SalesFee},
	}
	for _, rate := range rates {
		if rate.value < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: %s is negative (%.2f%%)", prefix, rate.field, rate.value))
		} else if rate.value > constants.PercentageMultiplier {
			warnings = append(warnings, fmt.Sprintf("%s: %s of %.2f%% exceeds 100%%", prefix, rate.field, rate.value))
		}
	}

	if waterfall.VariableRate(in, guilds) >= 1 {
		warnings = append(warnings, fmt.Sprintf("%s: CAM, sales fee and guild reserves take 100%% or more of revenue; breakeven is unreachable", prefix))
	}

	stale := []struct {
		source   string
		selected bool
		value    float64
	}{
		{"tax credits", sel.TaxCredits, in.Credits},
		{"senior debt", sel.SeniorDebt, in.Debt},
		{"gap loan", sel.GapLoan, in.MezzanineDebt},
		{"equity", sel.Equity, in.Equity},
		{"deferments", sel.Deferments, in.Deferments},
	}
	for _, s := range stale {
		if !s.selected && s.value != 0 {
			warnings = append(warnings, fmt.Sprintf("%s: %s of %s is set but not selected and will be ignored",
				prefix, s.source, format.Currency(s.value)))
		}
	}

	if sel.Equity && !mathutil.IsPositive(in.Equity) {
		warnings = append(warnings, fmt.Sprintf("%s: equity is selected with no principal; the investor multiple is not meaningful", prefix))
	}

	if in.Budget > 0 {
		stack := CapitalStack(in, sel)
		if mathutil.IsNegative(stack - in.Budget) {
			warnings = append(warnings, fmt.Sprintf("%s: capital stack %s does not cover budget %s",
				prefix, format.Currency(stack), format.Currency(in.Budget)))
		}
	}

	return warnings
}

// CapitalStack sums the selected financing sources raised against the budget.
func CapitalStack(in waterfall.Inputs, sel waterfall.CapitalSelections) float64 {
	stack := 0.0
	if sel.TaxCredits {
		stack += in.Credits
	}
	if sel.SeniorDebt {
		stack += in.Debt
	}
	if sel.GapLoan {
		stack += in.MezzanineDebt
	}
	if sel.Equity {
		stack += in.Equity
	}
	if sel.Deferments {
		stack += in.Deferments
	}
	return stack
}
