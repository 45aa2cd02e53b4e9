package config

import (
	"fmt"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/waterfall"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/validation"
)

// Resolve merges the common terms into a deal and returns the engine inputs.
func (c *Configuration) Resolve(deal Deal) (waterfall.Inputs, waterfall.GuildState, waterfall.CapitalSelections) {
	in := mergeInputs(deal.Inputs, c.Common.Inputs)

	guilds := c.Common.Guilds
	if deal.Guilds != nil {
		guilds = *deal.Guilds
	}

	selections := c.Common.Selections
	if deal.Selections != nil {
		selections = *deal.Selections
	}

	return in, guilds, selections
}

func mergeInputs(deal, common waterfall.Inputs) waterfall.Inputs {
	pick := func(value, fallback float64) float64 {
		if value == 0 {
			return fallback
		}
		return value
	}
	return waterfall.Inputs{
		Budget:         pick(deal.Budget, common.Budget),
		Revenue:        pick(deal.Revenue, common.Revenue),
		Credits:        pick(deal.Credits, common.Credits),
		Debt:           pick(deal.Debt, common.Debt),
		SeniorDebtRate: pick(deal.SeniorDebtRate, common.SeniorDebtRate),
		MezzanineDebt:  pick(deal.MezzanineDebt, common.MezzanineDebt),
		MezzanineRate:  pick(deal.MezzanineRate, common.MezzanineRate),
		Equity:         pick(deal.Equity, common.Equity),
		Premium:        pick(deal.Premium, common.Premium),
		SalesFee:       pick(deal.SalesFee, common.SalesFee),
		SalesExp:       pick(deal.SalesExp, common.SalesExp),
		Deferments:     pick(deal.Deferments, common.Deferments),
	}
}

// checkFinite rejects infinite or NaN inputs, which YAML can express as .inf
// and .nan but the waterfall cannot carry through to a result.
func checkFinite(in waterfall.Inputs) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"budget", in.Budget},
		{"revenue", in.Revenue},
		{"credits", in.Credits},
		{"debt", in.Debt},
		{"seniorDebtRate", in.SeniorDebtRate},
		{"mezzanineDebt", in.MezzanineDebt},
		{"mezzanineRate", in.MezzanineRate},
		{"equity", in.Equity},
		{"premium", in.Premium},
		{"salesFee", in.SalesFee},
		{"salesExp", in.SalesExp},
		{"deferments", in.Deferments},
	}
	for _, field := range fields {
		if !mathutil.IsFinite(field.value) {
			return fmt.Errorf("%s must be finite, got %v", field.name, field.value)
		}
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	active := c.ActiveDeals()
	if len(c.Deals) > 0 && len(active) == 0 {
		warnings = append(warnings, "No active deals; nothing will be calculated")
	}

	seen := make(map[string]bool)
	for _, deal := range c.Deals {
		if seen[deal.Name] {
			warnings = append(warnings, fmt.Sprintf("Deal '%s' is defined more than once", deal.Name))
		}
		seen[deal.Name] = true
	}

	for _, deal := range active {
		in, guilds, selections := c.Resolve(deal)
		warnings = append(warnings, validation.ValidateDeal(deal.Name, in, guilds, selections)...)
		if deal.TargetMultiple != 0 && !selections.Equity {
			warnings = append(warnings, fmt.Sprintf("Deal '%s': targetMultiple is set but equity is not selected", deal.Name))
		}
	}

	return warnings
}
