// Package waterfall implements the film-finance recoupment waterfall: the
// ordered deductions taken from a distributor's acquisition price, the
// resulting profit pool, and the algebraic inversion that yields the
// breakeven price.
//
// Every function in this package is pure. Percentages are whole numbers
// (15 means 15%) on every input field.
package waterfall

import (
	"math"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/constants"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
)

// Inputs holds the deal terms entered for one film.
type Inputs struct {
	Budget         float64 `json:"budget" yaml:"budget" mapstructure:"budget"`
	Revenue        float64 `json:"revenue" yaml:"revenue" mapstructure:"revenue"`
	Credits        float64 `json:"credits" yaml:"credits" mapstructure:"credits"`
	Debt           float64 `json:"debt" yaml:"debt" mapstructure:"debt"`
	SeniorDebtRate float64 `json:"seniorDebtRate" yaml:"seniorDebtRate" mapstructure:"seniorDebtRate"`
	MezzanineDebt  float64 `json:"mezzanineDebt" yaml:"mezzanineDebt" mapstructure:"mezzanineDebt"`
	MezzanineRate  float64 `json:"mezzanineRate" yaml:"mezzanineRate" mapstructure:"mezzanineRate"`
	Equity         float64 `json:"equity" yaml:"equity" mapstructure:"equity"`
	Premium        float64 `json:"premium" yaml:"premium" mapstructure:"premium"`
	SalesFee       float64 `json:"salesFee" yaml:"salesFee" mapstructure:"salesFee"`
	SalesExp       float64 `json:"salesExp" yaml:"salesExp" mapstructure:"salesExp"`
	Deferments     float64 `json:"deferments" yaml:"deferments" mapstructure:"deferments"`
}

// GuildState flags the guild agreements the production is signatory to.
type GuildState struct {
	SAG bool `json:"sag" yaml:"sag" mapstructure:"sag"`
	WGA bool `json:"wga" yaml:"wga" mapstructure:"wga"`
	DGA bool `json:"dga" yaml:"dga" mapstructure:"dga"`
}

// CapitalSelections gates which capital sources take part in the waterfall.
// A false flag zeroes the matching source even when its input field still
// holds a value.
type CapitalSelections struct {
	TaxCredits bool `json:"taxCredits" yaml:"taxCredits" mapstructure:"taxCredits"`
	SeniorDebt bool `json:"seniorDebt" yaml:"seniorDebt" mapstructure:"seniorDebt"`
	GapLoan    bool `json:"gapLoan" yaml:"gapLoan" mapstructure:"gapLoan"`
	Equity     bool `json:"equity" yaml:"equity" mapstructure:"equity"`
	Deferments bool `json:"deferments" yaml:"deferments" mapstructure:"deferments"`
}

// Result is one full pass of revenue through the waterfall.
type Result struct {
	CAM             float64
	SalesFee        float64
	Guilds          float64
	Marketing       float64
	CreditOffset    float64
	SeniorDebtRepay float64
	GapDebtRepay    float64
	EquityRepay     float64
	Deferments      float64

	// TotalDeductions excludes informational ledger entries.
	TotalDeductions float64
	// TotalHurdle is the breakeven acquisition price; +Inf when unreachable.
	TotalHurdle float64
	// ProfitPool is revenue net of every deduction. Negative means shortfall.
	ProfitPool     float64
	InvestorProfit float64
	ProducerProfit float64

	// EquityInvested is the gated equity principal the multiple is measured against.
	EquityInvested float64
	// Multiple is zero when no equity was invested; see HasMultiple.
	Multiple float64

	Ledger []LedgerEntry
}

// HasMultiple reports whether Multiple is meaningful for this result.
func (r Result) HasMultiple() bool {
	return r.EquityInvested > 0
}

// BreakevenReachable reports whether some finite price clears every deduction.
func (r Result) BreakevenReachable() bool {
	return mathutil.IsFinite(r.TotalHurdle)
}

// Shortfall returns the amount by which revenue misses the hurdle, or zero.
func (r Result) Shortfall() float64 {
	if r.ProfitPool >= 0 {
		return 0
	}
	return -r.ProfitPool
}

// GuildRate returns the combined residual reserve for the active guilds as a
// fraction of gross.
func GuildRate(guilds GuildState) float64 {
	rate := 0.0
	if guilds.SAG {
		rate += constants.SAGPct
	}
	if guilds.WGA {
		rate += constants.WGAPct
	}
	if guilds.DGA {
		rate += constants.DGAPct
	}
	return rate
}

// VariableRate returns the share of gross consumed by revenue-proportional
// deductions: CAM, sales agent commission and guild residuals.
func VariableRate(in Inputs, guilds GuildState) float64 {
	return constants.CAMPct + in.SalesFee/constants.PercentageMultiplier + GuildRate(guilds)
}

// FixedCosts returns the revenue-independent deductions after gating:
// marketing, senior and gap debt repayment, equity recoupment and deferments.
func FixedCosts(in Inputs, sel CapitalSelections) float64 {
	return in.SalesExp +
		repayment(mathutil.Gate(sel.SeniorDebt, in.Debt), in.SeniorDebtRate) +
		repayment(mathutil.Gate(sel.GapLoan, in.MezzanineDebt), in.MezzanineRate) +
		repayment(mathutil.Gate(sel.Equity, in.Equity), in.Premium) +
		mathutil.Gate(sel.Deferments, in.Deferments)
}

// Calculate runs revenue through the waterfall in contractual priority order:
// CAM, sales fee, guilds, marketing, senior debt, gap debt, equity,
// deferments, then profit. No tier is skipped for insufficient revenue.
func Calculate(in Inputs, guilds GuildState, sel CapitalSelections) Result {
	var r Result

	r.CAM = in.Revenue * constants.CAMPct
	r.SalesFee = mathutil.ApplyPercentage(in.Revenue, in.SalesFee)
	r.Guilds = in.Revenue * GuildRate(guilds)
	r.Marketing = in.SalesExp
	r.CreditOffset = mathutil.Gate(sel.TaxCredits, in.Credits)
	r.SeniorDebtRepay = repayment(mathutil.Gate(sel.SeniorDebt, in.Debt), in.SeniorDebtRate)
	r.GapDebtRepay = repayment(mathutil.Gate(sel.GapLoan, in.MezzanineDebt), in.MezzanineRate)
	r.EquityInvested = mathutil.Gate(sel.Equity, in.Equity)
	r.EquityRepay = repayment(r.EquityInvested, in.Premium)
	r.Deferments = mathutil.Gate(sel.Deferments, in.Deferments)

	r.TotalDeductions = r.CAM + r.SalesFee + r.Guilds + r.Marketing +
		r.SeniorDebtRepay + r.GapDebtRepay + r.EquityRepay + r.Deferments
	r.ProfitPool = in.Revenue - r.TotalDeductions

	if r.ProfitPool > 0 {
		r.InvestorProfit = r.ProfitPool * constants.InvestorProfitShare
		r.ProducerProfit = r.ProfitPool - r.InvestorProfit
	}
	if r.EquityInvested > 0 {
		r.Multiple = (r.EquityRepay + r.InvestorProfit) / r.EquityInvested
	}

	r.TotalHurdle = CalculateBreakeven(in, guilds, sel)
	r.Ledger = buildLedger(in, guilds, sel, r)
	return r
}

// CalculateBreakeven returns the acquisition price at which the profit pool
// is exactly zero, with tax credits offsetting the fixed costs:
//
//	breakeven = (fixedCosts - credits) / (1 - variableRate)
//
// It returns +Inf when the variable rate is 100% or more. A result at or
// below zero means any sale price breaks even and is not clamped.
func CalculateBreakeven(in Inputs, guilds GuildState, sel CapitalSelections) float64 {
	variable := VariableRate(in, guilds)
	if variable >= 1 || math.IsNaN(variable) {
		return math.Inf(1)
	}
	fixed := FixedCosts(in, sel) - mathutil.Gate(sel.TaxCredits, in.Credits)
	return fixed / (1 - variable)
}

// repayment is principal plus a single application of a whole-number rate.
func repayment(principal, rate float64) float64 {
	return principal + mathutil.ApplyPercentage(principal, rate)
}
