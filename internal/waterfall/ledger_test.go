package waterfall

import (
	"testing"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
)

func ledgerNames(ledger []LedgerEntry) []string {
	names := make([]string, 0, len(ledger))
	for _, entry := range ledger {
		names = append(names, entry.Name)
	}
	return names
}

// isOrderedSubsequence reports whether names appear in TierOrder order.
func isOrderedSubsequence(names []string) bool {
	position := make(map[string]int, len(TierOrder))
	for i, name := range TierOrder {
		position[name] = i
	}
	last := -1
	for _, name := range names {
		p, ok := position[name]
		if !ok || p <= last {
			return false
		}
		last = p
	}
	return true
}

func TestLedgerEntriesPerSelection(t *testing.T) {
	in := Inputs{
		Revenue: 5000000, Credits: 200000, Debt: 1000000, SeniorDebtRate: 10,
		MezzanineDebt: 250000, MezzanineRate: 15, Equity: 1500000, Premium: 20,
		SalesFee: 12, SalesExp: 90000, Deferments: 60000,
	}

	tests := []struct {
		name     string
		guilds   GuildState
		sel      CapitalSelections
		expected []string
	}{
		{
			name:     "Nothing selected",
			guilds:   GuildState{},
			sel:      CapitalSelections{},
			expected: []string{TierCAM, TierSalesFee, TierMarketing},
		},
		{
			name:     "Everything selected",
			guilds:   GuildState{SAG: true, WGA: true, DGA: true},
			sel:      allSelected(),
			expected: TierOrder,
		},
		{
			name:     "Gap and deferments only",
			guilds:   GuildState{DGA: true},
			sel:      CapitalSelections{GapLoan: true, Deferments: true},
			expected: []string{TierCAM, TierSalesFee, TierGuilds, TierMarketing, TierGapDebt, TierDeferments},
		},
		{
			name:     "Equity with credits",
			guilds:   GuildState{},
			sel:      CapitalSelections{TaxCredits: true, Equity: true},
			expected: []string{TierCAM, TierSalesFee, TierMarketing, TierTaxCredits, TierEquity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := ledgerNames(Calculate(in, tt.guilds, tt.sel).Ledger)
			if len(names) != len(tt.expected) {
				t.Fatalf("ledger = %v, expected %v", names, tt.expected)
			}
			for i := range names {
				if names[i] != tt.expected[i] {
					t.Errorf("ledger[%d] = %s, expected %s", i, names[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLedgerOrderInvariant(t *testing.T) {
	in := Inputs{Revenue: 1000000, Debt: 100000, Equity: 100000, SalesFee: 10, SalesExp: 1000, Deferments: 5000}
	guildCombos := []GuildState{{}, {SAG: true}, {WGA: true, DGA: true}, {SAG: true, WGA: true, DGA: true}}

	// Every combination of the five selection flags.
	for mask := 0; mask < 32; mask++ {
		sel := CapitalSelections{
			TaxCredits: mask&1 != 0,
			SeniorDebt: mask&2 != 0,
			GapLoan:    mask&4 != 0,
			Equity:     mask&8 != 0,
			Deferments: mask&16 != 0,
		}
		for _, guilds := range guildCombos {
			names := ledgerNames(Calculate(in, guilds, sel).Ledger)
			if !isOrderedSubsequence(names) {
				t.Fatalf("ledger out of order for selections %+v guilds %+v: %v", sel, guilds, names)
			}
		}
	}
}

func TestLedgerSelectedZeroAmountIncluded(t *testing.T) {
	in := Inputs{Revenue: 1000000, SalesFee: 10}
	r := Calculate(in, GuildState{}, CapitalSelections{SeniorDebt: true})

	found := false
	for _, entry := range r.Ledger {
		if entry.Name == TierSeniorDebt {
			found = true
			if entry.Amount != 0 {
				t.Errorf("expected zero senior debt amount, got %v", entry.Amount)
			}
		}
	}
	if !found {
		t.Error("expected selected senior debt tier in ledger even at zero")
	}
}

func TestLedgerTotalsMatchDeductions(t *testing.T) {
	in := Inputs{
		Revenue: 4200000, Credits: 350000, Debt: 900000, SeniorDebtRate: 9,
		MezzanineDebt: 300000, MezzanineRate: 14, Equity: 1100000, Premium: 20,
		SalesFee: 17.5, SalesExp: 80000, Deferments: 120000,
	}
	r := Calculate(in, GuildState{SAG: true, WGA: true}, allSelected())

	sum := 0.0
	for _, entry := range r.Ledger {
		if entry.Informational {
			if entry.Name != TierTaxCredits {
				t.Errorf("unexpected informational entry %s", entry.Name)
			}
			if entry.Amount != -350000 {
				t.Errorf("tax credit note = %v, expected -350000", entry.Amount)
			}
			continue
		}
		sum += entry.Amount
	}
	if !mathutil.WithinTolerance(sum, r.TotalDeductions, 1e-6) {
		t.Errorf("ledger sum = %v, TotalDeductions = %v", sum, r.TotalDeductions)
	}
	if !mathutil.WithinTolerance(in.Revenue-sum, r.ProfitPool, 1e-6) {
		t.Errorf("revenue - ledger = %v, ProfitPool = %v", in.Revenue-sum, r.ProfitPool)
	}
}

func TestLedgerDetails(t *testing.T) {
	in := Inputs{Revenue: 1000000, Debt: 100000, SeniorDebtRate: 10, MezzanineRate: 12.5, Equity: 1, Premium: 20, SalesFee: 15}
	r := Calculate(in, GuildState{SAG: true, WGA: true}, CapitalSelections{SeniorDebt: true, GapLoan: true, Equity: true})

	expected := map[string]string{
		TierCAM:        "1% of gross",
		TierSalesFee:   "15% of gross",
		TierGuilds:     "SAG 4.5% + WGA 1.2%",
		TierMarketing:  "Flat expense cap",
		TierSeniorDebt: "Principal + 10% interest",
		TierGapDebt:    "Principal + 12.5% interest",
		TierEquity:     "Principal + 20% premium",
	}
	for _, entry := range r.Ledger {
		want, ok := expected[entry.Name]
		if !ok {
			t.Errorf("unexpected ledger entry %s", entry.Name)
			continue
		}
		if entry.Detail != want {
			t.Errorf("%s detail = %q, expected %q", entry.Name, entry.Detail, want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0%"},
		{1, "1%"},
		{4.5, "4.5%"},
		{12.346, "12.35%"},
		{100, "100%"},
	}
	for _, tt := range tests {
		if got := formatRate(tt.input); got != tt.expected {
			t.Errorf("formatRate(%v) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
