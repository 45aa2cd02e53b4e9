package waterfall

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/constants"
)

// Ledger tier names, in priority order.
const (
	TierCAM        = "CAM Fee"
	TierSalesFee   = "Sales Agent Fee"
	TierGuilds     = "Guild Residuals"
	TierMarketing  = "Marketing & Delivery"
	TierTaxCredits = "Tax Credits"
	TierSeniorDebt = "Senior Debt"
	TierGapDebt    = "Gap/Mezzanine Debt"
	TierEquity     = "Equity"
	TierDeferments = "Deferments"
)

// TierOrder is the fixed contractual order of the ledger. It is never
// reordered by input.
var TierOrder = []string{
	TierCAM,
	TierSalesFee,
	TierGuilds,
	TierMarketing,
	TierTaxCredits,
	TierSeniorDebt,
	TierGapDebt,
	TierEquity,
	TierDeferments,
}

// LedgerEntry is one line of the waterfall for display and audit.
type LedgerEntry struct {
	Name   string  `json:"name"`
	Detail string  `json:"detail"`
	Amount float64 `json:"amount"`
	// Informational entries are shown for context and excluded from totals.
	Informational bool `json:"informational,omitempty"`
}

func buildLedger(in Inputs, guilds GuildState, sel CapitalSelections, r Result) []LedgerEntry {
	ledger := make([]LedgerEntry, 0, len(TierOrder))

	ledger = append(ledger,
		LedgerEntry{Name: TierCAM, Detail: formatRate(constants.CAMPct*constants.PercentageMultiplier) + " of gross", Amount: r.CAM},
		LedgerEntry{Name: TierSalesFee, Detail: formatRate(in.SalesFee) + " of gross", Amount: r.SalesFee},
	)

	if detail := guildDetail(guilds); detail != "" {
		ledger = append(ledger, LedgerEntry{Name: TierGuilds, Detail: detail, Amount: r.Guilds})
	}

	ledger = append(ledger, LedgerEntry{Name: TierMarketing, Detail: "Flat expense cap", Amount: r.Marketing})

	if sel.TaxCredits {
		ledger = append(ledger, LedgerEntry{
			Name:          TierTaxCredits,
			Detail:        "Offsets capital need, not recouped from revenue",
			Amount:        -r.CreditOffset,
			Informational: true,
		})
	}
	if sel.SeniorDebt {
		ledger = append(ledger, LedgerEntry{
			Name:   TierSeniorDebt,
			Detail: "Principal + " + formatRate(in.SeniorDebtRate) + " interest",
			Amount: r.SeniorDebtRepay,
		})
	}
	if sel.GapLoan {
		ledger = append(ledger, LedgerEntry{
			Name:   TierGapDebt,
			Detail: "Principal + " + formatRate(in.MezzanineRate) + " interest",
			Amount: r.GapDebtRepay,
		})
	}
	if sel.Equity {
		ledger = append(ledger, LedgerEntry{
			Name:   TierEquity,
			Detail: "Principal + " + formatRate(in.Premium) + " premium",
			Amount: r.EquityRepay,
		})
	}
	if sel.Deferments {
		ledger = append(ledger, LedgerEntry{Name: TierDeferments, Detail: "Deferred compensation", Amount: r.Deferments})
	}

	return ledger
}

func guildDetail(guilds GuildState) string {
	var parts []string
	if guilds.SAG {
		parts = append(parts, "SAG "+formatRate(constants.SAGPct*constants.PercentageMultiplier))
	}
	if guilds.WGA {
		parts = append(parts, "WGA "+formatRate(constants.WGAPct*constants.PercentageMultiplier))
	}
	if guilds.DGA {
		parts = append(parts, "DGA "+formatRate(constants.DGAPct*constants.PercentageMultiplier))
	}
	return strings.Join(parts, " + ")
}

// formatRate renders a whole-number percentage with at most two decimals,
// e.g. 4.5 -> "4.5%", 10 -> "10%".
func formatRate(pct float64) string {
	rounded, err := strconv.ParseFloat(fmt.Sprintf("%.2f", pct), 64)
	if err != nil {
		return fmt.Sprintf("%v%%", pct)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64) + "%"
}
