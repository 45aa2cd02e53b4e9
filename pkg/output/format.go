// Package output provides utilities for formatting and displaying deal projections.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/projection"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/format"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CsvHeader lists the columns written by CsvFormat.
var CsvHeader = []string{
	"deal",
	"revenue",
	"cam",
	"salesFee",
	"guilds",
	"marketing",
	"creditOffset",
	"seniorDebt",
	"gapDebt",
	"equity",
	"deferments",
	"totalDeductions",
	"profitPool",
	"investorProfit",
	"producerProfit",
	"multiple",
	"breakeven",
	"revenueForTargetMultiple",
}

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, results []projection.Projection) error {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		r := result.Result
		if _, err := p.Fprintf(w, "--- Results for deal %s ---\n", result.Name); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%-22s | %-42s | %15s\n", "Tier", "Detail", "Amount")
		_, _ = fmt.Fprintf(w, "%-22s | %-42s | %15s\n", "____", "______", "______")
		_, _ = fmt.Fprintf(w, "%-22s | %-42s | %15s\n", "Gross Revenue", "Acquisition price", format.Currency(result.Inputs.Revenue))
		for _, entry := range r.Ledger {
			amount := format.Currency(-entry.Amount)
			if entry.Informational {
				amount = "(" + format.Currency(-entry.Amount) + ")"
			}
			_, _ = fmt.Fprintf(w, "%-22s | %-42s | %15s\n", entry.Name, entry.Detail, amount)
		}
		_, _ = fmt.Fprintf(w, "%-22s | %-42s | %15s\n", "Profit Pool", poolDetail(r.ProfitPool), format.Currency(r.ProfitPool))
		_, _ = fmt.Fprintf(w, "\n")

		_, _ = fmt.Fprintf(w, "Investor profit:   %s\n", format.Currency(r.InvestorProfit))
		_, _ = fmt.Fprintf(w, "Producer profit:   %s\n", format.Currency(r.ProducerProfit))
		if r.HasMultiple() {
			_, _ = fmt.Fprintf(w, "Equity multiple:   %s\n", format.Multiple(r.Multiple))
		} else {
			_, _ = fmt.Fprintf(w, "Equity multiple:   %s\n", format.Multiple(math.NaN()))
		}
		_, _ = fmt.Fprintf(w, "Breakeven price:   %s\n", format.Currency(result.Breakeven))
		if result.HasTarget() {
			_, _ = p.Fprintf(w, "Price for %.2fx:    %s\n", result.TargetMultiple, format.Currency(result.RevenueForTarget))
		}

		if len(result.Sweep) > 0 {
			_, _ = fmt.Fprintf(w, "\n%-12s | %-14s | %s\n", "Revenue", "Profit Pool", "Multiple")
			_, _ = fmt.Fprintf(w, "%-12s | %-14s | %s\n", "_______", "___________", "________")
			for _, point := range result.Sweep {
				multiple := format.Multiple(math.NaN())
				if point.HasMultiple {
					multiple = format.Multiple(point.Multiple)
				}
				_, _ = fmt.Fprintf(w, "%-12s | %-14s | %s\n",
					format.CompactCurrency(point.Revenue), format.CompactCurrency(point.ProfitPool), multiple)
			}
		}

		for _, goal := range result.Goals {
			status := "converged"
			if !goal.Converged {
				status = "not converged"
			}
			_, _ = p.Fprintf(w, "\nGoal %s >= %.2f: revenue %s (%s, %d iterations)\n",
				goal.Metric, goal.Target, goal.RevenueDisplay, status, goal.Iterations)
			for _, note := range goal.Notes {
				_, _ = fmt.Fprintf(w, "  %s\n", note)
			}
		}

		if len(result.Notes) > 0 {
			_, _ = fmt.Fprintf(w, "\nNotes: %s\n", strings.Join(result.Notes, "; "))
		}
		if i < len(results)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
	return nil
}

func poolDetail(pool float64) string {
	if pool < 0 {
		return "Shortfall"
	}
	return "Split 50/50 investor and producer"
}

// CsvFormat writes one comma-separated row per deal.
func CsvFormat(w io.Writer, results []projection.Projection) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CsvHeader); err != nil {
		return err
	}
	for _, result := range results {
		r := result.Result
		multiple := ""
		if r.HasMultiple() {
			multiple = csvNumber(r.Multiple)
		}
		target := ""
		if result.HasTarget() {
			target = csvNumber(result.RevenueForTarget)
		}
		record := []string{
			result.Name,
			csvNumber(result.Inputs.Revenue),
			csvNumber(r.CAM),
			csvNumber(r.SalesFee),
			csvNumber(r.Guilds),
			csvNumber(r.Marketing),
			csvNumber(r.CreditOffset),
			csvNumber(r.SeniorDebtRepay),
			csvNumber(r.GapDebtRepay),
			csvNumber(r.EquityRepay),
			csvNumber(r.Deferments),
			csvNumber(r.TotalDeductions),
			csvNumber(r.ProfitPool),
			csvNumber(r.InvestorProfit),
			csvNumber(r.ProducerProfit),
			multiple,
			csvNumber(result.Breakeven),
			target,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString returns the CsvFormat output as a string.
func CsvString(results []projection.Projection) (string, error) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, results); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// csvNumber renders finite values with two decimals and leaves the rest for
// the reader to interpret: "inf" for an unreachable breakeven, empty for NaN.
func csvNumber(value float64) string {
	if mathutil.IsZero(value) {
		return "0.00"
	}
	if mathutil.IsFinite(value) {
		return fmt.Sprintf("%.2f", mathutil.Round(value))
	}
	if value > 0 {
		return "inf"
	}
	return ""
}
