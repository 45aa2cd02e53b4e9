package projection

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/config"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/sensitivity"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/waterfall"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
	"go.uber.org/zap"
)

func loadTestDeals(t *testing.T) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration(filepath.Join("..", "..", "test", "test_deals.yaml"))
	if err != nil {
		t.Fatalf("failed to load test deals: %v", err)
	}
	return conf
}

func findProjection(results []Projection, name string) *Projection {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

func TestGetProjections(t *testing.T) {
	conf := loadTestDeals(t)
	logger, _ := zap.NewDevelopment()

	results, err := GetProjections(logger, *conf)
	if err != nil {
		t.Fatalf("GetProjections() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 projections, got %d", len(results))
	}
	if findProjection(results, "shelved") != nil {
		t.Error("inactive deal should be skipped")
	}

	tests := []struct {
		name       string
		profitPool float64
		breakeven  float64
		multiple   float64
	}{
		{
			name:       "reference",
			profitPool: 1005000,
			breakeven:  1935000 / 0.84,
			multiple:   1.7025,
		},
		{
			// variable rate 27.9%, fixed costs 5,010,000, credits 1,000,000
			name:       "full stack with guilds",
			profitPool: 397500,
			breakeven:  4010000 / 0.721,
			multiple:   1.299375,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := findProjection(results, tt.name)
			if p == nil {
				t.Fatalf("projection %s not found", tt.name)
			}
			if !mathutil.WithinTolerance(p.Result.ProfitPool, tt.profitPool, 1e-6) {
				t.Errorf("ProfitPool = %v, expected %v", p.Result.ProfitPool, tt.profitPool)
			}
			if !mathutil.WithinTolerance(p.Breakeven, tt.breakeven, 1e-6) {
				t.Errorf("Breakeven = %v, expected %v", p.Breakeven, tt.breakeven)
			}
			if !mathutil.WithinTolerance(p.Result.Multiple, tt.multiple, 1e-9) {
				t.Errorf("Multiple = %v, expected %v", p.Result.Multiple, tt.multiple)
			}
		})
	}
}

func TestGetProjectionsReferenceExtras(t *testing.T) {
	conf := loadTestDeals(t)
	results, err := GetProjections(nil, *conf)
	if err != nil {
		t.Fatalf("GetProjections() error = %v", err)
	}
	p := findProjection(results, "reference")
	if p == nil {
		t.Fatal("reference projection not found")
	}

	if p.Inputs.SalesFee != 15 || p.Inputs.SalesExp != 75000 {
		t.Errorf("common inputs not inherited: %+v", p.Inputs)
	}

	if len(p.Sweep) != 6 {
		t.Fatalf("expected 6 sweep points, got %d", len(p.Sweep))
	}
	if p.Sweep[5].Revenue != 5000000 {
		t.Errorf("last sweep point revenue = %v", p.Sweep[5].Revenue)
	}

	// 2x on 1,000,000 needs a pool of 1,600,000 on top of 1,935,000 fixed.
	if !p.HasTarget() || !mathutil.WithinTolerance(p.RevenueForTarget, 3535000/0.84, 1e-6) {
		t.Errorf("RevenueForTarget = %v, expected %v", p.RevenueForTarget, 3535000/0.84)
	}

	if len(p.Goals) != 1 {
		t.Fatalf("expected 1 goal summary, got %d", len(p.Goals))
	}
	goal := p.Goals[0]
	if goal.Metric != sensitivity.MetricProducerProfit || !goal.Converged {
		t.Errorf("unexpected goal summary %+v", goal)
	}
	if !mathutil.WithinTolerance(goal.Revenue, 2435000/0.84, 0.05) {
		t.Errorf("goal revenue = %v, expected %v", goal.Revenue, 2435000/0.84)
	}
	if len(p.Notes) != 0 {
		t.Errorf("unexpected notes %v", p.Notes)
	}
}

func TestProjectNotes(t *testing.T) {
	conf := &config.Configuration{}
	seeker := sensitivity.NewSeeker(nil)
	sel := waterfall.CapitalSelections{SeniorDebt: true}

	tests := []struct {
		name  string
		deal  config.Deal
		notes int
		check func(t *testing.T, p Projection)
	}{
		{
			name: "Shortfall",
			deal: config.Deal{
				Name:       "short",
				Inputs:     waterfall.Inputs{Revenue: 100000, Debt: 500000, SeniorDebtRate: 10},
				Selections: &sel,
			},
			notes: 1,
		},
		{
			name: "Unreachable",
			deal: config.Deal{
				Name:   "greedy agent",
				Inputs: waterfall.Inputs{Revenue: 100000, SalesFee: 99},
			},
			notes: 1,
			check: func(t *testing.T, p Projection) {
				if !math.IsInf(p.Breakeven, 1) {
					t.Errorf("Breakeven = %v, expected +Inf", p.Breakeven)
				}
			},
		},
		{
			name: "Target and goal without equity",
			deal: config.Deal{
				Name:           "no equity",
				Inputs:         waterfall.Inputs{Revenue: 1000000},
				TargetMultiple: 2,
				Goals:          []sensitivity.Goal{{Metric: "multiple", Target: 2}},
			},
			notes: 2,
			check: func(t *testing.T, p Projection) {
				if !math.IsNaN(p.RevenueForTarget) {
					t.Errorf("RevenueForTarget = %v, expected NaN", p.RevenueForTarget)
				}
				if len(p.Goals) != 0 {
					t.Errorf("expected no goal summaries, got %d", len(p.Goals))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Project(seeker, conf, tt.deal)
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			if len(p.Notes) != tt.notes {
				t.Errorf("expected %d notes, got %v", tt.notes, p.Notes)
			}
			if tt.check != nil {
				tt.check(t, p)
			}
		})
	}
}

func TestProjectInvalidSweep(t *testing.T) {
	conf := &config.Configuration{}
	deal := config.Deal{
		Name:  "bad sweep",
		Sweep: sensitivity.SweepRange{From: 0, To: 10, Step: 0},
	}
	if _, err := Project(sensitivity.NewSeeker(nil), conf, deal); err == nil {
		t.Error("expected error for an invalid sweep")
	}
}
