// Package projection defines the data structures related to a deal projection
// and includes functions for computing the projections of a deal file.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/config"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/sensitivity"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/waterfall"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/format"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/optimization"
	"go.uber.org/zap"
)

// Projection holds everything computed for one deal.
type Projection struct {
	Name       string
	Inputs     waterfall.Inputs
	Guilds     waterfall.GuildState
	Selections waterfall.CapitalSelections
	Result     waterfall.Result
	Breakeven  float64

	Sweep []sensitivity.Point

	// TargetMultiple and RevenueForTarget are set when the deal asks for the
	// sale price that returns a given equity multiple.
	TargetMultiple   float64
	RevenueForTarget float64

	Goals []optimization.Summary
	Notes []string
}

// HasTarget reports whether a target multiple was solved for.
func (p Projection) HasTarget() bool {
	return p.TargetMultiple > 0
}

// GetProjections runs every active deal in the configuration through the
// waterfall.
func GetProjections(logger *zap.Logger, conf config.Configuration) ([]Projection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	seeker := sensitivity.NewSeeker(logger)
	var results []Projection
	for _, deal := range conf.Deals {
		if !deal.Active {
			logger.Debug(fmt.Sprintf("skipping deal %s because it is inactive", deal.Name),
				zap.String("op", "projection.GetProjections"),
			)
			continue
		}

		result, err := Project(seeker, &conf, deal)
		if err != nil {
			return results, fmt.Errorf("deal %s: %w", deal.Name, err)
		}

		logger.Debug("deal projected",
			zap.String("op", "projection.GetProjections"),
			zap.String("deal", deal.Name),
			zap.Float64("revenue", result.Inputs.Revenue),
			zap.Float64("profitPool", result.Result.ProfitPool),
			zap.String("breakeven", format.Currency(result.Breakeven)),
		)
		results = append(results, result)
	}

	return results, nil
}

// Project computes a single deal against the common terms of conf.
func Project(seeker *sensitivity.Seeker, conf *config.Configuration, deal config.Deal) (Projection, error) {
	in, guilds, selections := conf.Resolve(deal)

	p := Projection{
		Name:       deal.Name,
		Inputs:     in,
		Guilds:     guilds,
		Selections: selections,
		Result:     waterfall.Calculate(in, guilds, selections),
	}
	p.Breakeven = p.Result.TotalHurdle

	if !p.Result.BreakevenReachable() {
		p.Notes = append(p.Notes, "breakeven is unreachable; variable deductions take all revenue")
	} else if mathutil.IsNegative(p.Result.ProfitPool) {
		p.Notes = append(p.Notes, fmt.Sprintf("revenue falls %s short of breakeven", format.Currency(p.Result.Shortfall())))
	}

	if !deal.Sweep.IsZero() {
		points, err := sensitivity.Sweep(in, guilds, selections, deal.Sweep)
		if err != nil {
			return p, err
		}
		p.Sweep = points
	}

	if deal.TargetMultiple > 0 {
		p.TargetMultiple = deal.TargetMultiple
		revenue, err := sensitivity.RevenueForMultiple(in, guilds, selections, deal.TargetMultiple)
		switch {
		case errors.Is(err, sensitivity.ErrNoEquity):
			p.RevenueForTarget = math.NaN()
			p.Notes = append(p.Notes, "target multiple ignored; no equity is selected")
		case err != nil:
			return p, err
		default:
			p.RevenueForTarget = revenue
		}
	}

	for _, goal := range deal.Goals {
		summary, err := seeker.Seek(in, guilds, selections, goal)
		if err != nil {
			if errors.Is(err, sensitivity.ErrNoEquity) {
				p.Notes = append(p.Notes, fmt.Sprintf("goal %s ignored; no equity is selected", sensitivity.CanonicalMetric(goal.Metric)))
				continue
			}
			return p, err
		}
		p.Goals = append(p.Goals, summary)
	}

	return p, nil
}
