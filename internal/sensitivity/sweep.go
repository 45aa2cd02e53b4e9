// Package sensitivity answers "what if" questions about a deal by re-running
// the waterfall at other sale prices.
package sensitivity

import (
	"errors"
	"fmt"
	"math"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/waterfall"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/constants"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
)

// SweepRange is an inclusive range of sale prices.
type SweepRange struct {
	From float64 `json:"from" yaml:"from" mapstructure:"from"`
	To   float64 `json:"to" yaml:"to" mapstructure:"to"`
	Step float64 `json:"step" yaml:"step" mapstructure:"step"`
}

// Point is the waterfall outcome at one sale price.
type Point struct {
	Revenue     float64 `json:"revenue"`
	ProfitPool  float64 `json:"profitPool"`
	Multiple    float64 `json:"multiple"`
	HasMultiple bool    `json:"hasMultiple"`
}

// IsZero reports whether the range was left unset.
func (s SweepRange) IsZero() bool {
	return s == SweepRange{}
}

// Validate checks the range is finite, ordered and small enough to evaluate.
func (s SweepRange) Validate() error {
	if !mathutil.IsFinite(s.From) || !mathutil.IsFinite(s.To) || !mathutil.IsFinite(s.Step) {
		return errors.New("sweep bounds must be finite")
	}
	if s.Step <= 0 {
		return fmt.Errorf("sweep step must be positive, got %.2f", s.Step)
	}
	if s.To < s.From {
		return fmt.Errorf("sweep end %.2f must not be before start %.2f", s.To, s.From)
	}
	if count := s.count(); count > constants.MaxSweepPoints {
		return fmt.Errorf("sweep would produce %d points, limit is %d", count, constants.MaxSweepPoints)
	}
	return nil
}

func (s SweepRange) count() int {
	steps := math.Floor((s.To - s.From) / s.Step)
	if steps > float64(constants.MaxSweepPoints) {
		return constants.MaxSweepPoints + 1
	}
	n := int(steps) + 1
	if s.From+float64(n-1)*s.Step < s.To {
		n++
	}
	return n
}

// Sweep evaluates the waterfall at every price in the range. The end of the
// range is always included even when it does not fall on a step.
func Sweep(in waterfall.Inputs, guilds waterfall.GuildState, sel waterfall.CapitalSelections, rng SweepRange) ([]Point, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	n := rng.count()
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		revenue := rng.From + float64(i)*rng.Step
		if revenue > rng.To || i == n-1 {
			revenue = rng.To
		}
		in.Revenue = revenue
		r := waterfall.Calculate(in, guilds, sel)
		points = append(points, Point{
			Revenue:     revenue,
			ProfitPool:  r.ProfitPool,
			Multiple:    r.Multiple,
			HasMultiple: r.HasMultiple(),
		})
	}
	return points, nil
}
