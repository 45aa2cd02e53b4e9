package sensitivity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/internal/waterfall"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/constants"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/format"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/mathutil"
	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/optimization"
	"go.uber.org/zap"
)

// Goal metrics a sale price can be solved for.
const (
	MetricProfitPool     = "profitPool"
	MetricInvestorProfit = "investorProfit"
	MetricProducerProfit = "producerProfit"
	MetricMultiple       = "multiple"
)

// ErrNoEquity is returned when a multiple is requested for a deal without
// selected equity principal.
var ErrNoEquity = errors.New("deal has no selected equity principal")

// Goal asks for the lowest sale price at which Metric reaches Target.
type Goal struct {
	Metric        string  `json:"metric" yaml:"metric" mapstructure:"metric"`
	Target        float64 `json:"target" yaml:"target" mapstructure:"target"`
	Tolerance     float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations int     `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

// CanonicalMetric returns the canonical identifier for a goal metric.
func CanonicalMetric(value string) string {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "", "profitpool", "profit_pool", "profit-pool":
		return MetricProfitPool
	case "investorprofit", "investor_profit", "investor-profit":
		return MetricInvestorProfit
	case "producerprofit", "producer_profit", "producer-profit":
		return MetricProducerProfit
	case "multiple":
		return MetricMultiple
	default:
		return strings.ToLower(trimmed)
	}
}

// Normalize applies defaults and canonical names.
func (g *Goal) Normalize() {
	if g == nil {
		return
	}
	g.Metric = CanonicalMetric(g.Metric)
	if g.Tolerance <= 0 {
		g.Tolerance = constants.DefaultSolverTolerance
	}
	if g.MaxIterations <= 0 {
		g.MaxIterations = constants.DefaultSolverMaxIterations
	}
}

// Validate returns an error when the goal cannot be solved.
func (g *Goal) Validate() error {
	if g == nil {
		return errors.New("goal cannot be nil")
	}
	g.Normalize()

	switch g.Metric {
	case MetricProfitPool, MetricInvestorProfit, MetricProducerProfit, MetricMultiple:
	default:
		return fmt.Errorf("goal metric %q is not supported", g.Metric)
	}
	if !mathutil.IsFinite(g.Target) {
		return fmt.Errorf("goal target must be finite, got %v", g.Target)
	}
	if g.Metric == MetricMultiple && g.Target <= 0 {
		return fmt.Errorf("goal multiple %.2f must be positive", g.Target)
	}
	return nil
}

func metricValue(metric string, r waterfall.Result) float64 {
	switch metric {
	case MetricInvestorProfit:
		return r.InvestorProfit
	case MetricProducerProfit:
		return r.ProducerProfit
	case MetricMultiple:
		return r.Multiple
	default:
		return r.ProfitPool
	}
}

// RevenueForMultiple returns the lowest sale price at which the equity
// multiple reaches target. Targets at or below the recoupment multiple
// (1 + premium) resolve to the breakeven price. It returns +Inf when the
// variable rate leaves no revenue to split.
func RevenueForMultiple(in waterfall.Inputs, guilds waterfall.GuildState, sel waterfall.CapitalSelections, target float64) (float64, error) {
	equity := mathutil.Gate(sel.Equity, in.Equity)
	if equity <= 0 {
		return 0, ErrNoEquity
	}
	if !mathutil.IsFinite(target) || target <= 0 {
		return 0, fmt.Errorf("target multiple must be a positive finite number, got %v", target)
	}

	variable := waterfall.VariableRate(in, guilds)
	if variable >= 1 {
		return math.Inf(1), nil
	}

	recouped := equity + mathutil.ApplyPercentage(equity, in.Premium)
	breakeven := waterfall.CalculateBreakeven(in, guilds, sel)
	if target*equity <= recouped {
		return breakeven, nil
	}

	pool := (target*equity - recouped) / constants.InvestorProfitShare
	revenue := (pool + waterfall.FixedCosts(in, sel)) / (1 - variable)
	return math.Max(revenue, breakeven), nil
}

// Seeker goal-seeks sale prices by bisection over the waterfall.
type Seeker struct {
	logger *zap.Logger
}

// NewSeeker constructs a Seeker. A nil logger is replaced with a no-op.
func NewSeeker(logger *zap.Logger) *Seeker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeker{logger: logger}
}

// Seek finds the lowest sale price at which the goal metric reaches its
// target. The search brackets the answer by doubling from the breakeven
// price, then bisects until the bracket is narrower than the tolerance.
func (s *Seeker) Seek(in waterfall.Inputs, guilds waterfall.GuildState, sel waterfall.CapitalSelections, goal Goal) (optimization.Summary, error) {
	if err := goal.Validate(); err != nil {
		return optimization.Summary{}, err
	}
	if goal.Metric == MetricMultiple && mathutil.Gate(sel.Equity, in.Equity) <= 0 {
		return optimization.Summary{}, ErrNoEquity
	}

	summary := optimization.Summary{Metric: goal.Metric, Target: goal.Target}

	evaluate := func(revenue float64) float64 {
		in.Revenue = revenue
		return metricValue(goal.Metric, waterfall.Calculate(in, guilds, sel))
	}

	if waterfall.VariableRate(in, guilds) >= 1 {
		summary.Revenue = math.Inf(1)
		summary.RevenueDisplay = format.Currency(summary.Revenue)
		summary.Notes = []string{"variable deductions take 100% or more of revenue; no sale price reaches the goal"}
		return summary, nil
	}

	lower := 0.0
	if achieved := evaluate(lower); achieved >= goal.Target {
		summary.Achieved = achieved
		summary.Converged = true
		summary.RevenueDisplay = format.Currency(0)
		return summary, nil
	}

	upper := math.Max(waterfall.CalculateBreakeven(in, guilds, sel), 1)
	iterations := 0
	for evaluate(upper) < goal.Target {
		lower = upper
		upper *= 2
		iterations++
		if iterations >= goal.MaxIterations || math.IsInf(upper, 1) {
			summary.Revenue = upper
			summary.Achieved = evaluate(upper)
			summary.Iterations = iterations
			summary.RevenueDisplay = format.Currency(upper)
			summary.Notes = []string{fmt.Sprintf("unable to bracket target %.2f within %d iterations", goal.Target, goal.MaxIterations)}
			s.logger.Debug("goal seek could not bracket target",
				zap.String("op", "sensitivity.Seek"),
				zap.String("metric", goal.Metric),
				zap.Float64("target", goal.Target),
				zap.Float64("upper", upper),
				zap.Int("iterations", iterations),
			)
			return summary, nil
		}
	}

	for iterations < goal.MaxIterations && !mathutil.WithinTolerance(upper, lower, goal.Tolerance) {
		mid := lower + (upper-lower)/2
		iterations++
		if evaluate(mid) >= goal.Target {
			if mid == upper {
				break
			}
			upper = mid
		} else {
			if mid == lower {
				break
			}
			lower = mid
		}
	}

	summary.Revenue = upper
	summary.Achieved = evaluate(upper)
	summary.Iterations = iterations
	summary.Converged = mathutil.WithinTolerance(upper, lower, goal.Tolerance)
	summary.RevenueDisplay = format.Currency(upper)
	if !summary.Converged {
		summary.Notes = []string{fmt.Sprintf("stopped after %d iterations with a bracket of %s", iterations, format.Currency(upper-lower))}
	}

	s.logger.Debug("goal seek finished",
		zap.String("op", "sensitivity.Seek"),
		zap.String("metric", goal.Metric),
		zap.Float64("target", goal.Target),
		zap.Float64("revenue", summary.Revenue),
		zap.Int("iterations", iterations),
		zap.Bool("converged", summary.Converged),
	)
	return summary, nil
}
