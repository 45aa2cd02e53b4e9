// Package optimization provides shared data structures for goal-seek results.
package optimization

// Summary captures the result of a single revenue goal-seek.
type Summary struct {
	Metric     string   `json:"metric"`
	Target     float64  `json:"target"`
	Revenue    float64  `json:"revenue"`
	Achieved   float64  `json:"achieved"`
	Iterations int      `json:"iterations"`
	Converged  bool     `json:"converged"`
	Notes      []string `json:"notes,omitempty"`

	RevenueDisplay string `json:"revenueDisplay,omitempty"`
}
