package decision

import (
	"context"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
)

// Strategy identifies the algorithm used to partition a file into
// components.
type Strategy string

const (
	StrategyClassBased    Strategy = "class_based"
	StrategyFunctionBased Strategy = "function_based"
	StrategySectionBased  Strategy = "section_based"
	StrategyModuleBased   Strategy = "module_based"
)

func (s Strategy) String() string { return string(s) }

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyClassBased, StrategyFunctionBased, StrategySectionBased, StrategyModuleBased:
		return true
	}
	return false
}

// Decision is the engine's verdict for one (content, config) pair.
// Confidence always lies in [0, 1]; Reasoning preserves the order in
// which signals contributed.
type Decision struct {
	ShouldSplit bool     `json:"should_split"`
	Strategy    Strategy `json:"strategy"`
	Confidence  float64  `json:"confidence"`
	Reasoning   []string `json:"reasoning"`
}

// Recommendation is the AI collaborator's answer: a strategy, the
// model's certainty in it, and free-text rationale.
type Recommendation struct {
	Strategy   Strategy `json:"strategy"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale"`
}

// Recommender is the AI recommendation collaborator. Implementations
// live outside this core; the engine is fully functional without one.
// Calls must honor ctx cancellation and may fail or time out.
type Recommender interface {
	Recommend(ctx context.Context, content string, report *analysis.ComplexityReport) (*Recommendation, error)
}
