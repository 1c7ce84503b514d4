package scoring

import (
	"math"
	"sync"

	"github.com/prospectra/leadcrm/pkg/domain"
)

const (
	// DefaultHeuristicWeight and DefaultAIWeight are the starting blend.
	DefaultHeuristicWeight = 0.45
	DefaultAIWeight        = 0.55

	// weightSumTolerance is how far the two weights may drift from
	// summing to 1 before an update is rejected.
	weightSumTolerance = 0.001
)

// Weights is the blend applied to the heuristic and AI sub-scores.
type Weights struct {
	Heuristic float64 `json:"heuristic"`
	AI        float64 `json:"ai"`
}

// Config holds the process-wide blend weights, editable by an operator
// at runtime.
type Config struct {
	mu      sync.RWMutex
	weights Weights
}

// NewConfig returns a Config seeded with the default blend.
func NewConfig() *Config {
	return &Config{
		weights: Weights{Heuristic: DefaultHeuristicWeight, AI: DefaultAIWeight},
	}
}

// Weights returns the current blend.
func (c *Config) Weights() Weights {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.weights
}

// SetWeights replaces the blend. Each weight must be in [0,1] and the
// pair must sum to 1 within tolerance.
func (c *Config) SetWeights(w Weights) error {
	if w.Heuristic < 0 || w.Heuristic > 1 || w.AI < 0 || w.AI > 1 {
		return domain.NewValidationError("weights must be between 0 and 1")
	}
	if math.Abs(w.Heuristic+w.AI-1) > weightSumTolerance {
		return domain.NewValidationError("weights must sum to 1")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weights = w
	return nil
}
