// Package patterns holds the learning-store collaborator the decision
// engine consults for historical split success rates. The store is
// injected by the caller; this package owns only the contract and an
// in-memory implementation. Persistent backends live outside the core.
package patterns

import (
	"sync"

	"go.uber.org/zap"
)

// Store records split outcomes and answers success-rate lookups keyed
// by a file shape signature and strategy. Both calls are best-effort:
// implementations must tolerate concurrent access and must never block
// the splitting pipeline.
type Store interface {
	// SuccessRate returns the observed success rate for the given
	// shape signature and strategy, and whether any history exists.
	SuccessRate(signature, strategy string) (float64, bool)

	// RecordOutcome appends one observed outcome. Append-only.
	RecordOutcome(signature, strategy string, success bool)
}

type outcomeCounts struct {
	attempts  int
	successes int
}

// MemoryStore is the in-process Store used by default and in tests.
type MemoryStore struct {
	logger *zap.Logger

	mu     sync.RWMutex
	counts map[string]*outcomeCounts
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		logger: logger,
		counts: make(map[string]*outcomeCounts),
	}
}

func key(signature, strategy string) string {
	return signature + "|" + strategy
}

// SuccessRate implements Store.
func (s *MemoryStore) SuccessRate(signature, strategy string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.counts[key(signature, strategy)]
	if !ok || c.attempts == 0 {
		return 0, false
	}
	return float64(c.successes) / float64(c.attempts), true
}

// RecordOutcome implements Store.
func (s *MemoryStore) RecordOutcome(signature, strategy string, success bool) {
	s.mu.Lock()
	c, ok := s.counts[key(signature, strategy)]
	if !ok {
		c = &outcomeCounts{}
		s.counts[key(signature, strategy)] = c
	}
	c.attempts++
	if success {
		c.successes++
	}
	s.mu.Unlock()

	s.logger.Debug("Recorded split outcome",
		zap.String("signature", signature),
		zap.String("strategy", strategy),
		zap.Bool("success", success),
	)
}
