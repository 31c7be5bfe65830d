package strategies

import (
	"path/filepath"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
	"github.com/JustAGhosT/codeflow-engine/internal/decision"
)

// ModuleBasedSplitter is the identity strategy: the file is kept whole
// as a single component. It doubles as the fallback target for the
// other strategies when no safe partition exists.
type ModuleBasedSplitter struct{}

func (s *ModuleBasedSplitter) Split(src analysis.SourceFile, report *analysis.ComplexityReport, dec *decision.Decision) ([]Component, error) {
	entities := []string{baseName(src.Path)}
	return []Component{{
		Name:     filepath.Base(src.Path),
		Content:  src.Content,
		Entities: entities,
	}}, nil
}
