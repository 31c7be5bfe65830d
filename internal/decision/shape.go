package decision

import (
	"fmt"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
)

// ShapeSignature fingerprints a file's structural profile for
// historical success-rate lookups. Files with the same size class and
// dominant entity kind share a signature, so outcomes generalize across
// files of similar shape rather than exact content.
func ShapeSignature(report *analysis.ComplexityReport) string {
	if report == nil || !report.Parsed {
		return "unparsed"
	}

	sizeClass := "small"
	switch {
	case report.LineCount >= 800:
		sizeClass = "large"
	case report.LineCount >= 200:
		sizeClass = "medium"
	}

	dominant := "mixed"
	switch {
	case report.ClassCount > report.FunctionCount:
		dominant = "classes"
	case report.FunctionCount > report.ClassCount:
		dominant = "functions"
	}

	return fmt.Sprintf("%s:%s", sizeClass, dominant)
}
