package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SourceFile is an immutable splitting input. Hash is the cache and
// decision key for everything downstream.
type SourceFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Hash    string `json:"hash"`
}

// NewSourceFile builds a SourceFile with its content hash precomputed.
func NewSourceFile(path, content string) SourceFile {
	sum := sha256.Sum256([]byte(content))
	return SourceFile{
		Path:    path,
		Content: content,
		Hash:    hex.EncodeToString(sum[:]),
	}
}

// ImportDecl is one import spec of the analyzed file.
type ImportDecl struct {
	Name string `json:"name,omitempty"` // alias, "_" or "." when present
	Path string `json:"path"`
}

// LocalName returns the identifier the import binds in file scope.
func (i ImportDecl) LocalName() string {
	if i.Name != "" {
		return i.Name
	}
	// Last path component; good enough for grouping since mismatched
	// package names only cost an extra carried import.
	for j := len(i.Path) - 1; j >= 0; j-- {
		if i.Path[j] == '/' {
			return i.Path[j+1:]
		}
	}
	return i.Path
}

// FunctionMetric holds per-function sub-metrics. Methods carry their
// receiver type name; free functions have an empty Receiver.
type FunctionMetric struct {
	Name       string `json:"name"`
	Receiver   string `json:"receiver,omitempty"`
	Lines      int    `json:"lines"`
	Cyclomatic int    `json:"cyclomatic"`
	Cognitive  int    `json:"cognitive"`
}

// ClassMetric holds per-type sub-metrics. A "class" is a top-level type
// declaration together with its methods.
type ClassMetric struct {
	Name        string `json:"name"`
	MethodCount int    `json:"method_count"`
	Lines       int    `json:"lines"`
	Cyclomatic  int    `json:"cyclomatic"`
	Cognitive   int    `json:"cognitive"`
}

// ComplexityReport is the cached analysis artifact for one content hash.
// Cyclomatic and Cognitive are the highest per-function values in the
// file; per-entity numbers live in Functions and Classes.
type ComplexityReport struct {
	Path          string           `json:"path"`
	Hash          string           `json:"hash"`
	SizeBytes     int              `json:"size_bytes"`
	LineCount     int              `json:"line_count"`
	FunctionCount int              `json:"function_count"` // free functions only
	ClassCount    int              `json:"class_count"`
	MethodCount   int              `json:"method_count"`
	SectionCount  int              `json:"section_count"` // banner-delimited sections
	Cyclomatic    int              `json:"cyclomatic"`
	Cognitive     int              `json:"cognitive"`
	Imports       []ImportDecl     `json:"imports"`
	Functions     []FunctionMetric `json:"functions"`
	Classes       []ClassMetric    `json:"classes"`
	Parsed        bool             `json:"parsed"`
}

// ParseError reports syntactically invalid input. It is a recoverable
// condition: callers degrade to a no-split decision instead of failing.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
