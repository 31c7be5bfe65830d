package splitter

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JustAGhosT/codeflow-engine/internal/config"
	"github.com/JustAGhosT/codeflow-engine/internal/patterns"
)

const shapesSource = `package shapes

import (
	"fmt"
	"math"
)

type Circle struct {
	Radius float64
}

func (c Circle) Area() float64 {
	return math.Pi * c.Radius * c.Radius
}

func (c Circle) String() string {
	return fmt.Sprintf("circle(%v)", c.Radius)
}

type Square struct {
	Side float64
}

func (s Square) Area() float64 {
	return s.Side * s.Side
}

type Triangle struct {
	Base, Height float64
}

func (t Triangle) Area() float64 {
	return t.Base * t.Height / 2
}
`

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func classSplitConfig() *config.SplitConfig {
	cfg := config.DefaultConfig()
	cfg.MaxClassesPerFile = 2
	return cfg
}

func TestSplitFileClassStrategy(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "shapes.go", shapesSource)

	fs := NewFileSplitter(classSplitConfig(), nil, nil, zaptest.NewLogger(t))
	result, err := fs.SplitFile(context.Background(), path)
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, "class_based", result.Strategy)
	assert.True(t, result.Validated)
	assert.Equal(t, 1.0, result.Confidence)
	require.Len(t, result.Components, 3)

	// Original is gone, components are in place and parse
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "original file must be removed after commit")
	for _, name := range result.Components {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		_, err = parser.ParseFile(token.NewFileSet(), name, content, parser.ParseComments)
		assert.NoError(t, err, "component %s must be valid Go", name)
	}

	// Backup holds the original bytes
	require.NotEmpty(t, result.BackupPath)
	backup, err := os.ReadFile(result.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, shapesSource, string(backup))
}

func TestSplitFileNoSplitNeeded(t *testing.T) {
	dir := t.TempDir()
	small := "package small\n\nfunc Tiny() {}\n"
	path := writeSource(t, dir, "small.go", small)

	fs := NewFileSplitter(config.DefaultConfig(), nil, nil, zaptest.NewLogger(t))
	result, err := fs.SplitFile(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Components)
	assert.Empty(t, result.BackupPath, "no mutation, no backup")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, small, string(content), "file untouched")
	assert.Equal(t, []string{"small.go"}, listDir(t, dir))
}

func TestSplitFileValidationRollback(t *testing.T) {
	// A banner inside a raw string makes the section splitter produce an
	// unparseable component. Validation must catch it and leave the
	// original file exactly as it was.
	source := strings.Join([]string{
		"package app",
		"",
		"// === data ===",
		"",
		"var Template = `",
		"// === fake banner ===",
		"`",
		"",
		"// === logic ===",
		"",
		"func Run() {}",
		"",
	}, "\n")

	dir := t.TempDir()
	path := writeSource(t, dir, "app.go", source)

	cfg := config.DefaultConfig()
	cfg.MaxLinesPerFile = 5
	cfg.CreateBackups = false

	fs := NewFileSplitter(cfg, nil, nil, zaptest.NewLogger(t))
	result, err := fs.SplitFile(context.Background(), path)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "section_based", result.Strategy)

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, source, string(content), "rollback must leave the original byte-identical")
	assert.Equal(t, []string{"app.go"}, listDir(t, dir), "no staged or partial components may remain")
}

func TestSplitFileTimeout(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "shapes.go", shapesSource)

	fs := NewFileSplitter(classSplitConfig(), nil, nil, zaptest.NewLogger(t))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	result, err := fs.SplitFile(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeoutExceeded)
	assert.False(t, result.Success)

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, shapesSource, string(content))
}

func TestSplitFileCanceled(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "shapes.go", shapesSource)

	fs := NewFileSplitter(classSplitConfig(), nil, nil, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := fs.SplitFile(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeoutExceeded, "a cancellation is not a budget overrun")
	assert.False(t, result.Success)

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, shapesSource, string(content))
}

func TestSplitFileInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "shapes.go", shapesSource)

	cfg := config.DefaultConfig()
	cfg.MaxLinesPerFile = -5

	fs := NewFileSplitter(cfg, nil, nil, zaptest.NewLogger(t))

	result, err := fs.SplitFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	require.NotNil(t, result)
	assert.False(t, result.Success)

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, shapesSource, string(content), "a rejected config must not touch the file")
	assert.Equal(t, []string{"shapes.go"}, listDir(t, dir))

	_, err = fs.ShouldSplitFile(context.Background(), path)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestSplitFileReasonsDetachedFromDecision(t *testing.T) {
	// Methods interleave between type declarations, so the class
	// splitter passes the file through whole and SplitFile appends its
	// own note to the reasons. The cached verdict must not pick it up.
	interleaved := strings.Join([]string{
		"package tangle",
		"",
		"type Reader struct{}",
		"",
		"type Writer struct{}",
		"",
		"type Closer struct{}",
		"",
		"func (r Reader) Read() {}",
		"",
	}, "\n")

	dir := t.TempDir()
	path := writeSource(t, dir, "tangle.go", interleaved)

	fs := NewFileSplitter(classSplitConfig(), nil, nil, zaptest.NewLogger(t))
	result, err := fs.SplitFile(context.Background(), path)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Contains(t, result.Reasons, "no safe partition found, file kept whole")

	dec, err := fs.ShouldSplitFile(context.Background(), path)
	require.NoError(t, err)
	assert.NotContains(t, dec.Reasoning, "no safe partition found, file kept whole")
}

func TestShouldSplitFileDryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "shapes.go", shapesSource)

	fs := NewFileSplitter(classSplitConfig(), nil, nil, zaptest.NewLogger(t))
	dec, err := fs.ShouldSplitFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, dec.ShouldSplit)

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, shapesSource, string(content), "dry run never touches the file")
}

func TestShouldSplitFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "broken.go", "package broken\n\nfunc Broken( {")

	fs := NewFileSplitter(config.DefaultConfig(), nil, nil, zaptest.NewLogger(t))
	dec, err := fs.ShouldSplitFile(context.Background(), path)
	require.NoError(t, err, "malformed source is a no-split verdict, not an error")
	assert.False(t, dec.ShouldSplit)
	assert.Contains(t, dec.Reasoning, "unparseable source")
}

func TestSplitFileIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "shapes.go", shapesSource)

	cfg := classSplitConfig()
	cfg.CreateBackups = false

	fs := NewFileSplitter(cfg, nil, nil, zaptest.NewLogger(t))
	result, err := fs.SplitFile(context.Background(), path)
	require.NoError(t, err)
	require.True(t, result.Success)

	// Each emitted component is itself under the thresholds
	for _, name := range result.Components {
		dec, err := fs.ShouldSplitFile(context.Background(), filepath.Join(dir, name))
		require.NoError(t, err)
		assert.False(t, dec.ShouldSplit, "component %s must not need further splitting", name)
	}
}

func TestSplitFileRecordsOutcome(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "shapes.go", shapesSource)

	store := patterns.NewMemoryStore(zaptest.NewLogger(t))
	cfg := classSplitConfig()
	cfg.LearningEnabled = true

	fs := NewFileSplitter(cfg, nil, store, zaptest.NewLogger(t))
	result, err := fs.SplitFile(context.Background(), path)
	require.NoError(t, err)
	require.True(t, result.Success)

	rate, ok := store.SuccessRate("small:classes", "class_based")
	assert.True(t, ok, "a committed split must be recorded")
	assert.Equal(t, 1.0, rate)
}

func TestSplitBatch(t *testing.T) {
	dir := t.TempDir()
	heavy := writeSource(t, dir, "shapes.go", shapesSource)
	light := writeSource(t, dir, "small.go", "package small\n\nfunc Tiny() {}\n")

	cfg := classSplitConfig()
	cfg.EnableParallelProcessing = true
	cfg.MaxParallelWorkers = 2
	cfg.CreateBackups = false

	fs := NewFileSplitter(cfg, nil, nil, zaptest.NewLogger(t))
	results, err := fs.SplitBatch(context.Background(), []string{heavy, light})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Success)
	assert.NotEmpty(t, results[0].Components)
	assert.True(t, results[1].Success)
	assert.Empty(t, results[1].Components)

	_, statErr := os.Stat(light)
	assert.NoError(t, statErr, "the under-threshold file stays put")
}
