package splitter

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
	"github.com/JustAGhosT/codeflow-engine/internal/config"
	"github.com/JustAGhosT/codeflow-engine/internal/decision"
	"github.com/JustAGhosT/codeflow-engine/internal/metrics"
	"github.com/JustAGhosT/codeflow-engine/internal/patterns"
	"github.com/JustAGhosT/codeflow-engine/internal/strategies"
)

// SplitResult describes the outcome of a single split attempt.
// Success with an empty Components slice means the file did not need
// splitting and was left untouched.
type SplitResult struct {
	Path           string        `json:"path"`
	Success        bool          `json:"success"`
	Strategy       string        `json:"strategy,omitempty"`
	Components     []string      `json:"components,omitempty"`
	Validated      bool          `json:"validated"`
	BackupPath     string        `json:"backup_path,omitempty"`
	Confidence     float64       `json:"confidence"`
	ProcessingTime time.Duration `json:"processing_time"`
	Reasons        []string      `json:"reasons,omitempty"`
	Errors         []string      `json:"errors,omitempty"`
}

// FileSplitter orchestrates the full pipeline: analyze, decide, back
// up, stage, validate, commit. Any failure after staging rolls back so
// the original file is never left damaged.
type FileSplitter struct {
	cfg      *config.SplitConfig
	analyzer *analysis.Analyzer
	engine   *decision.Engine
	store    patterns.Store
	logger   *zap.Logger
}

// NewFileSplitter wires the pipeline. recommender and store may be
// nil; the engine then runs purely on static thresholds and no outcome
// history is kept.
func NewFileSplitter(cfg *config.SplitConfig, recommender decision.Recommender, store patterns.Store, logger *zap.Logger) *FileSplitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &FileSplitter{
		cfg:      cfg,
		analyzer: analysis.NewAnalyzer(logger),
		engine:   decision.NewEngine(recommender, store, logger),
		store:    store,
		logger:   logger,
	}
}

// ShouldSplitFile is the dry-run entry point. It never modifies the
// filesystem and treats unparseable source as a no-split decision
// rather than an error.
func (f *FileSplitter) ShouldSplitFile(ctx context.Context, path string) (*decision.Decision, error) {
	if err := f.cfg.Validate(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	src := analysis.NewSourceFile(path, string(content))

	report, err := f.analyzer.Analyze(path, string(content))
	if err != nil {
		f.logger.Debug("Dry-run analysis failed, treating as no-split",
			zap.String("path", path),
			zap.Error(err),
		)
		report = nil
	}
	return f.engine.Decide(ctx, src, report, f.cfg), nil
}

// SplitFile runs the full pipeline on one file. The returned result is
// non-nil even on error so callers always get timing and reasons.
func (f *FileSplitter) SplitFile(ctx context.Context, path string) (*SplitResult, error) {
	start := time.Now()

	// A config that fails validation aborts before any analysis runs.
	if err := f.cfg.Validate(); err != nil {
		return &SplitResult{
			Path:           path,
			Success:        false,
			Errors:         []string{err.Error()},
			ProcessingTime: time.Since(start),
		}, err
	}

	metrics.SplitsStarted.Inc()

	if budget := f.cfg.ProcessingBudget(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	result := &SplitResult{Path: path}
	fail := func(stage string, err error) (*SplitResult, error) {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		result.ProcessingTime = time.Since(start)
		metrics.RecordSplit(result.Strategy, "failed", result.ProcessingTime.Seconds(), 0)
		f.logger.Warn("Split failed",
			zap.String("path", path),
			zap.String("stage", stage),
			zap.Error(err),
		)
		return result, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fail("read", fmt.Errorf("read %s: %w", path, err))
	}
	src := analysis.NewSourceFile(path, string(content))

	report, err := f.analyzer.Analyze(path, string(content))
	if err != nil {
		return fail("analyze", fmt.Errorf("%w: %v", ErrAnalysisFailed, err))
	}
	if err := f.checkBudget(ctx); err != nil {
		return fail("analyze", err)
	}

	dec := f.engine.Decide(ctx, src, report, f.cfg)
	result.Strategy = dec.Strategy.String()
	result.Confidence = dec.Confidence
	// Copied, not aliased: the decision is cached and shared across
	// batch workers, and callers append to Reasons below.
	result.Reasons = append([]string(nil), dec.Reasoning...)

	if !dec.ShouldSplit {
		result.Success = true
		result.ProcessingTime = time.Since(start)
		metrics.RecordSplit(result.Strategy, "skipped", result.ProcessingTime.Seconds(), 0)
		return result, nil
	}

	components, err := strategies.ForStrategy(dec.Strategy, f.cfg).Split(src, report, dec)
	if err != nil {
		f.recordOutcome(report, dec.Strategy, false)
		return fail("split", fmt.Errorf("strategy %s: %w", dec.Strategy, err))
	}
	if len(components) <= 1 {
		// The strategy fell back to keeping the file whole. Nothing to
		// write, and no outcome worth learning from.
		result.Success = true
		result.Reasons = append(result.Reasons, "no safe partition found, file kept whole")
		result.ProcessingTime = time.Since(start)
		metrics.RecordSplit(result.Strategy, "skipped", result.ProcessingTime.Seconds(), 0)
		return result, nil
	}
	if err := f.checkBudget(ctx); err != nil {
		return fail("split", err)
	}

	for _, c := range components {
		if c.Oversized {
			metrics.OversizedComponents.Inc()
			f.logger.Warn("Component still exceeds limits after split",
				zap.String("path", path),
				zap.String("component", c.Name),
			)
		}
	}

	if f.cfg.CreateBackups {
		backupPath, err := f.writeBackup(path, content)
		if err != nil {
			return fail("backup", fmt.Errorf("%w: %v", ErrBackupFailed, err))
		}
		result.BackupPath = backupPath
	}

	stagingDir, err := f.stage(path, components)
	if err != nil {
		f.recordOutcome(report, dec.Strategy, false)
		return fail("stage", fmt.Errorf("%w: %v", ErrWriteFailed, err))
	}
	defer os.RemoveAll(stagingDir)

	if f.cfg.ValidateSplits {
		if err := validateComponents(stagingDir, components); err != nil {
			metrics.ValidationFailures.Inc()
			metrics.RecordRollback("validation")
			f.recordOutcome(report, dec.Strategy, false)
			return fail("validate", err)
		}
		result.Validated = true
	}
	if err := f.checkBudget(ctx); err != nil {
		cause := "canceled"
		if errors.Is(err, ErrTimeoutExceeded) {
			cause = "timeout"
		}
		metrics.RecordRollback(cause)
		f.recordOutcome(report, dec.Strategy, false)
		return fail("validate", err)
	}

	written, err := f.commit(path, stagingDir, components)
	if err != nil {
		f.rollbackCommit(written)
		metrics.RecordRollback("commit")
		f.recordOutcome(report, dec.Strategy, false)
		return fail("commit", fmt.Errorf("%w: %v", ErrCommitFailed, err))
	}

	for _, c := range components {
		result.Components = append(result.Components, c.Name)
	}
	result.Success = true
	result.ProcessingTime = time.Since(start)

	f.recordOutcome(report, dec.Strategy, true)
	metrics.RecordSplit(result.Strategy, "success", result.ProcessingTime.Seconds(), len(components))
	f.logger.Info("Split committed",
		zap.String("path", path),
		zap.String("strategy", result.Strategy),
		zap.Int("components", len(components)),
		zap.Duration("duration", result.ProcessingTime),
	)
	return result, nil
}

func (f *FileSplitter) checkBudget(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	// Only an expired deadline is a budget overrun. A canceled context
	// (shutdown signal, caller bailing out) passes through as-is.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeoutExceeded, err)
	}
	return err
}

func (f *FileSplitter) writeBackup(path string, content []byte) (string, error) {
	backupPath := fmt.Sprintf("%s.%s.bak", path, uuid.NewString()[:8])
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", err
	}
	return backupPath, nil
}

// stage writes every component into a fresh temporary directory next
// to the original so the final commit renames stay on one filesystem.
func (f *FileSplitter) stage(path string, components []strategies.Component) (string, error) {
	stagingDir := filepath.Join(filepath.Dir(path), ".split-"+uuid.NewString())
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", err
	}
	for _, c := range components {
		if err := os.WriteFile(filepath.Join(stagingDir, c.Name), []byte(c.Content), 0o644); err != nil {
			os.RemoveAll(stagingDir)
			return "", fmt.Errorf("write %s: %v", c.Name, err)
		}
	}
	return stagingDir, nil
}

func validateComponents(stagingDir string, components []strategies.Component) error {
	fset := token.NewFileSet()
	for _, c := range components {
		staged := filepath.Join(stagingDir, c.Name)
		if _, err := parser.ParseFile(fset, staged, nil, parser.ParseComments); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrValidationFailed, c.Name, err)
		}
	}
	return nil
}

// commit moves staged components into place and removes the original.
// The original is deleted last so a partial failure leaves it intact;
// the returned list names the files already moved, for rollback.
func (f *FileSplitter) commit(path, stagingDir string, components []strategies.Component) ([]string, error) {
	dir := filepath.Dir(path)
	var written []string
	for _, c := range components {
		dest := filepath.Join(dir, c.Name)
		if dest == path {
			return written, fmt.Errorf("component %s collides with original", c.Name)
		}
		if _, err := os.Lstat(dest); err == nil {
			return written, fmt.Errorf("component %s would overwrite an existing file", c.Name)
		}
		if err := os.Rename(filepath.Join(stagingDir, c.Name), dest); err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	if err := os.Remove(path); err != nil {
		return written, err
	}
	return written, nil
}

func (f *FileSplitter) rollbackCommit(written []string) {
	for _, dest := range written {
		if err := os.Remove(dest); err != nil {
			f.logger.Error("Rollback could not remove component",
				zap.String("path", dest),
				zap.Error(err),
			)
		}
	}
}

// recordOutcome feeds the pattern store best effort. Learning is an
// optimization, never a reason to fail a split.
func (f *FileSplitter) recordOutcome(report *analysis.ComplexityReport, strategy decision.Strategy, success bool) {
	if f.store == nil || !f.cfg.LearningEnabled {
		return
	}
	f.store.RecordOutcome(decision.ShapeSignature(report), strategy.String(), success)
}
