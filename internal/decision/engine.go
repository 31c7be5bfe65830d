package decision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
	"github.com/JustAGhosT/codeflow-engine/internal/circuitbreaker"
	"github.com/JustAGhosT/codeflow-engine/internal/config"
	"github.com/JustAGhosT/codeflow-engine/internal/metrics"
	"github.com/JustAGhosT/codeflow-engine/internal/patterns"
)

// historyBiasMargin is how much a candidate's historical success rate
// must beat the heuristic choice's rate before history overrides it.
const historyBiasMargin = 0.1

// noHistoryPrior stands in for the heuristic choice's success rate when
// no outcome has been recorded for it yet.
const noHistoryPrior = 0.5

// Engine fuses the static threshold signal, an optional AI
// recommendation and historical success rates into one Decision.
// Decisions are cached by (content hash, config hash) for the life of
// the engine.
type Engine struct {
	recommender Recommender
	store       patterns.Store
	breaker     *circuitbreaker.Breaker
	logger      *zap.Logger

	mu    sync.RWMutex
	cache map[string]*Decision
}

// NewEngine creates a decision engine. Both collaborators are optional:
// a nil recommender disables the AI signal regardless of configuration,
// and a nil store disables history bias.
func NewEngine(recommender Recommender, store patterns.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	var breaker *circuitbreaker.Breaker
	if recommender != nil {
		breaker = circuitbreaker.New("ai-recommender", circuitbreaker.DefaultConfig(), logger)
	}
	return &Engine{
		recommender: recommender,
		store:       store,
		breaker:     breaker,
		logger:      logger,
		cache:       make(map[string]*Decision),
	}
}

// Decide runs STATIC_EVAL -> AI_EVAL -> HISTORY_BIAS -> FINAL for one
// file. It never fails: unparseable input and collaborator errors all
// degrade to a defined decision. The ctx deadline bounds the AI call;
// with use_ai_analysis off the result is deterministic for identical
// (content, config).
func (e *Engine) Decide(ctx context.Context, src analysis.SourceFile, report *analysis.ComplexityReport, cfg *config.SplitConfig) *Decision {
	start := time.Now()

	if report == nil || !report.Parsed {
		return &Decision{
			ShouldSplit: false,
			Strategy:    StrategyModuleBased,
			Confidence:  0,
			Reasoning:   []string{"unparseable source"},
		}
	}

	cacheKey := src.Hash + ":" + cfg.Hash()
	e.mu.RLock()
	cached, ok := e.cache[cacheKey]
	e.mu.RUnlock()
	if ok {
		return cached
	}

	dec := e.decide(ctx, src, report, cfg)
	dec.Confidence = clamp01(dec.Confidence)

	e.mu.Lock()
	e.cache[cacheKey] = dec
	e.mu.Unlock()

	metrics.RecordDecision(dec.Strategy.String(), dec.ShouldSplit, time.Since(start).Seconds())
	e.logger.Debug("Split decision made",
		zap.String("path", report.Path),
		zap.Bool("should_split", dec.ShouldSplit),
		zap.String("strategy", dec.Strategy.String()),
		zap.Float64("confidence", dec.Confidence),
	)
	return dec
}

func (e *Engine) decide(ctx context.Context, src analysis.SourceFile, report *analysis.ComplexityReport, cfg *config.SplitConfig) *Decision {
	// STATIC_EVAL
	exceeds, reasons := analysis.EvaluateThresholds(report, cfg)
	staticConfidence := 0.0
	if exceeds {
		staticConfidence = cfg.Fusion.FirstSignal + float64(len(reasons)-1)*cfg.Fusion.AdditionalSignal
	}

	// AI_EVAL
	var rec *Recommendation
	if cfg.UseAIAnalysis && e.recommender != nil {
		rec = e.recommend(ctx, src.Content, report, cfg)
	}

	if rec != nil {
		dec := &Decision{
			ShouldSplit: rec.Strategy != StrategyModuleBased || exceeds,
			Strategy:    rec.Strategy,
			Confidence:  rec.Confidence,
		}
		dec.Reasoning = append(dec.Reasoning, fmt.Sprintf("ai recommendation: %s (confidence %.2f): %s", rec.Strategy, rec.Confidence, rec.Rationale))
		if exceeds {
			dec.Reasoning = append(dec.Reasoning, reasons...)
		} else {
			dec.Reasoning = append(dec.Reasoning, "static thresholds not exceeded")
		}
		return dec
	}

	if !exceeds {
		return &Decision{
			ShouldSplit: false,
			Strategy:    StrategyModuleBased,
			Confidence:  0,
			Reasoning:   underThresholdReasons(report, cfg),
		}
	}

	// Static-only strategy selection, then HISTORY_BIAS.
	strategy, why := e.selectStrategy(report)
	dec := &Decision{
		ShouldSplit: true,
		Strategy:    strategy,
		Confidence:  staticConfidence,
		Reasoning:   append(reasons, why),
	}

	if cfg.LearningEnabled && e.store != nil {
		e.applyHistoryBias(dec, report)
	}
	return dec
}

// recommend calls the AI collaborator through the circuit breaker and
// applies the confidence threshold. All failure modes return nil so the
// engine proceeds with the static signal; none of them surface to the
// caller.
func (e *Engine) recommend(ctx context.Context, content string, report *analysis.ComplexityReport, cfg *config.SplitConfig) *Recommendation {
	var rec *Recommendation
	err := e.breaker.Execute(ctx, func(ctx context.Context) error {
		r, err := e.recommender.Recommend(ctx, content, report)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		reason := "error"
		switch {
		case err == circuitbreaker.ErrOpen || err == circuitbreaker.ErrTooManyRequests:
			reason = "breaker_open"
		case ctx.Err() != nil:
			reason = "timeout"
		}
		metrics.RecordAIFallback(reason)
		e.logger.Warn("AI recommendation unavailable, using static signal",
			zap.String("path", report.Path),
			zap.Error(err),
		)
		return nil
	}
	if rec == nil || !rec.Strategy.Valid() {
		metrics.RecordAIFallback("malformed")
		return nil
	}
	rec.Confidence = clamp01(rec.Confidence)
	if rec.Confidence < cfg.ConfidenceThreshold {
		metrics.RecordAIFallback("below_threshold")
		e.logger.Debug("AI recommendation below confidence threshold, discarded",
			zap.String("path", report.Path),
			zap.Float64("confidence", rec.Confidence),
			zap.Float64("threshold", cfg.ConfidenceThreshold),
		)
		return nil
	}
	return rec
}

// selectStrategy applies the static heuristic: classes dominate ->
// class-based; functions dominate -> function-based; section banners
// present -> section-based; otherwise module-based pass-through.
func (e *Engine) selectStrategy(report *analysis.ComplexityReport) (Strategy, string) {
	switch {
	case report.ClassCount > report.FunctionCount && report.ClassCount > 1:
		return StrategyClassBased, fmt.Sprintf("class-based: %d classes dominate %d free functions", report.ClassCount, report.FunctionCount)
	case report.FunctionCount > report.ClassCount && report.FunctionCount > 1:
		return StrategyFunctionBased, fmt.Sprintf("function-based: %d free functions dominate %d classes", report.FunctionCount, report.ClassCount)
	case report.SectionCount > 0:
		return StrategySectionBased, fmt.Sprintf("section-based: %d section delimiters present", report.SectionCount)
	default:
		return StrategyModuleBased, "module-based fallback: no dominant structure"
	}
}

// candidateStrategies lists every strategy that structurally applies to
// the file, in a fixed order so history bias stays deterministic.
func candidateStrategies(report *analysis.ComplexityReport) []Strategy {
	var candidates []Strategy
	if report.ClassCount > 1 {
		candidates = append(candidates, StrategyClassBased)
	}
	if report.FunctionCount > 1 {
		candidates = append(candidates, StrategyFunctionBased)
	}
	if report.SectionCount > 0 {
		candidates = append(candidates, StrategySectionBased)
	}
	return candidates
}

// applyHistoryBias lets recorded success rates steer the strategy when
// several are structurally valid. It only ever switches between
// candidates; it never turns a split decision off and never runs when
// an AI recommendation was accepted.
func (e *Engine) applyHistoryBias(dec *Decision, report *analysis.ComplexityReport) {
	candidates := candidateStrategies(report)
	if len(candidates) < 2 {
		return
	}

	sig := ShapeSignature(report)
	currentRate := noHistoryPrior
	if rate, ok := e.store.SuccessRate(sig, dec.Strategy.String()); ok {
		currentRate = rate
	}

	best := dec.Strategy
	bestRate := currentRate
	for _, cand := range candidates {
		if cand == dec.Strategy {
			continue
		}
		rate, ok := e.store.SuccessRate(sig, cand.String())
		if !ok {
			continue
		}
		if rate > bestRate+historyBiasMargin {
			best = cand
			bestRate = rate
		}
	}

	if best != dec.Strategy {
		dec.Reasoning = append(dec.Reasoning, fmt.Sprintf("history bias: %s success rate %.2f for shape %q outweighs %s", best, bestRate, sig, dec.Strategy))
		dec.Strategy = best
	}
}

// underThresholdReasons composes the audit text for a no-split verdict,
// one line per enabled check.
func underThresholdReasons(report *analysis.ComplexityReport, cfg *config.SplitConfig) []string {
	var reasons []string
	if cfg.MaxFileSizeBytes > 0 {
		reasons = append(reasons, fmt.Sprintf("under size threshold (%d <= %d bytes)", report.SizeBytes, cfg.MaxFileSizeBytes))
	}
	if cfg.MaxLinesPerFile > 0 {
		reasons = append(reasons, fmt.Sprintf("under line threshold (%d <= %d)", report.LineCount, cfg.MaxLinesPerFile))
	}
	if cfg.MaxFunctionsPerFile > 0 {
		reasons = append(reasons, fmt.Sprintf("under function threshold (%d <= %d)", report.FunctionCount, cfg.MaxFunctionsPerFile))
	}
	if cfg.MaxClassesPerFile > 0 {
		reasons = append(reasons, fmt.Sprintf("under class threshold (%d <= %d)", report.ClassCount, cfg.MaxClassesPerFile))
	}
	if cfg.MaxCyclomaticComplexity > 0 {
		reasons = append(reasons, fmt.Sprintf("under cyclomatic threshold (%d <= %d)", report.Cyclomatic, cfg.MaxCyclomaticComplexity))
	}
	if cfg.MaxCognitiveComplexity > 0 {
		reasons = append(reasons, fmt.Sprintf("under cognitive threshold (%d <= %d)", report.Cognitive, cfg.MaxCognitiveComplexity))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no thresholds configured")
	}
	return reasons
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
