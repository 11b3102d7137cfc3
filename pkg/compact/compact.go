package compact

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
	"github.com/fyrsmithlabs/ctxgraph/pkg/estimate"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
)

// Step names one compaction pipeline stage.
type Step string

const (
	StepDedupe           Step = "dedupe"
	StepToolOutputPrune  Step = "tool_output_prune"
	StepHistoryTrim      Step = "history_trim"
	StepSummarizeHistory Step = "summarize_history"
)

// Valid reports whether s is a supported step.
func (s Step) Valid() bool {
	switch s {
	case StepDedupe, StepToolOutputPrune, StepHistoryTrim, StepSummarizeHistory:
		return true
	}
	return false
}

// HistorySummarizer condenses a run of history blocks into one successor
// block of kind history. It is a distinct capability from the fork-facing
// schema-validated summarizer.
type HistorySummarizer interface {
	Summarize(ctx context.Context, blocks []block.Block, targetTokens int) (block.Block, error)
}

// Defaults for the pipeline knobs.
const (
	DefaultMaxOutputsPerTool  = 3
	DefaultMaxRawTailChars    = 500
	DefaultKeepRecentMessages = 20
	DefaultMinMessages        = 12

	// retainRecentHistory is how many history blocks summarize_history
	// always keeps verbatim.
	retainRecentHistory = 10

	// summaryTargetRatio sizes the summary at 30% of the prefix estimate.
	summaryTargetRatio = 0.3
)

// Config is the pipeline configuration. Zero values select the defaults.
type Config struct {
	// Steps run in the listed order.
	Steps []Step

	// MaxOutputsPerTool bounds tool_output blocks kept per tool identity
	// (codec id) by tool_output_prune.
	MaxOutputsPerTool int

	// MaxRawTailChars bounds the raw tail kept when a long string output
	// is truncated.
	MaxRawTailChars int

	// TruncateErrorTails subjects error outputs to the same tail
	// truncation as successes. By default error tails are preserved whole.
	TruncateErrorTails bool

	// KeepRecentMessages is how many history blocks history_trim retains.
	KeepRecentMessages int

	// KeepErrorMessages additionally retains older history blocks whose
	// messages carry a truthy error field. Truthiness: nil, false, and the
	// empty string are falsy; every other value counts.
	KeepErrorMessages bool

	// MinMessages is the minimum history block count before
	// summarize_history engages.
	MinMessages int
}

func (c Config) withDefaults() Config {
	if c.MaxOutputsPerTool <= 0 {
		c.MaxOutputsPerTool = DefaultMaxOutputsPerTool
	}
	if c.MaxRawTailChars <= 0 {
		c.MaxRawTailChars = DefaultMaxRawTailChars
	}
	if c.KeepRecentMessages <= 0 {
		c.KeepRecentMessages = DefaultKeepRecentMessages
	}
	if c.MinMessages <= 0 {
		c.MinMessages = DefaultMinMessages
	}
	return c
}

// StepReport describes one executed step.
type StepReport struct {
	Step           Step   `json:"step"`
	BlocksRemoved  int    `json:"blocksRemoved"`
	BlocksReplaced int    `json:"blocksReplaced"`
	TokensSaved    int    `json:"tokensSaved"`
	Lossy          bool   `json:"lossy"`
	Description    string `json:"description"`
}

// Report aggregates the pipeline outcome. Token figures are re-estimates
// of the pre- and post-pipeline block lists with the compactor's estimator.
type Report struct {
	BeforeTokens int          `json:"beforeTokens"`
	AfterTokens  int          `json:"afterTokens"`
	SavedTokens  int          `json:"savedTokens"`
	StepsApplied []Step       `json:"stepsApplied"`
	StepReports  []StepReport `json:"stepReports"`
}

// Result is the compaction outcome: the surviving block list, the blocks
// that were removed, and the derivation edges (successor hash to parent
// hashes) for callers that insert successors into a graph.
type Result struct {
	Blocks        []block.Block       `json:"blocks"`
	RemovedBlocks []block.Block       `json:"removedBlocks"`
	Derivations   map[string][]string `json:"derivations,omitempty"`
	Report        Report              `json:"report"`
}

// Compactor runs compaction pipelines over views.
type Compactor struct {
	registry   *codec.Registry
	estimator  estimate.Estimator
	summarizer HistorySummarizer
	logger     *zap.Logger
	metrics    *Metrics
}

// Option configures a Compactor.
type Option func(*Compactor)

// WithEstimator overrides the token estimator used for report accounting.
func WithEstimator(e estimate.Estimator) Option {
	return func(c *Compactor) {
		if e != nil {
			c.estimator = e
		}
	}
}

// WithSummarizer enables the summarize_history step.
func WithSummarizer(s HistorySummarizer) Option {
	return func(c *Compactor) { c.summarizer = s }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compactor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches OTEL metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Compactor) { c.metrics = m }
}

// New returns a compactor resolving codecs from registry. The report
// estimator defaults to the heuristic, the cheapest available.
func New(registry *codec.Registry, opts ...Option) *Compactor {
	c := &Compactor{
		registry:  registry,
		estimator: estimate.NewHeuristicEstimator(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// stepOutcome is what each step implementation returns.
type stepOutcome struct {
	blocks      []block.Block
	removed     []block.Block
	replaced    int
	derivations map[string][]string
	lossy       bool
	description string
}

// Compact runs the configured pipeline over the view's blocks. The view is
// not mutated; the result is fresh. A step failure aborts the whole run
// with an error and no partial result.
func (c *Compactor) Compact(ctx context.Context, view *graph.View, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	for _, step := range cfg.Steps {
		if !step.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
		}
	}

	before, err := c.estimator.Estimate(ctx, view.Blocks)
	if err != nil {
		return nil, fmt.Errorf("estimating input: %w", err)
	}

	current := make([]block.Block, len(view.Blocks))
	copy(current, view.Blocks)

	result := &Result{
		Derivations: make(map[string][]string),
		Report:      Report{BeforeTokens: before.Tokens},
	}

	for _, step := range cfg.Steps {
		stepBefore, err := c.estimator.Estimate(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step, err)
		}

		var outcome stepOutcome
		switch step {
		case StepDedupe:
			outcome = dedupe(current)
		case StepToolOutputPrune:
			outcome, err = c.pruneToolOutputs(current, cfg)
		case StepHistoryTrim:
			outcome = trimHistory(current, cfg)
		case StepSummarizeHistory:
			outcome, err = c.summarizeHistory(ctx, current, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step, err)
		}

		stepAfter, err := c.estimator.Estimate(ctx, outcome.blocks)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step, err)
		}

		current = outcome.blocks
		result.RemovedBlocks = append(result.RemovedBlocks, outcome.removed...)
		for successor, parents := range outcome.derivations {
			result.Derivations[successor] = parents
		}
		result.Report.StepsApplied = append(result.Report.StepsApplied, step)
		result.Report.StepReports = append(result.Report.StepReports, StepReport{
			Step:           step,
			BlocksRemoved:  len(outcome.removed),
			BlocksReplaced: outcome.replaced,
			TokensSaved:    stepBefore.Tokens - stepAfter.Tokens,
			Lossy:          outcome.lossy,
			Description:    outcome.description,
		})

		c.logger.Debug("compaction step applied",
			zap.String("step", string(step)),
			zap.Int("removed", len(outcome.removed)),
			zap.Int("replaced", outcome.replaced),
			zap.Bool("lossy", outcome.lossy))
	}

	after, err := c.estimator.Estimate(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("estimating output: %w", err)
	}

	result.Blocks = current
	result.Report.AfterTokens = after.Tokens
	result.Report.SavedTokens = before.Tokens - after.Tokens
	c.metrics.recordRun(ctx, len(cfg.Steps), result.Report.SavedTokens)
	return result, nil
}

// successor rebuilds a compactor-produced block with the provenance the
// law requires: suffixed source, step tag, recomputed hash.
func (c *Compactor) successor(original block.Block, payload map[string]any, step Step) (block.Block, error) {
	meta := original.Meta
	meta.Source = compactedSource(meta.Source)
	meta.Tags = appendTag(meta.Tags, "compacted:"+string(step))

	if codecImpl, err := c.registry.Lookup(meta.CodecID); err == nil {
		canonical, cerr := codecImpl.Canonicalize(payload)
		if cerr != nil {
			return block.Block{}, cerr
		}
		return block.New(meta, canonical)
	}

	// Unregistered codec: hash the payload generically.
	norm, err := block.Canonicalize(payload)
	if err != nil {
		return block.Block{}, err
	}
	canonical, _ := norm.(map[string]any)
	return block.New(meta, canonical)
}

func compactedSource(source string) string {
	const suffix = ":compacted"
	if source == "" {
		return "unknown" + suffix
	}
	if len(source) >= len(suffix) && source[len(source)-len(suffix):] == suffix {
		return source
	}
	return source + suffix
}

func appendTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags)+1)
	out = append(out, tags...)
	for _, t := range out {
		if t == tag {
			return out
		}
	}
	return append(out, tag)
}

// truthy implements the documented error-field rule: nil, false, and the
// empty string are falsy; every other value counts as an error marker.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	default:
		return true
	}
}
