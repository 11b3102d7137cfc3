package fork

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
)

// Task describes one sub-agent invocation.
type Task struct {
	// AgentID identifies the invocation; generated when empty.
	AgentID string `json:"agentId,omitempty"`

	// Model is "<provider>:<model>", e.g. "anthropic:claude-sonnet-4".
	Model string `json:"model"`

	// Instruction is the sub-agent prompt.
	Instruction string `json:"instruction"`

	// OutputSchema constrains the executor's structured output.
	OutputSchema map[string]any `json:"outputSchema,omitempty"`

	// ToolsetVersion pins the toolset the sub-agent ran with.
	ToolsetVersion string `json:"toolsetVersion,omitempty"`

	// ForbiddenFields must not appear anywhere in the serialized output.
	ForbiddenFields []string `json:"forbiddenFields,omitempty"`
}

// Usage records executor token consumption.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Artifact is a named by-product of a fork execution.
type Artifact struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType,omitempty"`
	Content   string `json:"content"`
}

// ExecutorResult is what the caller-supplied executor returns.
type ExecutorResult struct {
	Output    map[string]any `json:"output"`
	Summary   string         `json:"summary"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Citations []string       `json:"citations,omitempty"`
	Usage     Usage          `json:"usage"`
}

// Executor runs a prompt against a sensitivity-filtered view. The core
// never executes models itself; this callback is the only path out.
type Executor func(ctx context.Context, instruction string, view *graph.View) (*ExecutorResult, error)

// Provenance fingerprints where a fork result came from.
type Provenance struct {
	SourceViewHash string    `json:"sourceViewHash"`
	ExecutionHash  string    `json:"executionHash"`
	ForkedAt       time.Time `json:"forkedAt"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Result is a validated fork execution outcome.
type Result struct {
	AgentID    string         `json:"agentId"`
	Model      string         `json:"model"`
	Summary    string         `json:"summary"`
	Output     map[string]any `json:"output"`
	Artifacts  []Artifact     `json:"artifacts,omitempty"`
	Citations  []string       `json:"citations,omitempty"`
	Usage      Usage          `json:"usage"`
	Provenance Provenance     `json:"provenance"`
}

// Summarizer is the fork-facing, schema-validated summarization
// capability. It is distinct from the compactor's history summarizer.
// Implementations handed blocks above their sensitivity ceiling return an
// error wrapping ErrSensitivityViolation.
type Summarizer interface {
	Summarize(ctx context.Context, blocks []block.Block, schema map[string]any, opts SummarizeOptions) (*SummaryResult, error)
}

// SummarizeOptions tunes a fork summarization call.
type SummarizeOptions struct {
	TargetTokens   int               `json:"targetTokens,omitempty"`
	MaxSensitivity block.Sensitivity `json:"maxSensitivity,omitempty"`
}

// SummaryResult is what a fork summarizer returns.
type SummaryResult struct {
	Summary    string         `json:"summary"`
	Provenance map[string]any `json:"provenance,omitempty"`
	Usage      Usage          `json:"usage"`
}

// ExecuteFork builds the fork, invokes the executor, validates the output
// against the task schema, and re-checks the serialized output for
// forbidden fields. Validation is fail-closed: a leak or schema mismatch
// discards the result.
func ExecuteFork(ctx context.Context, parent *graph.View, task Task, opts Options, exec Executor, registry *codec.Registry) (*Result, error) {
	if exec == nil {
		return nil, ErrNilExecutor
	}

	forkedAt := time.Now().UTC()
	forkView, err := CreateFork(parent, opts, registry)
	if err != nil {
		return nil, fmt.Errorf("creating fork: %w", err)
	}

	instruction := task.Instruction
	if len(task.ForbiddenFields) > 0 {
		instruction += forbiddenFieldsDirective(task.ForbiddenFields)
	}

	out, err := exec(ctx, instruction, forkView)
	if err != nil {
		return nil, fmt.Errorf("executor: %w", err)
	}

	if err := validateAgainstSchema(normalizeOutput(out.Output), task.OutputSchema, ""); err != nil {
		return nil, err
	}
	if err := checkForbiddenFields(out, task.ForbiddenFields); err != nil {
		return nil, err
	}

	schemaHash, err := SchemaHash(task.OutputSchema)
	if err != nil {
		return nil, fmt.Errorf("hashing schema: %w", err)
	}
	executionHash, err := ExecutionHash(task.Model, forkView.StablePrefixHash, instruction, schemaHash, task.ToolsetVersion)
	if err != nil {
		return nil, fmt.Errorf("hashing execution: %w", err)
	}

	agentID := task.AgentID
	if agentID == "" {
		agentID = uuid.NewString()
	}

	return &Result{
		AgentID:   agentID,
		Model:     task.Model,
		Summary:   out.Summary,
		Output:    out.Output,
		Artifacts: out.Artifacts,
		Citations: out.Citations,
		Usage:     out.Usage,
		Provenance: Provenance{
			SourceViewHash: parent.StablePrefixHash,
			ExecutionHash:  executionHash,
			ForkedAt:       forkedAt,
			CompletedAt:    time.Now().UTC(),
		},
	}, nil
}

// forbiddenFieldsDirective is appended to the instruction so the sub-agent
// is told, not just checked.
func forbiddenFieldsDirective(fields []string) string {
	return fmt.Sprintf("\n\nNever include the following fields in your output: %s.",
		strings.Join(fields, ", "))
}

// checkForbiddenFields scans the serialized output and summary for any
// forbidden substring. Serialization failures fail closed.
func checkForbiddenFields(out *ExecutorResult, forbidden []string) error {
	if len(forbidden) == 0 {
		return nil
	}
	serialized, err := block.MarshalCanonical(out.Output)
	if err != nil {
		return fmt.Errorf("%w: output not serializable: %v", ErrForbiddenFieldLeak, err)
	}
	haystack := string(serialized) + "\n" + out.Summary
	for _, field := range forbidden {
		if strings.Contains(haystack, field) {
			return &ForbiddenFieldLeakError{Field: field}
		}
	}
	return nil
}

// normalizeOutput round-trips executor output so schema checks see the
// same shapes a JSON decode would produce.
func normalizeOutput(output map[string]any) any {
	norm, err := block.Canonicalize(output)
	if err != nil {
		return output
	}
	return norm
}

// IngestOptions configures how a fork result is folded back into a graph.
type IngestOptions struct {
	// Kind of the ingested block; defaults to memory.
	Kind block.Kind

	// Sensitivity of the ingested block; defaults to internal, on the
	// grounds that a sub-agent summary is operational detail, not public
	// context.
	Sensitivity block.Sensitivity
}

// IngestForkResult wraps a fork result as a derivable block and inserts it
// into g with derivation edges pointing at the result's citations.
func IngestForkResult(g *graph.Graph, registry *codec.Registry, res *Result, opts IngestOptions) (block.Block, error) {
	kind := opts.Kind
	if kind == "" {
		kind = block.KindMemory
	}
	sensitivity := opts.Sensitivity
	if sensitivity == "" {
		sensitivity = block.SensitivityInternal
	}

	b, err := registry.NewBlock(block.Meta{
		Kind:        kind,
		Sensitivity: sensitivity,
		CodecID:     codec.IDUnsafeText,
		CreatedAt:   res.Provenance.CompletedAt.Unix(),
		Source:      "fork:" + res.AgentID,
		Tags:        []string{"fork-result", "model:" + res.Model},
	}, map[string]any{
		"text": res.Summary,
		"role": codec.RoleAssistant,
	})
	if err != nil {
		return block.Block{}, err
	}
	if _, err := g.AddBlock(b, res.Citations, nil); err != nil {
		return block.Block{}, err
	}
	return b, nil
}
