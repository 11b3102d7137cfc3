package compact

import (
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// dedupe keeps the first occurrence of each block hash. Removing exact
// duplicates loses nothing.
func dedupe(blocks []block.Block) stepOutcome {
	seen := make(map[string]struct{}, len(blocks))
	outcome := stepOutcome{lossy: false}
	for _, b := range blocks {
		if _, dup := seen[b.BlockHash]; dup {
			outcome.removed = append(outcome.removed, b)
			continue
		}
		seen[b.BlockHash] = struct{}{}
		outcome.blocks = append(outcome.blocks, b)
	}
	outcome.description = fmt.Sprintf("removed %d duplicate blocks", len(outcome.removed))
	return outcome
}

// pruneToolOutputs partitions tool_output blocks by codec id (the tool
// identity), keeps the newest MaxOutputsPerTool per partition, and
// tail-truncates kept string outputs that run long.
func (c *Compactor) pruneToolOutputs(blocks []block.Block, cfg Config) (stepOutcome, error) {
	// Partition tool outputs by tool identity, newest last.
	partitions := make(map[string][]block.Block)
	for _, b := range blocks {
		if b.Meta.Kind == block.KindToolOutput {
			partitions[b.Meta.CodecID] = append(partitions[b.Meta.CodecID], b)
		}
	}

	removedHashes := make(map[string]struct{})
	for _, partition := range partitions {
		sort.SliceStable(partition, func(i, j int) bool {
			return partition[i].Meta.CreatedAt < partition[j].Meta.CreatedAt
		})
		if excess := len(partition) - cfg.MaxOutputsPerTool; excess > 0 {
			for _, b := range partition[:excess] {
				removedHashes[b.BlockHash] = struct{}{}
			}
		}
	}

	outcome := stepOutcome{derivations: make(map[string][]string)}
	for _, b := range blocks {
		if _, drop := removedHashes[b.BlockHash]; drop {
			outcome.removed = append(outcome.removed, b)
			continue
		}
		if b.Meta.Kind != block.KindToolOutput {
			outcome.blocks = append(outcome.blocks, b)
			continue
		}

		kept, replaced, err := c.truncateOutputTail(b, cfg)
		if err != nil {
			return stepOutcome{}, err
		}
		if replaced {
			outcome.replaced++
			outcome.derivations[kept.BlockHash] = []string{b.BlockHash}
		}
		outcome.blocks = append(outcome.blocks, kept)
	}

	outcome.lossy = len(outcome.removed) > 0 || outcome.replaced > 0
	outcome.description = fmt.Sprintf("pruned %d tool outputs, truncated %d tails",
		len(outcome.removed), outcome.replaced)
	return outcome, nil
}

// truncateOutputTail replaces a long, non-error string output with its
// tail, marked as truncated. Error outputs are preserved whole unless
// TruncateErrorTails is set.
func (c *Compactor) truncateOutputTail(b block.Block, cfg Config) (block.Block, bool, error) {
	output, isString := b.Payload["output"].(string)
	if !isString || len(output) <= cfg.MaxRawTailChars {
		return b, false, nil
	}
	if isErrorOutput(b.Payload) && !cfg.TruncateErrorTails {
		return b, false, nil
	}

	dropped := len(output) - cfg.MaxRawTailChars
	payload := make(map[string]any, len(b.Payload)+1)
	for k, v := range b.Payload {
		payload[k] = v
	}
	payload["output"] = fmt.Sprintf("... [truncated %d chars] ...\n%s",
		dropped, output[len(output)-cfg.MaxRawTailChars:])
	payload["_truncated"] = true

	successor, err := c.successor(b, payload, StepToolOutputPrune)
	if err != nil {
		return block.Block{}, false, err
	}
	return successor, true, nil
}

// isErrorOutput detects failed tool invocations: a truthy error field or
// an explicit error status on the payload.
func isErrorOutput(payload map[string]any) bool {
	if truthy(payload["error"]) {
		return true
	}
	status, _ := payload["status"].(string)
	return status == "error"
}

// trimHistory keeps the most recent KeepRecentMessages history blocks and,
// when configured, older blocks whose messages record errors. Non-history
// blocks pass through untouched.
func trimHistory(blocks []block.Block, cfg Config) stepOutcome {
	history := make([]block.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Meta.Kind == block.KindHistory {
			history = append(history, b)
		}
	}
	if len(history) <= cfg.KeepRecentMessages {
		return stepOutcome{
			blocks:      blocks,
			description: "history within limit, nothing trimmed",
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Meta.CreatedAt < history[j].Meta.CreatedAt
	})
	cutoff := len(history) - cfg.KeepRecentMessages
	removedHashes := make(map[string]struct{})
	for _, b := range history[:cutoff] {
		if cfg.KeepErrorMessages && historyHasError(b) {
			continue
		}
		removedHashes[b.BlockHash] = struct{}{}
	}

	outcome := stepOutcome{}
	for _, b := range blocks {
		if _, drop := removedHashes[b.BlockHash]; drop {
			outcome.removed = append(outcome.removed, b)
			continue
		}
		outcome.blocks = append(outcome.blocks, b)
	}
	outcome.lossy = len(outcome.removed) > 0
	outcome.description = fmt.Sprintf("trimmed %d history blocks", len(outcome.removed))
	return outcome
}

// historyHasError inspects a history block's messages for a truthy error
// field.
func historyHasError(b block.Block) bool {
	messages, _ := b.Payload["messages"].([]any)
	for _, raw := range messages {
		msg, _ := raw.(map[string]any)
		if msg != nil && truthy(msg["error"]) {
			return true
		}
	}
	return false
}
