// Package compact reduces a view to a smaller block list through an
// ordered pipeline of steps: dedupe, tool-output pruning, history trimming,
// and history summarization.
//
// Compaction is lossy but traced. Every successor block it produces obeys
// the provenance law: the source gains a ":compacted" suffix, the tags gain
// "compacted:<step>", and the hash is recomputed from the new payload
// (hashes are content-addressed, never preserved). The input graph and view
// are never mutated; a failed compaction returns an error and the caller
// keeps the original blocks.
package compact
