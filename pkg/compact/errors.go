package compact

import "errors"

var (
	// ErrUnknownStep indicates a pipeline step name outside the supported
	// set.
	ErrUnknownStep = errors.New("unknown compaction step")

	// ErrSummarizerOutput indicates a summarizer that returned a block
	// violating the provenance or kind requirements.
	ErrSummarizerOutput = errors.New("invalid summarizer output")
)
