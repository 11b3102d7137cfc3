// Package attach defines the attachment-resolution capability. Resolving
// an attachment (object-store fetch, OCR, chunking) is an external
// concern; the core consumes the results as derived blocks.
package attach

import (
	"context"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Level selects how much of an attachment to materialize.
type Level string

const (
	// LevelMetadataOnly resolves name, type, and size without content.
	LevelMetadataOnly Level = "metadata_only"
	// LevelExtract resolves extracted text (OCR, parsing).
	LevelExtract Level = "extract"
	// LevelFull resolves the complete content.
	LevelFull Level = "full"
)

// Ref points at an attachment in external storage.
type Ref struct {
	URI       string `json:"uri"`
	MimeType  string `json:"mimeType,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
	SizeBytes int64  `json:"sizeBytes,omitempty"`
}

// Part is one content piece of a resolved attachment.
type Part struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// Resolution is what a resolver returns.
type Resolution struct {
	Meta            map[string]any `json:"meta"`
	Parts           []Part         `json:"parts,omitempty"`
	DerivedBlocks   []block.Block  `json:"derivedBlocks,omitempty"`
	SnapshotHash    string         `json:"snapshotHash"`
	ResolverVersion string         `json:"resolverVersion"`
}

// Resolver materializes attachment references at a given level.
type Resolver interface {
	Resolve(ctx context.Context, ref Ref, level Level) (*Resolution, error)
}
