package block

import (
	"fmt"
	"slices"
)

// Meta is the full block metadata. Only the stable subset participates in
// hashing; CreatedAt, Source, and Tags are volatile.
type Meta struct {
	Kind         Kind        `json:"kind"`
	Sensitivity  Sensitivity `json:"sensitivity"`
	CodecID      string      `json:"codecId"`
	CodecVersion string      `json:"codecVersion"`
	CreatedAt    int64       `json:"createdAt"`
	Source       string      `json:"source,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
}

// StableMeta is the hashed subset of Meta.
type StableMeta struct {
	Kind         Kind        `json:"kind"`
	Sensitivity  Sensitivity `json:"sensitivity"`
	CodecID      string      `json:"codecId"`
	CodecVersion string      `json:"codecVersion"`
}

// Stable projects the hashed subset out of m.
func (m Meta) Stable() StableMeta {
	return StableMeta{
		Kind:         m.Kind,
		Sensitivity:  m.Sensitivity,
		CodecID:      m.CodecID,
		CodecVersion: m.CodecVersion,
	}
}

// HasTag reports whether m carries the given tag.
func (m Meta) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// Validate checks the metadata fields that hashing depends on.
func (m Meta) Validate() error {
	if !m.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMeta, m.Kind)
	}
	if !m.Sensitivity.Valid() {
		return fmt.Errorf("%w: unknown sensitivity %q", ErrInvalidMeta, m.Sensitivity)
	}
	if m.CodecID == "" {
		return fmt.Errorf("%w: empty codec id", ErrInvalidMeta)
	}
	if m.CodecVersion == "" {
		return fmt.Errorf("%w: empty codec version", ErrInvalidMeta)
	}
	return nil
}

// Block is a content-addressed unit of context. BlockHash is derived from
// the stable metadata and the canonical payload; blocks are value objects
// and two blocks with equal hashes have identical canonical content.
type Block struct {
	BlockHash string         `json:"blockHash"`
	Meta      Meta           `json:"meta"`
	Payload   map[string]any `json:"payload"`
}

// ComputeHash returns the content hash for the given metadata and an
// already-canonicalized payload. Key order in the input has no effect.
func ComputeHash(meta Meta, canonicalPayload any) (string, error) {
	if err := meta.Validate(); err != nil {
		return "", err
	}
	return HashCanonical(map[string]any{
		"meta":    meta.Stable(),
		"payload": canonicalPayload,
	})
}

// New assembles a block from metadata and a canonical payload, computing
// its hash. The payload must already be in canonical form (see the codec
// package); New does not re-canonicalize.
func New(meta Meta, canonicalPayload map[string]any) (Block, error) {
	hash, err := ComputeHash(meta, canonicalPayload)
	if err != nil {
		return Block{}, err
	}
	return Block{BlockHash: hash, Meta: meta, Payload: canonicalPayload}, nil
}

// Clone returns a deep copy of b. The payload is copied through the
// canonicalizer so mutations on the copy never alias the original.
func (b Block) Clone() (Block, error) {
	norm, err := Canonicalize(b.Payload)
	if err != nil {
		return Block{}, err
	}
	payload, _ := norm.(map[string]any)
	dup := b
	dup.Payload = payload
	dup.Meta.Tags = slices.Clone(b.Meta.Tags)
	return dup, nil
}
