package codec

import (
	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Codec validates, canonicalizes, and renders one payload shape.
type Codec interface {
	// ID returns the codec identifier, e.g. "system-rules".
	ID() string

	// Version returns the codec version. Bumping the version changes the
	// hashes of all blocks encoded with the codec.
	Version() string

	// Kinds returns the block kinds this codec may be used with. An empty
	// slice means any kind.
	Kinds() []block.Kind

	// Validate rejects malformed payloads. Missing required fields are an
	// error, never silently coerced.
	Validate(payload map[string]any) error

	// Canonicalize normalizes a validated payload into its canonical JSON
	// value: recursively sorted keys, documented whitespace trimming,
	// defaults substituted for absent optional fields, and volatile fields
	// (such as tool-output durations) dropped.
	Canonicalize(payload map[string]any) (map[string]any, error)

	// Render translates a block into provider message shapes. A provider
	// field left empty means the codec has no rendering for that provider.
	Render(b block.Block) (Rendered, error)
}

// Hash validates and canonicalizes payload with c, then hashes it together
// with meta's stable subset. Two codecs that canonicalize a payload equally
// produce the same hash.
func Hash(c Codec, meta block.Meta, payload map[string]any) (string, error) {
	canonical, err := Canonical(c, payload)
	if err != nil {
		return "", err
	}
	return block.ComputeHash(meta, canonical)
}

// Canonical validates then canonicalizes payload with c.
func Canonical(c Codec, payload map[string]any) (map[string]any, error) {
	if err := c.Validate(payload); err != nil {
		return nil, err
	}
	return c.Canonicalize(payload)
}

// kindAllowed reports whether k is permitted for codec c.
func kindAllowed(c Codec, k block.Kind) bool {
	kinds := c.Kinds()
	if len(kinds) == 0 {
		return true
	}
	for _, allowed := range kinds {
		if allowed == k {
			return true
		}
	}
	return false
}
