package codec

import (
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Registry maps codec ids to codecs. It is a plain value, not process
// state: construct one, register custom codecs, and thread it through the
// graph and compilers.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Builtin returns a registry preloaded with the built-in codecs.
func Builtin() *Registry {
	r := NewRegistry()
	for _, c := range builtinCodecs() {
		// Built-in ids are distinct; registration cannot fail.
		if err := r.Register(c); err != nil {
			panic(fmt.Sprintf("codec: builtin registration: %v", err))
		}
	}
	return r
}

// Register adds a codec. Registering an id twice is an error.
func (r *Registry) Register(c Codec) error {
	if _, exists := r.codecs[c.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCodec, c.ID())
	}
	r.codecs[c.ID()] = c
	return nil
}

// Lookup resolves a codec id.
func (r *Registry) Lookup(id string) (Codec, error) {
	c, ok := r.codecs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, id)
	}
	return c, nil
}

// IDs returns the registered codec ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.codecs))
	for id := range r.codecs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewBlock validates and canonicalizes payload with the codec named by
// meta.CodecID, checks the kind is permitted for that codec, fills
// meta.CodecVersion from the codec when empty, and assembles a hashed
// block.
func (r *Registry) NewBlock(meta block.Meta, payload map[string]any) (block.Block, error) {
	c, err := r.Lookup(meta.CodecID)
	if err != nil {
		return block.Block{}, err
	}
	if !kindAllowed(c, meta.Kind) {
		return block.Block{}, fmt.Errorf("%w: codec %s, kind %s", ErrKindMismatch, c.ID(), meta.Kind)
	}
	if meta.CodecVersion == "" {
		meta.CodecVersion = c.Version()
	}
	canonical, err := Canonical(c, payload)
	if err != nil {
		return block.Block{}, err
	}
	return block.New(meta, canonical)
}

// Render resolves b's codec and renders it.
func (r *Registry) Render(b block.Block) (Rendered, error) {
	c, err := r.Lookup(b.Meta.CodecID)
	if err != nil {
		return Rendered{}, err
	}
	return c.Render(b)
}
