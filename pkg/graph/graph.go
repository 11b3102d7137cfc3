package graph

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
)

// Graph is the content-addressed block store with derivation and reference
// edges.
type Graph struct {
	mu          sync.RWMutex
	blocks      map[string]block.Block
	derivedFrom map[string][]string
	references  map[string][]string

	logger  *zap.Logger
	metrics *Metrics
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger attaches a logger; nil keeps the graph silent.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics attaches OTEL metrics.
func WithMetrics(m *Metrics) Option {
	return func(g *Graph) { g.metrics = m }
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		blocks:      make(map[string]block.Block),
		derivedFrom: make(map[string][]string),
		references:  make(map[string][]string),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BlockRef names a derivation parent. Missing is set when the parent was
// removed from the graph after the edge was recorded.
type BlockRef struct {
	Hash    string     `json:"hash"`
	Kind    block.Kind `json:"kind,omitempty"`
	Missing bool       `json:"missing,omitempty"`
}

// Stats summarizes graph size.
type Stats struct {
	BlockCount          int `json:"blockCount"`
	DerivationEdgeCount int `json:"derivationEdgeCount"`
	ReferenceEdgeCount  int `json:"referenceEdgeCount"`
}

// AddBlock inserts b with optional derivation parents and references.
// Insertion is idempotent on the block hash: re-adding an existing block is
// a no-op and the edges recorded on first add win. Returns true when the
// block was newly inserted.
func (g *Graph) AddBlock(b block.Block, derivedFrom, references []string) (bool, error) {
	if b.BlockHash == "" {
		return false, ErrUnhashedBlock
	}
	if err := b.Meta.Validate(); err != nil {
		return false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.blocks[b.BlockHash]; exists {
		return false, nil
	}
	g.blocks[b.BlockHash] = b
	if len(derivedFrom) > 0 {
		g.derivedFrom[b.BlockHash] = slices.Clone(derivedFrom)
	}
	if len(references) > 0 {
		g.references[b.BlockHash] = dedupeStrings(references)
	}

	g.logger.Debug("block added",
		zap.String("hash", b.BlockHash),
		zap.String("kind", string(b.Meta.Kind)),
		zap.Int("derived_from", len(derivedFrom)),
		zap.Int("references", len(references)))
	g.metrics.recordBlockAdded(context.Background(), b.Meta.Kind)
	return true, nil
}

// RemoveBlock deletes the block and its outgoing edges. Inbound references
// recorded on other blocks are left dangling; queries tolerate them.
func (g *Graph) RemoveBlock(hash string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.blocks[hash]; !exists {
		return false
	}
	delete(g.blocks, hash)
	delete(g.derivedFrom, hash)
	delete(g.references, hash)

	g.logger.Debug("block removed", zap.String("hash", hash))
	g.metrics.recordBlockRemoved(context.Background())
	return true
}

// GetBlock looks a block up by hash.
func (g *Graph) GetBlock(hash string) (block.Block, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.blocks[hash]
	return b, ok
}

// GetDerivedFrom returns the derivation parents of hash, empty if none.
func (g *Graph) GetDerivedFrom(hash string) []BlockRef {
	g.mu.RLock()
	defer g.mu.RUnlock()

	parents := g.derivedFrom[hash]
	refs := make([]BlockRef, 0, len(parents))
	for _, parent := range parents {
		ref := BlockRef{Hash: parent}
		if b, ok := g.blocks[parent]; ok {
			ref.Kind = b.Meta.Kind
		} else {
			ref.Missing = true
		}
		refs = append(refs, ref)
	}
	return refs
}

// GetReferences returns the hashes cited by hash, empty if none.
func (g *Graph) GetReferences(hash string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.references[hash])
}

// Select returns the blocks matching q in unspecified order. Callers that
// need ordering use CreateView.
func (g *Graph) Select(q Query) []block.Block {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []block.Block
	for _, b := range g.blocks {
		if g.matches(b, q) {
			out = append(out, b)
		}
	}
	return out
}

// Stats reports graph size.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Stats{BlockCount: len(g.blocks)}
	for _, parents := range g.derivedFrom {
		s.DerivationEdgeCount += len(parents)
	}
	for _, cited := range g.references {
		s.ReferenceEdgeCount += len(cited)
	}
	return s
}

func dedupeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
