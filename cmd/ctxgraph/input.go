package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ctxgraph/pkg/block"
	"github.com/fyrsmithlabs/ctxgraph/pkg/codec"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
)

// blockInput is one entry of a JSON block dump.
type blockInput struct {
	Kind        string         `json:"kind"`
	Sensitivity string         `json:"sensitivity"`
	Codec       string         `json:"codec"`
	Payload     map[string]any `json:"payload"`
	Source      string         `json:"source,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	CreatedAt   int64          `json:"createdAt,omitempty"`
	DerivedFrom []string       `json:"derivedFrom,omitempty"`
	References  []string       `json:"references,omitempty"`
}

// loadGraph reads a block dump from path ("-" for stdin) and assembles a
// graph with the built-in codec registry.
func loadGraph(path string) (*graph.Graph, *codec.Registry, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening block dump: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var inputs []blockInput
	if err := json.NewDecoder(reader).Decode(&inputs); err != nil {
		return nil, nil, fmt.Errorf("decoding block dump: %w", err)
	}

	registry := codec.Builtin()
	g := graph.New(graph.WithLogger(logger.Named("graph")))

	for i, in := range inputs {
		sensitivity := block.Sensitivity(in.Sensitivity)
		if in.Sensitivity == "" {
			sensitivity = block.SensitivityPublic
		}
		b, err := registry.NewBlock(block.Meta{
			Kind:        block.Kind(in.Kind),
			Sensitivity: sensitivity,
			CodecID:     in.Codec,
			CreatedAt:   in.CreatedAt,
			Source:      in.Source,
			Tags:        in.Tags,
		}, in.Payload)
		if err != nil {
			return nil, nil, fmt.Errorf("block %d: %w", i, err)
		}
		if _, err := g.AddBlock(b, in.DerivedFrom, in.References); err != nil {
			return nil, nil, fmt.Errorf("block %d: %w", i, err)
		}
	}

	logger.Debug("block dump loaded",
		zap.String("path", path),
		zap.Int("blocks", g.Stats().BlockCount))
	return g, registry, nil
}

// printJSON writes v to stdout, indented.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
