package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ctxgraph/pkg/estimate"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [blocks.json]",
	Short: "Show graph stats and the deterministic view order",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

type inspectEntry struct {
	Index       int    `json:"index"`
	BlockHash   string `json:"blockHash"`
	Kind        string `json:"kind"`
	Sensitivity string `json:"sensitivity"`
	Codec       string `json:"codec"`
	Tokens      int    `json:"tokens"`
}

type inspectOutput struct {
	Stats            graph.Stats       `json:"stats"`
	StablePrefixHash string            `json:"stablePrefixHash"`
	TokenEstimate    estimate.Estimate `json:"tokenEstimate"`
	Blocks           []inspectEntry    `json:"blocks"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	g, _, err := loadGraph(args[0])
	if err != nil {
		return err
	}

	estimator := estimate.NewHeuristicEstimator()
	view, err := g.CreateView(cmd.Context(), graph.ViewOptions{Estimator: estimator})
	if err != nil {
		return fmt.Errorf("creating view: %w", err)
	}

	out := inspectOutput{
		Stats:            g.Stats(),
		StablePrefixHash: view.StablePrefixHash,
	}
	if view.TokenEstimate != nil {
		out.TokenEstimate = *view.TokenEstimate
	}
	for i, b := range view.Blocks {
		est, err := estimator.EstimateBlock(cmd.Context(), b)
		if err != nil {
			return err
		}
		out.Blocks = append(out.Blocks, inspectEntry{
			Index:       i,
			BlockHash:   b.BlockHash,
			Kind:        string(b.Meta.Kind),
			Sensitivity: string(b.Meta.Sensitivity),
			Codec:       b.Meta.CodecID,
			Tokens:      est.Tokens,
		})
	}
	return printJSON(out)
}
