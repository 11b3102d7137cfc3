package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ctxgraph/pkg/compact"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
)

var compactSteps string

var compactCmd = &cobra.Command{
	Use:   "compact [blocks.json]",
	Short: "Run a compaction pipeline over a block dump",
	Long: `Compact loads a block dump, runs the requested pipeline steps, and
prints the surviving blocks with the per-step report.

Examples:
  ctxgraph compact blocks.json --steps dedupe,tool_output_prune
  ctxgraph compact blocks.json --steps dedupe,history_trim`,
	Args: cobra.ExactArgs(1),
	RunE: runCompact,
}

func init() {
	compactCmd.Flags().StringVar(&compactSteps, "steps", "dedupe,tool_output_prune,history_trim",
		"comma-separated pipeline steps")
}

func runCompact(cmd *cobra.Command, args []string) error {
	g, registry, err := loadGraph(args[0])
	if err != nil {
		return err
	}

	view, err := g.CreateView(cmd.Context(), graph.ViewOptions{})
	if err != nil {
		return fmt.Errorf("creating view: %w", err)
	}

	var steps []compact.Step
	for _, s := range strings.Split(compactSteps, ",") {
		steps = append(steps, compact.Step(strings.TrimSpace(s)))
	}

	compactor := compact.New(registry, compact.WithLogger(logger.Named("compact")))
	result, err := compactor.Compact(cmd.Context(), view, compact.Config{
		Steps:              steps,
		MaxOutputsPerTool:  cfg.Compaction.MaxOutputsPerTool,
		MaxRawTailChars:    cfg.Compaction.MaxRawTailChars,
		TruncateErrorTails: !cfg.Compaction.PreserveErrorTail,
		KeepRecentMessages: cfg.Compaction.KeepRecentMessages,
		KeepErrorMessages:  cfg.Compaction.KeepErrorMessages,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}
