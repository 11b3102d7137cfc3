package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ctxgraph/pkg/compile"
	"github.com/fyrsmithlabs/ctxgraph/pkg/estimate"
	"github.com/fyrsmithlabs/ctxgraph/pkg/graph"
	"github.com/fyrsmithlabs/ctxgraph/pkg/policy"
)

var (
	compileProvider string
	compileModel    string
	compileBudgetF  int
	compileCacheTag string
)

var compileCmd = &cobra.Command{
	Use:   "compile [blocks.json]",
	Short: "Compile a block dump into a provider prompt",
	Long: `Compile loads a JSON block dump, materializes a deterministic view,
and prints the provider-native message structure.

Examples:
  # Compile for the configured provider
  ctxgraph compile blocks.json

  # Compile for Gemini from stdin
  cat blocks.json | ctxgraph compile - --provider gemini

  # Mark the last cacheable system block as an Anthropic cache breakpoint
  ctxgraph compile blocks.json --provider anthropic --cache-tag cacheable`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVar(&compileProvider, "provider", "", "target provider (anthropic, openai, gemini)")
	compileCmd.Flags().StringVar(&compileModel, "model", "", "model identifier")
	compileCmd.Flags().IntVar(&compileBudgetF, "max-tokens", 0, "token budget for the view (0 = policy available tokens)")
	compileCmd.Flags().StringVar(&compileCacheTag, "cache-tag", "", "tag selecting the Anthropic cache breakpoint")
}

func runCompile(cmd *cobra.Command, args []string) error {
	g, registry, err := loadGraph(args[0])
	if err != nil {
		return err
	}

	pol := cfg.Policy()
	if compileProvider != "" {
		pol = policy.Default(policy.Provider(compileProvider))
		pol.ModelID = cfg.ModelID
	}
	if compileModel != "" {
		pol.ModelID = compileModel
	}
	if err := pol.Validate(); err != nil {
		return err
	}

	estimator := estimate.NewTiktokenEstimator("", logger.Named("estimate"))
	budget := pol.AvailableTokens()
	if compileBudgetF > 0 {
		budget = compileBudgetF
	}

	view, err := g.CreateView(cmd.Context(), graph.ViewOptions{
		MaxTokens:       &budget,
		Estimator:       estimator,
		ErrorOnOverflow: pol.Overflow == policy.OverflowError,
	})
	if err != nil {
		return fmt.Errorf("creating view: %w", err)
	}

	opts := compile.Options{Estimator: estimator}
	if compileCacheTag != "" {
		opts.CacheBreakpoint = &compile.CacheSelector{Tag: compileCacheTag}
	}

	switch pol.Provider {
	case policy.ProviderAnthropic:
		out, err := compile.Anthropic(cmd.Context(), view, registry, pol, opts)
		if err != nil {
			return err
		}
		return printJSON(out)
	case policy.ProviderOpenAI:
		out, err := compile.OpenAI(cmd.Context(), view, registry, pol, opts)
		if err != nil {
			return err
		}
		return printJSON(out)
	case policy.ProviderGemini:
		out, err := compile.Gemini(cmd.Context(), view, registry, pol, opts)
		if err != nil {
			return err
		}
		return printJSON(out)
	default:
		return fmt.Errorf("unsupported provider %q", pol.Provider)
	}
}
