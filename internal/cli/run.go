package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/pipeline"
)

var (
	outJSON     string
	timeout     time.Duration
	judgeOn     bool
	llmProvider string
	llmModel    string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <input.yaml>",
	Short: "Run one research pass over an input document",
	Long: `Run reads a research input (entity, claims with sources, branch findings,
risk signals) and:
- Classifies and cites every source
- Folds duplicate claims into a versioned ledger
- Cross-checks what the research branches found
- Optionally asks an LLM judge for a second opinion
- Ages, archives and scores the ledger

Example:
  corroborate run acme.yaml
  corroborate run acme.json --json report.json
  corroborate run acme.yaml --judge --llm-provider anthropic`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&outJSON, "json", "", "write the JSON report to this path (default: stdout)")
	runCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall run timeout (judge calls included)")

	// Judge flags
	runCmd.Flags().BoolVar(&judgeOn, "judge", false, "enable the LLM judge overlay")
	runCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, google, ollama)")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

// applyJudgeFlags lets run and batch flags override the loaded configuration
func applyJudgeFlags(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("judge") {
		cfg.Judge.Enabled = judgeOn
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.APIKey = ""
		applyProviderEnv(cfg)
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyJudgeFlags(cmd, cfg)

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	input, err := pipeline.LoadInput(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Entity:   %s\n", input.EntityName)
		fmt.Fprintf(os.Stderr, "Claims:   %d\n", len(input.Claims))
		fmt.Fprintf(os.Stderr, "Branches: %d\n", len(input.Branches))
		fmt.Fprintf(os.Stderr, "Judge:    %v\n\n", cfg.Judge.Enabled)
	}

	report, err := pipeline.NewPipeline(cfg, logger).Run(ctx, input)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printSummary(os.Stderr, report)

	if outJSON == "" {
		return encodeJSON(cmd.OutOrStdout(), report)
	}
	if err := writeJSON(outJSON, report); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
	return nil
}

// printSummary writes the human-readable outcome of one run
func printSummary(w io.Writer, r *model.RunReport) {
	snap := r.Snapshot
	fmt.Fprintf(w, "✓ %s: %d claims (%d merged, %d archived)\n", snap.EntityName, len(snap.Claims), r.Merged, len(r.Archived))
	fmt.Fprintf(w, "✓ Integrity: %s, support index %d/100 (%s confidence)\n", snap.OverallIntegrity, r.SupportIndex, r.Confidence)
	fmt.Fprintf(w, "✓ Cross-check: %d contradictions (%d resolved, %d both valid, %d unresolved), agreement %.0f%%\n",
		r.CrossCheck.Contradictions, r.CrossCheck.Resolved, r.CrossCheck.BothValid, r.CrossCheck.Unresolved,
		r.CrossCheck.OverallAgreement*100)
	if j := r.Judge; j != nil {
		fmt.Fprintf(w, "✓ Judge %s: %d claims reviewed, %d changed, agreement %.0f%%, %d fallbacks\n",
			j.Provider, j.ClaimsEvaluated, j.ClaimsChanged, j.ClaimAgreementRate*100, j.Fallbacks)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "⚠ %d warnings\n", len(r.Warnings))
		if verbose {
			for _, warning := range r.Warnings {
				fmt.Fprintf(w, "  - %s\n", warning)
			}
		}
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// writeJSON writes v as indented JSON to path
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
