package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/corroborate/internal/classify"
	"github.com/ppiankov/corroborate/internal/crosscheck"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/pipeline"
)

var crosscheckJSON bool

// crosscheckCmd represents the crosscheck command
var crosscheckCmd = &cobra.Command{
	Use:   "crosscheck <branches.yaml>",
	Short: "Compare research branch findings",
	Long: `Crosscheck compares every pair of research branches on the fields they share
and explains how each disagreement was resolved.

The file may hold a bare list of branch findings or a full run input, in
which case its branches are used.

Example:
  corroborate crosscheck branches.yaml
  corroborate crosscheck acme.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCrosscheck,
}

func init() {
	rootCmd.AddCommand(crosscheckCmd)

	crosscheckCmd.Flags().BoolVar(&crosscheckJSON, "json", false, "print the suite as JSON")
}

func runCrosscheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	branches, err := pipeline.LoadBranches(args[0])
	if err != nil {
		return err
	}
	if len(branches) < 2 {
		return fmt.Errorf("need at least two branches to compare, got %d", len(branches))
	}

	checker := crosscheck.New(&cfg.CrossCheck, classify.NewClassifier(&cfg.Classifier, logger))
	suite := checker.CheckAll(branches)

	if crosscheckJSON {
		return encodeJSON(cmd.OutOrStdout(), suite)
	}
	printSuite(cmd.OutOrStdout(), suite)
	return nil
}

func printSuite(w io.Writer, suite model.CrossCheckSuite) {
	for _, r := range suite.Results {
		fmt.Fprintf(w, "%s vs %s: %d agree, %d disagree (%.0f%%)\n",
			r.BranchA, r.BranchB, len(r.Agreements), len(r.Disagreements), r.OverallAgreement*100)
		for _, d := range r.Disagreements {
			fmt.Fprintf(w, "  ✗ %s: %v vs %v -> %s\n    %s\n", d.Field, d.ValueA, d.ValueB, d.Resolution, d.ResolutionReason)
		}
	}
	fmt.Fprintf(w, "\nOverall agreement %.0f%%: %d contradictions, %d resolved, %d both valid, %d unresolved\n",
		suite.OverallAgreement*100, suite.Contradictions, suite.Resolved, suite.BothValid, suite.Unresolved)
}
