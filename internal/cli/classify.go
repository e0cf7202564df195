package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/corroborate/internal/citation"
	"github.com/ppiankov/corroborate/internal/classify"
)

var (
	classifyJSON bool
	publishedAt  string
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <url>...",
	Short: "Classify sources into reliability tiers",
	Long: `Classify scores each URL against the configured source rules and prints
its tier, score, confidence and the rules that matched. With several URLs the
tier-weighted aggregate is printed as well.

Example:
  corroborate classify https://www.sec.gov/Archives/edgar/data/1/filing.htm
  corroborate classify https://techcrunch.com/a https://medium.com/b --json
  corroborate classify https://www.reuters.com/x --published 2024-11-02`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "print JSON instead of a table")
	classifyCmd.Flags().StringVar(&publishedAt, "published", "", "publish date applied to every URL (ISO date or epoch millis)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	meta := &classify.Metadata{}
	if publishedAt != "" {
		t, ok := citation.ParseDate(publishedAt)
		if !ok {
			return fmt.Errorf("unparseable --published date %q", publishedAt)
		}
		meta.PublishedAt = &t
	}
	now := time.Now()
	meta.AccessedAt = &now

	classifier := classify.NewClassifier(&cfg.Classifier, logger)
	results := make([]classify.Classification, len(args))
	for i, u := range args {
		results[i] = classifier.Classify(u, meta)
	}

	var agg *classify.Aggregate
	if len(results) > 1 {
		a := classify.AggregateClassifications(results)
		agg = &a
	}

	out := cmd.OutOrStdout()
	if classifyJSON {
		return encodeJSON(out, struct {
			Classifications []classify.Classification `json:"classifications"`
			Aggregate       *classify.Aggregate       `json:"aggregate,omitempty"`
		}{results, agg})
	}
	printClassifications(out, results, agg)
	return nil
}

func printClassifications(w io.Writer, results []classify.Classification, agg *classify.Aggregate) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tTIER\tSCORE\tCONFIDENCE\tRULES")
	for _, r := range results {
		rules := "-"
		if r.Matched() {
			rules = fmt.Sprint(r.MatchedRules)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.2f\t%s\n", r.URL, r.Tier, r.Score, r.Confidence, rules)
	}
	_ = tw.Flush()

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(os.Stderr, "⚠ %s: %s\n", r.URL, r.Error)
		}
	}

	if agg == nil {
		return
	}
	fmt.Fprintf(w, "\nWeighted score %.1f, primary sources %.0f%%, unverified %.0f%%, mean confidence %.2f\n",
		agg.WeightedScore, agg.PrimarySourceRatio*100, agg.UnverifiedRatio*100, agg.MeanConfidence)
	for _, c := range agg.Concerns {
		fmt.Fprintf(w, "  - %s\n", c)
	}
}
