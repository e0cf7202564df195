package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/pipeline"
	"github.com/ppiankov/corroborate/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <input>...",
	Short: "Run many input documents in parallel",
	Long: `Batch runs one research pass per input document:
- Each input gets its own ledger; nothing is shared between entities
- Inputs are processed in parallel with a configurable worker count
- Judge calls from every worker share one rate limit per provider
- One JSON report is written per input, named <position>-<entity>.json

Example:
  corroborate batch inputs/*.yaml
  corroborate batch a.yaml b.json --concurrency 4 --output-dir ./reports`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./corroborate-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	batchCmd.Flags().BoolVar(&judgeOn, "judge", false, "enable the LLM judge overlay")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, google, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

// batchResult is the outcome for one input file
type batchResult struct {
	Path   string
	Report *model.RunReport
	Output string
	Err    error
}

func runBatch(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	settings := []any{
		"Inputs", len(args),
		"Workers", concurrency,
		"Output dir", outputDir,
		"Timeout", batchTimeout,
	}
	if cfg.Judge.Enabled {
		settings = append(settings, "Judge", cfg.LLM.Provider+"/"+cfg.LLM.Model)
	}
	banner(os.Stderr, "corroborate batch", settings...)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// One pipeline serves every worker: its judge, limiter and cache are shared
	p := pipeline.NewPipeline(cfg, logger)
	results := processInputs(ctx, p, worker.NewPool(concurrency), args, outputDir, logger)

	successCount, failureCount := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Path, r.Err)
			continue
		}
		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s -> %s (integrity %s, index %d/100)\n",
			r.Report.Snapshot.EntityName, r.Output, r.Report.Snapshot.OverallIntegrity, r.Report.SupportIndex)
	}

	banner(os.Stderr, "Batch Complete",
		"Total", fmt.Sprintf("%d inputs", len(results)),
		"Success", successCount,
		"Failures", failureCount,
		"Output", outputDir)

	if failureCount > 0 {
		return fmt.Errorf("%d of %d inputs failed", failureCount, len(results))
	}
	return nil
}

// batchItem is one input and its position on the command line
type batchItem struct {
	index int
	path  string
}

// processInputs runs every input on the pool and writes one report per input.
// Report names carry the input's position, so two inputs about the same
// entity never write the same file.
func processInputs(ctx context.Context, p *pipeline.Pipeline, pool *worker.Pool, paths []string, dir string, logger *zap.Logger) []batchResult {
	items := make([]batchItem, len(paths))
	for i, path := range paths {
		items[i] = batchItem{index: i, path: path}
	}
	width := len(strconv.Itoa(len(paths)))

	process := func(ctx context.Context, item batchItem) batchResult {
		result := batchResult{Path: item.path}
		input, err := pipeline.LoadInput(item.path)
		if err != nil {
			result.Err = err
			return result
		}
		report, err := p.Run(ctx, input)
		if err != nil {
			result.Err = err
			return result
		}
		result.Report = report
		result.Output = filepath.Join(dir, reportName(item.index, width, input.EntityName))
		if err := writeJSON(result.Output, report); err != nil {
			result.Err = err
		}
		logger.Debug("batch input processed", zap.String("path", item.path), zap.Error(result.Err))
		return result
	}
	skipped := func(item batchItem) batchResult {
		return batchResult{Path: item.path, Err: fmt.Errorf("skipped: %w", context.Cause(ctx))}
	}
	return worker.Map(ctx, pool, items, process, skipped)
}

// reportName is "<position>-<entity>.json" with the position zero-padded to width
func reportName(index, width int, entity string) string {
	return fmt.Sprintf("%0*d-%s.json", width, index+1, sanitizeFilename(entity))
}

const rule = "═══════════════════════════════════════════════════════════"

// banner prints a framed title followed by label/value pairs
func banner(w io.Writer, title string, pairs ...any) {
	fmt.Fprintf(w, "\n%s\n  %s\n%s\n\n", rule, title, rule)
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(w, "  %-12s  %v\n", fmt.Sprint(pairs[i])+":", pairs[i+1])
	}
	fmt.Fprintln(w)
}

const maxFilenameBytes = 100

var filenameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
)

// sanitizeFilename turns an entity name into a safe report file name
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".-_")
	if s == "" {
		s = "entity"
	}
	s = strings.ToLower(s)
	if len(s) > maxFilenameBytes {
		cut := maxFilenameBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
