package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/caselaw/internal/connectors/filesystem"
	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/logger"
	"github.com/custodia-labs/caselaw/internal/normalisers"
)

var (
	ingestTopic      string
	ingestSize       int
	ingestOverlap    int
	ingestUnit       string
	ingestExclude    []string
	ingestExtensions []string
	ingestWatch      bool
	ingestNoProgress bool
	ingestJSON       bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Add case files to the corpus",
	Long: `Normalises, chunks and embeds case files, then stores the chunks for
retrieval. Arguments may be files, directories (walked recursively) or
doublestar patterns such as "cases/**/*.pdf".

Re-ingesting a file replaces its chunks. With --watch the command keeps
running and re-ingests files as they change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTopic, "topic", "", "legal topic label for every ingested case")
	ingestCmd.Flags().IntVar(&ingestSize, "size", 0, "chunk size in units (default from config)")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", 0, "chunk overlap in units (default from config)")
	ingestCmd.Flags().StringVar(&ingestUnit, "unit", "", "chunk unit: characters, words or sentences")
	ingestCmd.Flags().StringSliceVar(&ingestExclude, "exclude", nil, "skip paths matching these patterns")
	ingestCmd.Flags().StringSliceVar(&ingestExtensions, "ext", nil, "only ingest these file extensions")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching directories for changes")
	ingestCmd.Flags().BoolVar(&ingestNoProgress, "no-progress", false, "hide the progress bar")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(ingestCmd)
}

// ingestReport summarises an ingest run.
type ingestReport struct {
	Documents int            `json:"documents"`
	Chunks    int            `json:"chunks"`
	Failed    []ingestFailed `json:"failed,omitempty"`
}

type ingestFailed struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if normaliser == nil {
		return errors.New("normaliser not configured")
	}

	opts, err := ingestOptions(cmd)
	if err != nil {
		return err
	}
	if ingestTopic != "" && !domain.IsLegalTopic(ingestTopic) {
		logger.Warn("Topic %q is not one of the standard legal topics", ingestTopic)
	}

	loader := newLoader()
	files, err := loader.Collect(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	report := ingestFiles(ctx, cmd.ErrOrStderr(), loader, files, opts)

	if ingestJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printIngestReport(cmd, report)
	}

	if ingestWatch {
		return watchCorpus(ctx, cmd, loader, args, opts)
	}
	if len(report.Failed) > 0 && report.Documents == 0 {
		return fmt.Errorf("no documents ingested: %s", report.Failed[0].Error)
	}
	return nil
}

func newLoader() *filesystem.Loader {
	var opts []filesystem.Option
	if len(ingestExtensions) > 0 {
		opts = append(opts, filesystem.WithExtensions(ingestExtensions...))
	}
	if len(ingestExclude) > 0 {
		opts = append(opts, filesystem.WithExcludes(ingestExclude...))
	}
	return filesystem.New(opts...)
}

// ingestOptions starts from the configured chunking and applies flags the
// user set explicitly.
func ingestOptions(cmd *cobra.Command) (domain.ChunkOptions, error) {
	opts := domain.DefaultSettings().Chunking.Options()
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return opts, err
		}
		opts = settings.Chunking.Options()
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		opts.Size = ingestSize
	}
	if flags.Changed("overlap") {
		opts.Overlap = ingestOverlap
	}
	if flags.Changed("unit") {
		opts.Unit = domain.ChunkUnit(ingestUnit)
	}
	return opts, opts.Validate()
}

func ingestFiles(
	ctx context.Context, stderr io.Writer, loader *filesystem.Loader, files []string, opts domain.ChunkOptions,
) ingestReport {
	var report ingestReport
	var bar *progressbar.ProgressBar
	if !ingestNoProgress && len(files) > 1 && !logger.IsVerbose() {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, path := range files {
		if ctx.Err() != nil {
			report.Failed = append(report.Failed, ingestFailed{Path: path, Error: ctx.Err().Error()})
			continue
		}
		n, err := ingestFile(ctx, loader, path, opts)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			report.Failed = append(report.Failed, ingestFailed{Path: path, Error: err.Error()})
		} else {
			report.Documents++
			report.Chunks += n
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return report
}

// ingestFile normalises and ingests one file, returning its chunk count.
func ingestFile(ctx context.Context, loader *filesystem.Loader, path string, opts domain.ChunkOptions) (int, error) {
	raw, err := loader.Read(path)
	if err != nil {
		return 0, err
	}
	if ingestTopic != "" {
		raw.Metadata[normalisers.MetaTopic] = ingestTopic
	}

	result, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return 0, err
	}

	ids, err := ingestService.ProcessDocument(ctx, result.Document, opts)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func printIngestReport(cmd *cobra.Command, report ingestReport) {
	cmd.Printf("Ingested %d document(s), %d chunk(s)\n", report.Documents, report.Chunks)
	if len(report.Failed) == 0 {
		return
	}
	cmd.Printf("Failed %d file(s):\n", len(report.Failed))
	for _, f := range report.Failed {
		cmd.Printf("  %s: %s\n", f.Path, f.Error)
	}
}

// watchCorpus re-ingests changed files until ctx is cancelled.
func watchCorpus(ctx context.Context, cmd *cobra.Command, loader *filesystem.Loader, args []string, opts domain.ChunkOptions) error {
	roots := watchRoots(args)
	if len(roots) == 0 {
		return errors.New("--watch needs at least one directory argument")
	}

	w := filesystem.NewWatcher(loader)
	defer w.Close()

	changes, err := w.Watch(ctx, roots)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %d director(ies). Press Ctrl+C to stop.\n", len(roots))

	for change := range changes {
		switch change.Type {
		case filesystem.ChangeDeleted:
			id := (&domain.RawDocument{URI: change.Path}).BaseName()
			if err := ingestService.RemoveDocument(ctx, id); err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					logger.Warn("Removing %s: %v", id, err)
				}
				continue
			}
			cmd.Printf("Removed %s\n", id)
		default:
			n, err := ingestFile(ctx, loader, change.Path, opts)
			if err != nil {
				logger.Warn("Re-ingesting %s: %v", change.Path, err)
				continue
			}
			cmd.Printf("Ingested %s (%s, %d chunks)\n", change.Path, change.Type, n)
		}
	}
	return nil
}

// watchRoots keeps the directory arguments.
func watchRoots(args []string) []string {
	var roots []string
	for _, arg := range args {
		path := filesystem.LocalPath(arg)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			roots = append(roots, path)
		}
	}
	return roots
}
