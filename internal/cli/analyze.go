package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Antonpb/alfaapp/internal/artifacts"
	"github.com/Antonpb/alfaapp/internal/config"
	"github.com/Antonpb/alfaapp/internal/files"
	"github.com/Antonpb/alfaapp/internal/infrastructure"
	"github.com/Antonpb/alfaapp/internal/services"
	"github.com/Antonpb/alfaapp/internal/validation"
	"github.com/Antonpb/alfaapp/pkg/contracts/domain"
)

var (
	// ErrMissingColumns is returned when the file does not match the selected schema
	ErrMissingColumns = errors.New("missing columns")
	// ErrOutputExists is returned when an artifact would overwrite a file without --force
	ErrOutputExists = errors.New("output file already exists")
)

type analyzeOptions struct {
	Kind          string
	SchemaVersion string
	PlotStyle     string
	Sheet         string
	Title         string
	MapNote       string
	OutDir        string
	Force         bool
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyse one .xlsx or .csv export and write its artifacts",
	Long: `Analyze runs a single analysis without the web server. The plot, the
map, the enriched CSV and, when --title is given, the PDF report are written
to the output directory. Existing files are only replaced with --force.

Example:
  alfaapp analyze handler.xlsx --kind resights
  alfaapp analyze leje.csv --kind redata --plot-style histogram --out ./ud
  alfaapp analyze handler.xlsx --kind transactions --title "Salgspriser 2024"`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeOpts.Kind, "kind", "", "data source: transactions (Resights) or rent_levels (ReData)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.SchemaVersion, "schema-version", "", "schema version (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.PlotStyle, "plot-style", "", "plot style for rent levels: trend or histogram")
	analyzeCmd.Flags().StringVar(&analyzeOpts.Sheet, "sheet", "", "worksheet to read (default: first sheet)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.Title, "title", "", "report title; a PDF report is written when set")
	analyzeCmd.Flags().StringVar(&analyzeOpts.MapNote, "map-note", "", "text placed in the report's map section")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.OutDir, "out", "o", ".", "output directory")
	analyzeCmd.Flags().BoolVarP(&analyzeOpts.Force, "force", "f", false, "overwrite existing files in the output directory")
	_ = analyzeCmd.MarkFlagRequired("kind")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	ctx := infrastructure.EnsureTraceID(cmd.Context())

	return analyzeFile(ctx, cfg, logger, args[0], analyzeOpts, cmd.OutOrStdout())
}

// analyzeFile analyses path and writes the downloadable artifacts to
// opts.OutDir. A schema mismatch yields ErrMissingColumns.
func analyzeFile(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string, opts analyzeOptions, out io.Writer) error {
	kind, err := domain.ParseSourceKind(opts.Kind)
	if err != nil {
		return err
	}
	style, err := domain.ParsePlotStyle(opts.PlotStyle)
	if err != nil {
		return err
	}
	if opts.Sheet != "" {
		cfg.Analysis.Sheet = opts.Sheet
	}

	validator := validation.NewFileValidator(logger, cfg.Analysis.MaxUploadBytes)
	if _, err := validator.ValidateInputFile(path); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(opts.OutDir); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	store := artifacts.NewMemoryStore(cfg.Storage.TTL, cfg.Storage.CleanupInterval)
	defer store.Close()
	svc := services.NewAnalysisService(cfg.Analysis, store, logger)

	result, err := svc.Analyze(ctx, services.AnalyzeRequest{
		FileName:      filepath.Base(path),
		Size:          info.Size(),
		Body:          f,
		SourceKind:    kind,
		SchemaVersion: domain.SchemaVersion(opts.SchemaVersion),
		PlotStyle:     style,
	})
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", ErrMissingColumns, result.Message)
	}

	fmt.Fprintf(out, "Datakilde:  %s (schema %s)\n", result.SourceKind.DisplayName(), result.SchemaVersion)
	fmt.Fprintf(out, "Rækker:     %d (%d fjernet)\n", result.Preview.Total, result.Drops.Dropped())
	if result.Statistic != nil {
		fmt.Fprintf(out, "%s: %s\n", result.MetricLabel, result.Statistic.Display())
	}

	if opts.Title != "" {
		_, err := svc.GenerateReport(ctx, result.SessionID, services.ReportRequest{
			Title:   opts.Title,
			MapNote: opts.MapNote,
		})
		switch {
		case errors.Is(err, services.ErrNoPlot):
			fmt.Fprintln(out, "Ingen graf at rapportere; rapport springes over")
		case err != nil:
			return err
		}
	}

	output, err := files.NewManager(opts.OutDir, logger)
	if err != nil {
		return err
	}
	list, err := svc.Artifacts(ctx, result.SessionID)
	if err != nil {
		return err
	}
	if !opts.Force {
		for _, meta := range list {
			if output.FileExists(meta.Name) {
				return fmt.Errorf("%w: %s (use --force)", ErrOutputExists, filepath.Join(output.BaseDir(), meta.Name))
			}
		}
	}
	for _, meta := range list {
		a, err := svc.Artifact(ctx, result.SessionID, meta.Name)
		if err != nil {
			return err
		}
		target, err := output.WriteFile(a.Name, a.Data)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Skrev %s\n", target)
	}
	return nil
}
