package findingsfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Afrawles/findingsfetch/internal/config"
	"github.com/Afrawles/findingsfetch/internal/findings"
	"github.com/Afrawles/findingsfetch/internal/report"
)

type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Fetcher *findings.Fetcher
	Out     io.Writer
}

// New wires the fetcher to out for console output and logs diagnostics as
// JSON to logOut.
func New(cfg *config.Config, out, logOut io.Writer, level slog.Level) *Application {
	if out == nil {
		out = os.Stdout
	}
	if logOut == nil {
		logOut = os.Stderr
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: level,
	}))

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Fetcher: findings.New(out, logger),
		Out:     out,
	}
}

// FetchFindings runs fetch-and-persist once with the application config.
func (app *Application) FetchFindings(ctx context.Context) findings.Result {
	res := app.Fetcher.Run(ctx, app.Config)
	app.Logger.Debug("fetch finished", "outcome", res.Outcome.String(), "status", res.StatusCode)
	return res
}

type SummaryOptions struct {
	Input     string
	OutputDir string
	CSV       bool
	Excel     bool
	HTML      bool
	// Progress is called once per exported format.
	Progress func()
}

// Summarize reads a persisted findings file and exports the requested reports.
// It returns the written paths.
func (app *Application) Summarize(ctx context.Context, opts SummaryOptions) ([]string, error) {
	app.Logger.Info("summarizing findings", "input", opts.Input, "output_dir", opts.OutputDir)

	list, err := report.LoadFindings(opts.Input)
	if err != nil {
		app.Logger.Error("failed to load findings", "error", err)
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := report.Summarize(list)
	now := time.Now()
	progress := opts.Progress
	if progress == nil {
		progress = func() {}
	}

	var written []string

	exporter := report.NewExporter(opts.OutputDir)
	summaryFile := fmt.Sprintf("findings_%s_summary.json", now.Format("20060102_150405"))
	if err := exporter.ExportSummaryJSON(summary, summaryFile); err != nil {
		return written, fmt.Errorf("failed to export summary: %w", err)
	}
	written = append(written, filepath.Join(opts.OutputDir, summaryFile))

	if opts.CSV {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		files, err := report.NewCSVExporter(opts.OutputDir).Export(list, now)
		if err != nil {
			app.Logger.Error("failed to export CSV", "error", err)
			return written, err
		}
		written = append(written, files...)
		progress()
	}

	if opts.Excel {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		file, err := report.NewExcelExporter(opts.OutputDir).Export(list, now)
		if err != nil {
			app.Logger.Error("failed to export Excel", "error", err)
			return written, err
		}
		written = append(written, file)
		progress()
	}

	if opts.HTML {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		htmlFile := fmt.Sprintf("findings_%s.html", now.Format("20060102_150405"))
		if err := exporter.ExportHTML(list, summary, htmlFile, app.Config.Semgrep.DeploymentSlug); err != nil {
			app.Logger.Error("failed to export HTML", "error", err)
			return written, err
		}
		written = append(written, filepath.Join(opts.OutputDir, htmlFile))
		progress()
	}

	fmt.Fprintf(app.Out, "\nSummary:\n")
	fmt.Fprintf(app.Out, "  Total findings: %d\n", summary.Total)
	if summary.HighestSeverity != "" {
		fmt.Fprintf(app.Out, "  Highest severity: %s\n", strings.ToUpper(summary.HighestSeverity))
	}
	for _, severity := range []string{"critical", "high", "medium", "low", "info"} {
		if n := summary.BySeverity[severity]; n > 0 {
			fmt.Fprintf(app.Out, "  %s: %d\n", severity, n)
		}
	}

	app.Logger.Info("summary complete", "total", summary.Total, "files", len(written))
	return written, nil
}
