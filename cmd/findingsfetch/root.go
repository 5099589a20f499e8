package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Afrawles/findingsfetch/internal/config"
	"github.com/Afrawles/findingsfetch/internal/findingsfetch"
)

var (
	configPath string
	token      string
	deployment string
	since      string
	output     string
	apiURL     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "findingsfetch",
	Short: "Download Semgrep code and supply chain findings to a JSON file",
	Long: `findingsfetch requests the findings of a Semgrep deployment through the Web API
and saves them, pretty-printed, to findings.json.

Generate a token with the "Web API" scope under Settings > Tokens, and read the
deployment slug ("Organization Slug") under Settings > Deployment.`,
	Run: fetchFindings,
}

var (
	summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Summarize a saved findings file as CSV, Excel or HTML reports",
		Run:   summarizeFindings,
	}

	summaryInput string
	summaryDir   string
	summaryCSV   bool
	summaryXLSX  bool
	summaryHTML  bool
)

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics at debug level")

	rootCmd.Flags().StringVarP(&token, "token", "t", "", "Semgrep API token (env SEMGREP_API_TOKEN)")
	rootCmd.Flags().StringVarP(&deployment, "deployment", "d", "", "Deployment slug (env SEMGREP_DEPLOYMENT_SLUG)")
	rootCmd.Flags().StringVarP(&since, "since", "s", "", `Only findings since this date, e.g. "January 1, 2024" (env SEMGREP_START_DATE)`)
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default findings.json)")
	rootCmd.Flags().StringVar(&apiURL, "api-url", "", "Semgrep API root")
	_ = rootCmd.Flags().MarkHidden("api-url")

	summaryCmd.Flags().StringVarP(&summaryInput, "input", "i", config.DefaultOutputFile, "Findings file to summarize")
	summaryCmd.Flags().StringVarP(&summaryDir, "output-dir", "o", "", "Output directory for reports (default reports, env OUTPUT_DIR)")
	summaryCmd.Flags().BoolVar(&summaryCSV, "csv", false, "Write CSV list and dashboard")
	summaryCmd.Flags().BoolVar(&summaryXLSX, "xlsx", false, "Write an Excel workbook with a sheet per repository")
	summaryCmd.Flags().BoolVar(&summaryHTML, "html", false, "Write an HTML report")
}

// loadConfig layers flags over env and the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if token != "" {
		cfg.Semgrep.Token = token
	}
	if deployment != "" {
		cfg.Semgrep.DeploymentSlug = deployment
	}
	if since != "" {
		cfg.Semgrep.StartDate = since
	}
	if output != "" {
		cfg.Output.File = output
	}
	if apiURL != "" {
		cfg.Semgrep.APIURL = apiURL
	}
	if summaryDir != "" {
		cfg.Output.Directory = summaryDir
	}

	return cfg, nil
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// fetchFindings never fails the process; every outcome is reported on the console.
func fetchFindings(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	app := findingsfetch.New(cfg, os.Stdout, os.Stderr, logLevel())
	app.Fetcher.Spinner = func(description string) func() {
		bar := newSpinner(description)
		return func() { finishBar(bar) }
	}

	app.FetchFindings(context.Background())
}

func summarizeFindings(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := findingsfetch.New(cfg, os.Stdout, os.Stderr, logLevel())

	formats := countEnabled(summaryCSV, summaryXLSX, summaryHTML)

	var exportBar *progressbar.ProgressBar
	if formats > 0 {
		exportBar = progressbar.NewOptions(formats,
			progressbar.OptionSetDescription("Exporting"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
		)
	}

	written, err := app.Summarize(context.Background(), findingsfetch.SummaryOptions{
		Input:     summaryInput,
		OutputDir: cfg.Output.Directory,
		CSV:       summaryCSV,
		Excel:     summaryXLSX,
		HTML:      summaryHTML,
		Progress: func() {
			if exportBar != nil {
				_ = exportBar.Add(1)
			}
		},
	})
	finishBar(exportBar)

	if err != nil {
		fmt.Printf("\nSummary failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nReports saved to %s/\n", cfg.Output.Directory)
	for _, path := range written {
		fmt.Printf("  -> %s\n", path)
	}
}
