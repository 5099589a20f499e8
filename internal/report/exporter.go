package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed "templates"
var templateFS embed.FS

type Exporter struct {
	OutputDir string
}

func NewExporter(outputDir string) *Exporter {
	return &Exporter{OutputDir: outputDir}
}

func (e *Exporter) ExportSummaryJSON(summary Summary, filename string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(e.OutputDir, filename), data, 0644)
}

func (e *Exporter) ExportHTML(findings []Finding, summary Summary, filename, deployment string) error {
	funcMap := template.FuncMap{
		"title": cases.Title(language.English).String,
	}
	tmpl, err := template.New("findings.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/findings.tmpl")
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	outputPath := filepath.Join(e.OutputDir, filename)
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create HTML file: %w", err)
	}
	defer f.Close()

	groups, names := groupByRepository(findings)

	type RepositoryGroup struct {
		Name     string
		Findings []Finding
	}

	grouped := make([]RepositoryGroup, 0, len(names))
	for _, name := range names {
		grouped = append(grouped, RepositoryGroup{
			Name:     name,
			Findings: sortBySeverity(groups[name]),
		})
	}

	severities := make([]map[string]any, 0, len(severityOrder))
	for _, severity := range severityOrder {
		severities = append(severities, map[string]any{
			"Name":  severity,
			"Count": summary.BySeverity[severity],
		})
	}

	data := map[string]any{
		"Date":         time.Now().Format("2006-01-02 15:04:05"),
		"Deployment":   deployment,
		"Summary":      summary,
		"Severities":   severities,
		"Repositories": grouped,
	}

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}

	return nil
}
