package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type CSVExporter struct {
	OutputDir string
}

func NewCSVExporter(outputDir string) *CSVExporter {
	return &CSVExporter{OutputDir: outputDir}
}

// Export writes findings_<ts>_list.csv and findings_<ts>_dashboard.csv and
// returns their paths.
func (e *CSVExporter) Export(findings []Finding, generated time.Time) ([]string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := generated.Format("2006-01-02_15-04-05")

	listFile := filepath.Join(e.OutputDir, fmt.Sprintf("findings_%s_list.csv", timestamp))
	if err := e.exportList(findings, listFile); err != nil {
		return nil, fmt.Errorf("failed to export findings list: %w", err)
	}

	dashboardFile := filepath.Join(e.OutputDir, fmt.Sprintf("findings_%s_dashboard.csv", timestamp))
	if err := e.exportDashboard(findings, dashboardFile, generated); err != nil {
		return nil, fmt.Errorf("failed to export dashboard: %w", err)
	}

	return []string{listFile, dashboardFile}, nil
}

var listHeader = []string{
	"#",
	"ID",
	"Rule",
	"Severity",
	"Confidence",
	"State",
	"Repository",
	"File",
	"Line",
	"Created",
	"URL",
}

func listRow(i int, f Finding) []string {
	line := ""
	if f.Location.Line > 0 {
		line = strconv.Itoa(f.Location.Line)
	}

	return []string{
		strconv.Itoa(i + 1),
		f.Key(),
		f.RuleName,
		normalize(f.Severity),
		normalize(f.Confidence),
		normalize(f.State),
		f.RepositoryName(),
		f.Location.FilePath,
		line,
		formatDate(f.CreatedAt),
		f.LineOfCodeURL,
	}
}

func (e *CSVExporter) exportList(findings []Finding, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(listHeader); err != nil {
		return err
	}

	for i, f := range sortBySeverity(findings) {
		if err := writer.Write(listRow(i, f)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func (e *CSVExporter) exportDashboard(findings []Finding, filename string, generated time.Time) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"Generated:", generated.Format("02-01-06 15:04")}); err != nil {
		return err
	}
	if err := writer.Write([]string{""}); err != nil {
		return err
	}

	header := append([]string{"Repository"}, severityOrder...)
	header = append(header, "Total")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range dashboardRows(findings) {
		record := []string{row.Name}
		for _, n := range row.Counts {
			record = append(record, strconv.Itoa(n))
		}
		record = append(record, strconv.Itoa(row.Total))
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

type dashboardRow struct {
	Name   string
	Counts []int
	Total  int
}

// dashboardRows builds one row per repository plus a trailing "Total" row.
// Counts follow severityOrder; findings with other severities only count
// towards Total.
func dashboardRows(findings []Finding) []dashboardRow {
	groups, names := groupByRepository(findings)

	totals := dashboardRow{Name: "Total", Counts: make([]int, len(severityOrder))}
	rows := make([]dashboardRow, 0, len(names)+1)

	for _, name := range names {
		bySeverity := make(map[string]int)
		for _, f := range groups[name] {
			bySeverity[normalize(f.Severity)]++
		}

		row := dashboardRow{Name: name, Counts: make([]int, len(severityOrder)), Total: len(groups[name])}
		for i, severity := range severityOrder {
			row.Counts[i] = bySeverity[severity]
			totals.Counts[i] += row.Counts[i]
		}
		totals.Total += row.Total
		rows = append(rows, row)
	}

	return append(rows, totals)
}

func formatDate(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	return t.Format("02/01/06")
}
