package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type ExcelExporter struct {
	OutputDir string
}

func NewExcelExporter(outputDir string) *ExcelExporter {
	return &ExcelExporter{OutputDir: outputDir}
}

// Export writes findings_<ts>.xlsx with a Dashboard sheet and one sheet per repository.
func (e *ExcelExporter) Export(findings []Finding, generated time.Time) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := generated.Format("2006-01-02_15-04-05")
	filename := filepath.Join(e.OutputDir, fmt.Sprintf("findings_%s.xlsx", timestamp))

	f := excelize.NewFile()
	defer f.Close()

	if err := e.createDashboardSheet(f, "Dashboard", findings, generated); err != nil {
		return "", fmt.Errorf("failed to create dashboard: %w", err)
	}

	groups, names := groupByRepository(findings)
	used := map[string]bool{"dashboard": true, "sheet1": true}
	for _, name := range names {
		sheetName := uniqueSheetName(sanitizeSheetName(name), used)
		if err := e.createRepositorySheet(f, sheetName, sortBySeverity(groups[name])); err != nil {
			return "", fmt.Errorf("failed to create sheet for %s: %w", name, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if index, err := f.GetSheetIndex("Dashboard"); err == nil {
		f.SetActiveSheet(index)
	}

	if err := f.SaveAs(filename); err != nil {
		return "", fmt.Errorf("failed to save excel file: %w", err)
	}

	return filename, nil
}

func borderedStyle(f *excelize.File, fill, fontColor string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: fontColor},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
}

func (e *ExcelExporter) createDashboardSheet(f *excelize.File, sheetName string, findings []Finding, generated time.Time) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headerStyle, err := borderedStyle(f, "#4472C4", "#FFFFFF")
	if err != nil {
		return err
	}
	totalStyle, err := borderedStyle(f, "#B4C7E7", "#000000")
	if err != nil {
		return err
	}

	title := cases.Title(language.English)

	f.SetCellValue(sheetName, "A1", "Generated:")
	f.SetCellValue(sheetName, "B1", generated.Format("02-01-06 15:04"))

	row := 3
	headers := []string{"Repository"}
	for _, severity := range severityOrder {
		headers = append(headers, title.String(severity))
	}
	headers = append(headers, "Total")

	for i, header := range headers {
		cell := cellName(i+1, row)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	row++

	rows := dashboardRows(findings)
	for i, r := range rows {
		f.SetCellValue(sheetName, cellName(1, row), r.Name)
		for j, n := range r.Counts {
			f.SetCellValue(sheetName, cellName(j+2, row), n)
		}
		f.SetCellValue(sheetName, cellName(len(headers), row), r.Total)

		if i == len(rows)-1 {
			f.SetCellStyle(sheetName, cellName(1, row), cellName(len(headers), row), totalStyle)
		}
		row++
	}

	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", columnLetter(len(headers)), 12)

	return nil
}

func (e *ExcelExporter) createRepositorySheet(f *excelize.File, sheetName string, findings []Finding) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headerStyle, err := borderedStyle(f, "#4472C4", "#FFFFFF")
	if err != nil {
		return err
	}

	for col, header := range listHeader {
		cell := cellName(col+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, finding := range findings {
		for col, value := range listRow(i, finding) {
			f.SetCellValue(sheetName, cellName(col+1, i+2), value)
		}
	}

	f.SetColWidth(sheetName, "A", "B", 8)
	f.SetColWidth(sheetName, "C", "C", 45)
	f.SetColWidth(sheetName, "D", "F", 12)
	f.SetColWidth(sheetName, "G", "H", 30)
	f.SetColWidth(sheetName, "I", "J", 10)
	f.SetColWidth(sheetName, "K", "K", 50)

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}

func columnLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// maxSheetName is Excel's sheet name limit, counted in characters.
const maxSheetName = 31

func sanitizeSheetName(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, "?", "")
	name = strings.ReplaceAll(name, "*", "")
	name = strings.ReplaceAll(name, ":", "-")
	name = strings.ReplaceAll(name, "[", "(")
	name = strings.ReplaceAll(name, "]", ")")

	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	if name == "" {
		name = "Unknown"
	}

	return name
}

// uniqueSheetName suffixes name until it no longer collides (case-insensitively) with used.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := name
		if r := []rune(base); len(r)+len(suffix) > maxSheetName {
			base = string(r[:maxSheetName-len(suffix)])
		}
		candidate = base + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
