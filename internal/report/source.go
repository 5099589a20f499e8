package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Finding is the subset of a Semgrep finding the summaries read. Unknown
// fields are ignored and missing ones stay zero.
type Finding struct {
	ID            json.RawMessage `json:"id"`
	Ref           string          `json:"ref"`
	RuleName      string          `json:"rule_name"`
	RuleMessage   string          `json:"rule_message"`
	Severity      string          `json:"severity"`
	Confidence    string          `json:"confidence"`
	State         string          `json:"state"`
	TriageState   string          `json:"triage_state"`
	Categories    []string        `json:"categories"`
	CreatedAt     string          `json:"created_at"`
	LineOfCodeURL string          `json:"line_of_code_url"`
	Repository    Repository      `json:"repository"`
	Location      Location        `json:"location"`
}

type Repository struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Location struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
}

func (f Finding) Key() string {
	return strings.Trim(string(f.ID), `"`)
}

func (f Finding) RepositoryName() string {
	if f.Repository.Name == "" {
		return "Unknown"
	}
	return f.Repository.Name
}

// DecodeFindings accepts either {"findings": [...]} or a bare array.
func DecodeFindings(raw []byte) ([]Finding, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty findings document")
	}

	if raw[0] == '[' {
		var list []Finding
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("failed to decode findings: %w", err)
		}
		return list, nil
	}

	var doc struct {
		Findings []Finding `json:"findings"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode findings: %w", err)
	}
	return doc.Findings, nil
}

func LoadFindings(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read findings file: %w", err)
	}
	return DecodeFindings(data)
}
