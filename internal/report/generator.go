package report

import (
	"sort"
	"strings"
)

// severityOrder lists severities from most to least severe.
var severityOrder = []string{"critical", "high", "medium", "low", "info"}

var severityRank = map[string]int{
	"critical": 4,
	"high":     3,
	"medium":   2,
	"low":      1,
	"info":     0,
}

type Summary struct {
	Total           int            `json:"total"`
	BySeverity      map[string]int `json:"by_severity"`
	ByState         map[string]int `json:"by_state"`
	ByConfidence    map[string]int `json:"by_confidence"`
	ByRepository    map[string]int `json:"by_repository"`
	HighestSeverity string         `json:"highest_severity,omitempty"`
}

// Summarize counts findings per severity, state, confidence and repository.
func Summarize(findings []Finding) Summary {
	s := Summary{
		Total:        len(findings),
		BySeverity:   make(map[string]int),
		ByState:      make(map[string]int),
		ByConfidence: make(map[string]int),
		ByRepository: make(map[string]int),
	}

	highest := -1
	for _, f := range findings {
		severity := normalize(f.Severity)
		s.BySeverity[severity]++
		s.ByState[normalize(f.State)]++
		s.ByConfidence[normalize(f.Confidence)]++
		s.ByRepository[f.RepositoryName()]++

		if rank, ok := severityRank[severity]; ok && rank > highest {
			highest = rank
			s.HighestSeverity = severity
		}
	}

	return s
}

// groupByRepository returns findings per repository and the sorted repository names.
func groupByRepository(findings []Finding) (map[string][]Finding, []string) {
	groups := make(map[string][]Finding)
	var names []string

	for _, f := range findings {
		name := f.RepositoryName()
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], f)
	}

	sort.Strings(names)
	return groups, names
}

// sortBySeverity orders findings most severe first, keeping input order on ties.
func sortBySeverity(findings []Finding) []Finding {
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)

	sort.SliceStable(sorted, func(i, j int) bool {
		return rankOf(sorted[i].Severity) > rankOf(sorted[j].Severity)
	})
	return sorted
}

func rankOf(severity string) int {
	if rank, ok := severityRank[normalize(severity)]; ok {
		return rank
	}
	return -1
}

func normalize(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, "_", " ")
	if value == "" {
		return "unknown"
	}
	return value
}
