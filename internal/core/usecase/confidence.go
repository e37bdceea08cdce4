package usecase

import "github.com/matrixlabs/ai-converter/internal/core/domain"

const highMissingRatio = 0.3

// AggregateConfidence reduces per-column match quality into one score on the
// 0-100 scale. Each column's MatchRatio is weighted by how populated the
// column is, so a sparse column cannot dominate the score.
func AggregateConfidence(descriptors []domain.ColumnDescriptor) float64 {
	var weighted, totalWeight float64
	for _, d := range descriptors {
		w := 1 - d.MissingRatio
		if w < 0 {
			w = 0
		}
		weighted += d.MatchRatio * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return clampConfidence(weighted / totalWeight * 100)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// DetectIssues runs the deterministic diagnostics over a descriptor set.
// Pure: same descriptors, same issues.
func DetectIssues(descriptors []domain.ColumnDescriptor) []domain.Issue {
	var issues []domain.Issue
	if len(descriptors) == 0 {
		return []domain.Issue{{Kind: domain.IssueEmptyDataset}}
	}

	for _, d := range descriptors {
		if d.MissingRatio > highMissingRatio {
			issues = append(issues, domain.Issue{Kind: domain.IssueHighMissingData, Column: d.Name})
		}
		if d.Ambiguous {
			issues = append(issues, domain.Issue{Kind: domain.IssueAmbiguousType, Column: d.Name})
		}
	}

	// Identifier collisions matter for the SQL target but are reported for
	// every conversion so callers see them before asking for SQL.
	seen := map[string]string{}
	for _, d := range descriptors {
		ident := sanitizeIdentifier(d.Name)
		if first, ok := seen[ident]; ok && first != d.Name {
			issues = append(issues, domain.Issue{Kind: domain.IssueDuplicateColumn, Column: d.Name})
			continue
		}
		seen[ident] = d.Name
	}
	return issues
}
