package domain

import "fmt"

// IssueKind enumerates the problems diagnostics can raise. Issues stay
// structured inside the engine and are rendered to codes/recommendation text
// only for the metadata envelope.
type IssueKind string

const (
	IssueHighMissingData IssueKind = "high_missing_data"
	IssueAmbiguousType   IssueKind = "ambiguous_type"
	IssueDuplicateColumn IssueKind = "duplicate_column_name"
	IssueEmptyDataset    IssueKind = "empty_dataset"
)

type Issue struct {
	Kind   IssueKind
	Column string
}

// Code renders the stable identifier reported in issues_detected.
func (i Issue) Code() string {
	switch i.Kind {
	case IssueHighMissingData:
		return fmt.Sprintf("high_missing_data_in_columns_%s", i.Column)
	case IssueAmbiguousType:
		return fmt.Sprintf("ambiguous_type_%s", i.Column)
	case IssueDuplicateColumn:
		return fmt.Sprintf("duplicate_column_name_%s", i.Column)
	case IssueEmptyDataset:
		return "empty_dataset"
	default:
		return string(i.Kind)
	}
}

// Recommendation returns the fixed advisory text for the issue kind.
func (i Issue) Recommendation() string {
	switch i.Kind {
	case IssueHighMissingData:
		return fmt.Sprintf("impute or drop column %s", i.Column)
	case IssueAmbiguousType:
		return fmt.Sprintf("review values in column %s, no single type reached the match threshold", i.Column)
	case IssueDuplicateColumn:
		return fmt.Sprintf("rename column %s, it collides with another column after identifier sanitization", i.Column)
	case IssueEmptyDataset:
		return "input contains no data rows"
	default:
		return ""
	}
}

func IssueCodes(issues []Issue) []string {
	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code())
	}
	return codes
}

func IssueRecommendations(issues []Issue) []string {
	recs := make([]string, 0, len(issues))
	for _, issue := range issues {
		if r := issue.Recommendation(); r != "" {
			recs = append(recs, r)
		}
	}
	return recs
}
