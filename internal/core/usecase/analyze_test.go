package usecase

import (
	"math"
	"testing"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

func textColumn(name string, cells ...string) *domain.Dataset {
	ds := &domain.Dataset{Columns: []string{name}}
	for _, c := range cells {
		var v domain.Value
		if c != "" {
			v = domain.TextValue(c)
		}
		ds.Rows = append(ds.Rows, []domain.Value{v})
	}
	return ds
}

func TestAnalyzeInfersColumnTypes(t *testing.T) {
	cases := []struct {
		name     string
		cells    []string
		expected domain.ColumnType
	}{
		{"integers", []string{"1", "2", "3", "42"}, domain.TypeInteger},
		{"decimals widen to numeric", []string{"1", "2.5", "3.1", "4"}, domain.TypeNumeric},
		{"boolean literals", []string{"yes", "no", "true", "f"}, domain.TypeBoolean},
		{"iso dates", []string{"2024-01-02", "2024-03-04", "2023-12-31"}, domain.TypeDatetime},
		{"emails", []string{"a@example.com", "b@test.org", "c.d@mail.co"}, domain.TypeEmail},
		{"plain text", []string{"apple", "banana", "cherry"}, domain.TypeText},
	}

	analyzer := NewAnalyzer(AnalyzerOptions{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			descs := analyzer.Analyze(textColumn("col", tc.cells...))
			if len(descs) != 1 {
				t.Fatalf("expected 1 descriptor, got %d", len(descs))
			}
			if descs[0].Type != tc.expected {
				t.Fatalf("expected type %s, got %s", tc.expected, descs[0].Type)
			}
			if descs[0].Ambiguous {
				t.Fatalf("expected unambiguous column, got ambiguous with ratio %v", descs[0].MatchRatio)
			}
		})
	}
}

func TestAnalyzeMixedColumnFallsBackToTextAsAmbiguous(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerOptions{})
	descs := analyzer.Analyze(textColumn("mixed", "1", "apple", "2"))

	d := descs[0]
	if d.Type != domain.TypeText {
		t.Fatalf("expected text fallback, got %s", d.Type)
	}
	if !d.Ambiguous {
		t.Fatal("expected ambiguous flag for mixed column")
	}
	if math.Abs(d.MatchRatio-2.0/3.0) > 1e-9 {
		t.Fatalf("expected best observed ratio 2/3, got %v", d.MatchRatio)
	}
}

func TestAnalyzeTracksMissingRatioOverAllRows(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerOptions{})
	descs := analyzer.Analyze(textColumn("age", "5", "", "7", ""))

	d := descs[0]
	if d.MissingRatio != 0.5 {
		t.Fatalf("expected missing ratio 0.5, got %v", d.MissingRatio)
	}
	if d.Type != domain.TypeInteger {
		t.Fatalf("expected integer over the non-null sample, got %s", d.Type)
	}
	if d.SampleSize != 2 {
		t.Fatalf("expected sample size 2, got %d", d.SampleSize)
	}
}

func TestAnalyzeEmptyColumnIsUnknown(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerOptions{})
	descs := analyzer.Analyze(textColumn("empty", "", "", ""))

	d := descs[0]
	if d.Type != domain.TypeUnknown {
		t.Fatalf("expected unknown type for an all-null column, got %s", d.Type)
	}
	if d.MissingRatio != 1 {
		t.Fatalf("expected missing ratio 1, got %v", d.MissingRatio)
	}
}

func TestAnalyzeRespectsSampleSizeCap(t *testing.T) {
	ds := &domain.Dataset{Columns: []string{"n"}}
	for i := 0; i < 250; i++ {
		ds.Rows = append(ds.Rows, []domain.Value{domain.TextValue("7")})
	}

	descs := NewAnalyzer(AnalyzerOptions{SampleSize: 100}).Analyze(ds)
	if descs[0].SampleSize != 100 {
		t.Fatalf("expected sample capped at 100, got %d", descs[0].SampleSize)
	}
}

func TestAnalyzeTypedCellsKeepNativeClassification(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"flag", "score"},
		Rows: [][]domain.Value{
			{domain.BoolValue(true), domain.NumberValue(1.5)},
			{domain.BoolValue(false), domain.NumberValue(2.25)},
		},
	}

	descs := NewAnalyzer(AnalyzerOptions{}).Analyze(ds)
	if descs[0].Type != domain.TypeBoolean {
		t.Fatalf("expected boolean, got %s", descs[0].Type)
	}
	if descs[1].Type != domain.TypeNumeric {
		t.Fatalf("expected numeric, got %s", descs[1].Type)
	}
}

func TestAnalyzeProducesOneDescriptorPerColumnInOrder(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"Name", "Age", "Signup Date"},
		Rows: [][]domain.Value{
			{domain.TextValue("Alice"), domain.TextValue("30"), domain.TextValue("2024-01-02")},
			{domain.TextValue("Bob"), domain.Null(), domain.TextValue("2024-02-03")},
		},
	}

	descs := NewAnalyzer(AnalyzerOptions{}).Analyze(ds)
	if len(descs) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descs))
	}
	for i, col := range ds.Columns {
		if descs[i].Name != col {
			t.Fatalf("descriptor %d out of order: expected %q, got %q", i, col, descs[i].Name)
		}
	}
	if descs[1].Type != domain.TypeInteger {
		t.Fatalf("expected Age integer, got %s", descs[1].Type)
	}
	if descs[1].MissingRatio != 0.5 {
		t.Fatalf("expected Age missing ratio 0.5, got %v", descs[1].MissingRatio)
	}
	if descs[2].Type != domain.TypeDatetime {
		t.Fatalf("expected Signup Date datetime, got %s", descs[2].Type)
	}
}
