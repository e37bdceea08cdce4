package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

// AnalyzerOptions bound the sampling pass. Zero values fall back to the
// defaults below.
type AnalyzerOptions struct {
	// SampleSize caps the number of non-null values inspected per column.
	SampleSize int
	// MatchThreshold is the supermajority ratio a type predicate must reach
	// to win a column.
	MatchThreshold float64
}

const (
	defaultSampleSize     = 100
	defaultMatchThreshold = 0.8
)

func (o AnalyzerOptions) normalize() AnalyzerOptions {
	if o.SampleSize <= 0 {
		o.SampleSize = defaultSampleSize
	}
	if o.MatchThreshold <= 0 || o.MatchThreshold > 1 {
		o.MatchThreshold = defaultMatchThreshold
	}
	return o
}

// Analyzer performs deterministic per-column type inference. It is a pure
// function of its input: no side effects beyond the returned descriptors.
type Analyzer struct {
	opts AnalyzerOptions
}

func NewAnalyzer(opts AnalyzerOptions) *Analyzer {
	return &Analyzer{opts: opts.normalize()}
}

// Analyze produces exactly one descriptor per Dataset column, in column
// order.
func (a *Analyzer) Analyze(ds *domain.Dataset) []domain.ColumnDescriptor {
	descriptors := make([]domain.ColumnDescriptor, 0, len(ds.Columns))
	for idx, name := range ds.Columns {
		descriptors = append(descriptors, a.analyzeColumn(ds, idx, name))
	}
	return descriptors
}

func (a *Analyzer) analyzeColumn(ds *domain.Dataset, col int, name string) domain.ColumnDescriptor {
	total := ds.RowCount()
	missing := 0
	samples := make([]domain.Value, 0, a.opts.SampleSize)

	for row := 0; row < total; row++ {
		v := ds.Cell(row, col)
		if v.IsNull() {
			missing++
			continue
		}
		if len(samples) < a.opts.SampleSize {
			samples = append(samples, v)
		}
	}

	desc := domain.ColumnDescriptor{
		Name:       name,
		Type:       domain.TypeUnknown,
		SampleSize: len(samples),
	}
	if total > 0 {
		desc.MissingRatio = float64(missing) / float64(total)
	} else {
		desc.MissingRatio = 1
	}
	if len(samples) == 0 {
		return desc
	}

	counts := map[domain.ColumnType]int{}
	for _, v := range samples {
		counts[classifyValue(v)]++
		if l := len(v.String()); l > desc.MaxTextLen {
			desc.MaxTextLen = l
		}
	}

	bestRatio := 0.0
	for _, t := range predicateOrder {
		ratio := ratioFor(t, counts, len(samples))
		if ratio > bestRatio {
			bestRatio = ratio
		}
		if ratio >= a.opts.MatchThreshold {
			desc.Type = t
			desc.MatchRatio = ratio
			return desc
		}
	}

	// No supermajority: fall back to text, the safe superset, and keep the
	// best observed ratio so the scorer sees the ambiguity.
	desc.Type = domain.TypeText
	desc.MatchRatio = bestRatio
	desc.Ambiguous = true
	return desc
}

// predicateOrder is the precedence list: the first type whose ratio reaches
// the threshold wins. Text is last because it accepts anything that is not
// claimed by a more specific predicate.
var predicateOrder = []domain.ColumnType{
	domain.TypeBoolean,
	domain.TypeInteger,
	domain.TypeNumeric,
	domain.TypeDatetime,
	domain.TypeEmail,
	domain.TypeText,
}

// ratioFor widens integer matches into numeric: an integer cell is also a
// valid numeric cell.
func ratioFor(t domain.ColumnType, counts map[domain.ColumnType]int, sampleSize int) float64 {
	c := counts[t]
	if t == domain.TypeNumeric {
		c += counts[domain.TypeInteger]
	}
	return float64(c) / float64(sampleSize)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"02.01.2006",
}

// classifyValue assigns a cell its most specific type. Already-typed cells
// (from JSON or spreadsheet decoding) keep their native classification;
// textual cells are probed against each predicate in order.
func classifyValue(v domain.Value) domain.ColumnType {
	switch v.Kind {
	case domain.KindBool:
		return domain.TypeBoolean
	case domain.KindNumber:
		if v.Num == float64(int64(v.Num)) {
			return domain.TypeInteger
		}
		return domain.TypeNumeric
	case domain.KindTime:
		return domain.TypeDatetime
	}

	s := strings.TrimSpace(v.Text)
	if s == "" {
		return domain.TypeText
	}
	if isBooleanLiteral(s) {
		return domain.TypeBoolean
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.TypeInteger
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return domain.TypeNumeric
	}
	if isDatetimeLiteral(s) {
		return domain.TypeDatetime
	}
	if emailPattern.MatchString(s) {
		return domain.TypeEmail
	}
	return domain.TypeText
}

func isBooleanLiteral(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "t", "f":
		return true
	default:
		return false
	}
}

func isDatetimeLiteral(s string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// parseDatetime is the coercion counterpart of isDatetimeLiteral.
func parseDatetime(s string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
