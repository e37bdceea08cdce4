package domain

// Dataset is the normalized tabular payload a single conversion works on.
// Columns defines output order; each row is positionally aligned with
// Columns. A Dataset is built once per request and never mutated afterwards.
type Dataset struct {
	Columns []string
	Rows    [][]Value
}

func (d *Dataset) RowCount() int    { return len(d.Rows) }
func (d *Dataset) ColumnCount() int { return len(d.Columns) }

// Cell returns the value at (row, col), Null for ragged rows.
func (d *Dataset) Cell(row, col int) Value {
	if row < 0 || row >= len(d.Rows) {
		return Null()
	}
	r := d.Rows[row]
	if col < 0 || col >= len(r) {
		return Null()
	}
	return r[col]
}

// ColumnType is the inferred logical type of a column.
type ColumnType string

const (
	TypeBoolean  ColumnType = "boolean"
	TypeInteger  ColumnType = "integer"
	TypeNumeric  ColumnType = "numeric"
	TypeDatetime ColumnType = "datetime"
	TypeEmail    ColumnType = "email"
	TypeText     ColumnType = "text"
	TypeUnknown  ColumnType = "unknown"
)

// ColumnDescriptor carries the per-column inference outcome. One descriptor
// exists per Dataset column; the orchestrator may rewrite Type and
// MatchRatio when merging advisor suggestions.
type ColumnDescriptor struct {
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	MissingRatio float64    `json:"missing_ratio"`
	SampleSize   int        `json:"sample_size"`
	MatchRatio   float64    `json:"match_ratio"`
	Ambiguous    bool       `json:"ambiguous"`
	MaxTextLen   int        `json:"max_text_len"`
}
