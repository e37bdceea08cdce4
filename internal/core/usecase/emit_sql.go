package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

const (
	maxIdentifierLen     = 63
	defaultSQLBatchSize  = 100
	defaultVarcharLength = 255
)

// varcharBuckets are the VARCHAR sizes the emitter rounds up to.
var varcharBuckets = []int{32, 64, 128, 255, 512, 1024, 2048, 4000}

// SQLEmitter renders a Dataset as one CREATE TABLE statement followed by
// batched INSERT statements. Stateless; safe for concurrent use.
type SQLEmitter struct {
	batchSize int
}

func NewSQLEmitter(batchSize int) *SQLEmitter {
	if batchSize <= 0 {
		batchSize = defaultSQLBatchSize
	}
	return &SQLEmitter{batchSize: batchSize}
}

// Emit writes DDL+DML for the dataset under the final descriptors. The
// descriptor slice must be aligned with ds.Columns.
func (e *SQLEmitter) Emit(ds *domain.Dataset, descriptors []domain.ColumnDescriptor, tableName string) (string, error) {
	if len(descriptors) != len(ds.Columns) {
		return "", domain.WrapError(domain.ErrEmission, "emit sql",
			fmt.Errorf("descriptor/column mismatch: %d/%d", len(descriptors), len(ds.Columns)))
	}
	if len(ds.Columns) == 0 {
		return "", domain.WrapError(domain.ErrEmission, "emit sql", errors.New("no columns to emit"))
	}

	table := sanitizeIdentifier(tableName)
	if table == "" {
		table = "converted_data"
	}
	idents := dedupeIdentifiers(ds.Columns)

	var b strings.Builder
	writeCreateTable(&b, table, idents, descriptors)

	for start := 0; start < len(ds.Rows); start += e.batchSize {
		end := start + e.batchSize
		if end > len(ds.Rows) {
			end = len(ds.Rows)
		}
		writeInsertBatch(&b, table, idents, descriptors, ds.Rows[start:end])
	}
	return b.String(), nil
}

func writeCreateTable(b *strings.Builder, table string, idents []string, descriptors []domain.ColumnDescriptor) {
	b.WriteString("CREATE TABLE ")
	b.WriteString(table)
	b.WriteString(" (\n")
	for i, ident := range idents {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("    ")
		b.WriteString(ident)
		b.WriteString(" ")
		b.WriteString(sqlTypeFor(descriptors[i]))
	}
	b.WriteString("\n);\n")
}

func writeInsertBatch(b *strings.Builder, table string, idents []string, descriptors []domain.ColumnDescriptor, rows [][]domain.Value) {
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(idents, ", "))
	b.WriteString(") VALUES\n")
	for i, row := range rows {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("    (")
		for col := range idents {
			if col > 0 {
				b.WriteString(", ")
			}
			var v domain.Value
			if col < len(row) {
				v = row[col]
			}
			b.WriteString(sqlLiteral(v, descriptors[col].Type))
		}
		b.WriteString(")")
	}
	b.WriteString(";\n")
}

func sqlTypeFor(d domain.ColumnDescriptor) string {
	switch d.Type {
	case domain.TypeInteger:
		return "INTEGER"
	case domain.TypeNumeric:
		return "NUMERIC"
	case domain.TypeDatetime:
		return "TIMESTAMP"
	case domain.TypeBoolean:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("VARCHAR(%d)", varcharSize(d.MaxTextLen))
	}
}

func varcharSize(maxLen int) int {
	if maxLen <= 0 {
		return defaultVarcharLength
	}
	for _, bucket := range varcharBuckets {
		if maxLen <= bucket {
			return bucket
		}
	}
	return varcharBuckets[len(varcharBuckets)-1]
}

// sqlLiteral renders one cell. Values that do not coerce to the column type
// are emitted as quoted strings, matching the JSON emitter's degrade-to-text
// behavior.
func sqlLiteral(v domain.Value, t domain.ColumnType) string {
	if v.IsNull() {
		return "NULL"
	}
	cv := coerceValue(v, t)
	switch cv.Kind {
	case domain.KindNull:
		return "NULL"
	case domain.KindBool:
		return strings.ToUpper(strconv.FormatBool(cv.Bool))
	case domain.KindNumber:
		return strconv.FormatFloat(cv.Num, 'f', -1, 64)
	case domain.KindTime:
		return "'" + cv.Time.Format("2006-01-02 15:04:05") + "'"
	default:
		return "'" + strings.ReplaceAll(cv.Text, "'", "''") + "'"
	}
}

// sanitizeIdentifier maps an arbitrary column or table name onto
// [A-Za-z_][A-Za-z0-9_]{0,62}. Empty results are left for the caller to
// replace.
func sanitizeIdentifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '.':
			b.WriteRune('_')
		}
	}
	ident := b.String()
	if ident == "" {
		return ""
	}
	if ident[0] >= '0' && ident[0] <= '9' {
		ident = "_" + ident
	}
	if len(ident) > maxIdentifierLen {
		ident = ident[:maxIdentifierLen]
	}
	return ident
}

// dedupeIdentifiers sanitizes every column name and resolves collisions by
// appending a numeric suffix, trimming the base when the suffix would push
// past the identifier length limit.
func dedupeIdentifiers(columns []string) []string {
	out := make([]string, 0, len(columns))
	used := map[string]bool{}
	for i, name := range columns {
		ident := sanitizeIdentifier(name)
		if ident == "" {
			ident = fmt.Sprintf("column_%d", i+1)
		}
		candidate := ident
		for n := 2; used[candidate]; n++ {
			suffix := "_" + strconv.Itoa(n)
			base := ident
			if len(base)+len(suffix) > maxIdentifierLen {
				base = base[:maxIdentifierLen-len(suffix)]
			}
			candidate = base + suffix
		}
		used[candidate] = true
		out = append(out, candidate)
	}
	return out
}
