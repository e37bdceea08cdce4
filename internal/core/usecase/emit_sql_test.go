package usecase

import (
	"regexp"
	"strings"
	"testing"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func TestEmitSQLWritesCreateTableWithMappedTypes(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"id", "price", "created at", "active", "mail"},
		Rows: [][]domain.Value{
			{domain.TextValue("1"), domain.TextValue("9.99"), domain.TextValue("2024-01-02"), domain.TextValue("true"), domain.TextValue("a@example.com")},
		},
	}
	descs := []domain.ColumnDescriptor{
		{Name: "id", Type: domain.TypeInteger},
		{Name: "price", Type: domain.TypeNumeric},
		{Name: "created at", Type: domain.TypeDatetime},
		{Name: "active", Type: domain.TypeBoolean},
		{Name: "mail", Type: domain.TypeEmail, MaxTextLen: 13},
	}

	script, err := NewSQLEmitter(0).Emit(ds, descs, "orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, fragment := range []string{
		"CREATE TABLE orders (",
		"id INTEGER",
		"price NUMERIC",
		"created_at TIMESTAMP",
		"active BOOLEAN",
		"mail VARCHAR(32)",
	} {
		if !strings.Contains(script, fragment) {
			t.Fatalf("expected script to contain %q:\n%s", fragment, script)
		}
	}
}

func TestEmitSQLVarcharBucketsRoundUp(t *testing.T) {
	cases := []struct {
		maxLen   int
		expected int
	}{
		{0, 255},
		{10, 32},
		{33, 64},
		{255, 255},
		{256, 512},
		{9000, 4000},
	}
	for _, tc := range cases {
		if got := varcharSize(tc.maxLen); got != tc.expected {
			t.Fatalf("maxLen %d: expected bucket %d, got %d", tc.maxLen, tc.expected, got)
		}
	}
}

func TestEmitSQLSanitizesAndDedupesIdentifiers(t *testing.T) {
	columns := []string{"User Name", "User-Name", "2col", "", "ценность"}
	idents := dedupeIdentifiers(columns)

	expected := []string{"User_Name", "User_Name_2", "_2col", "column_4", "column_5"}
	for i, want := range expected {
		if idents[i] != want {
			t.Fatalf("identifier %d: expected %q, got %q", i, want, idents[i])
		}
		if !identifierPattern.MatchString(idents[i]) {
			t.Fatalf("identifier %q does not satisfy the SQL identifier shape", idents[i])
		}
	}
}

func TestEmitSQLTruncatesLongIdentifiers(t *testing.T) {
	long := strings.Repeat("a", 80)
	ident := sanitizeIdentifier(long)
	if len(ident) != 63 {
		t.Fatalf("expected 63-char identifier, got %d chars", len(ident))
	}
	if !identifierPattern.MatchString(ident) {
		t.Fatalf("identifier %q does not satisfy the SQL identifier shape", ident)
	}
}

func TestEmitSQLLiterals(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"name", "qty", "ok", "note"},
		Rows: [][]domain.Value{
			{domain.TextValue("O'Brien"), domain.TextValue("3"), domain.TextValue("true"), domain.Null()},
		},
	}
	descs := []domain.ColumnDescriptor{
		{Name: "name", Type: domain.TypeText, MaxTextLen: 7},
		{Name: "qty", Type: domain.TypeInteger},
		{Name: "ok", Type: domain.TypeBoolean},
		{Name: "note", Type: domain.TypeText},
	}

	script, err := NewSQLEmitter(0).Emit(ds, descs, "people")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(script, "('O''Brien', 3, TRUE, NULL)") {
		t.Fatalf("unexpected literal rendering:\n%s", script)
	}
}

func TestEmitSQLBatchesInserts(t *testing.T) {
	ds := &domain.Dataset{Columns: []string{"n"}}
	for i := 0; i < 5; i++ {
		ds.Rows = append(ds.Rows, []domain.Value{domain.TextValue("1")})
	}
	descs := []domain.ColumnDescriptor{{Name: "n", Type: domain.TypeInteger}}

	script, err := NewSQLEmitter(2).Emit(ds, descs, "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(script, "INSERT INTO"); got != 3 {
		t.Fatalf("expected 3 insert batches for 5 rows at batch size 2, got %d:\n%s", got, script)
	}
}

func TestEmitSQLRejectsEmptyColumnSet(t *testing.T) {
	_, err := NewSQLEmitter(0).Emit(&domain.Dataset{}, nil, "t")
	if !domain.IsKind(err, domain.ErrEmission) {
		t.Fatalf("expected emission error, got %v", err)
	}
}

func TestEmitSQLStragglerDegradesToQuotedText(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"qty"},
		Rows: [][]domain.Value{
			{domain.TextValue("7")},
			{domain.TextValue("n/a")},
		},
	}
	descs := []domain.ColumnDescriptor{{Name: "qty", Type: domain.TypeInteger}}

	script, err := NewSQLEmitter(0).Emit(ds, descs, "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(script, "'n/a'") {
		t.Fatalf("expected non-coercible value quoted as text:\n%s", script)
	}
}
