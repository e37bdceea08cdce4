package xlsxcodec

import (
	"testing"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := New()
	header := []string{"name", "qty"}
	rows := [][]domain.Value{
		{domain.TextValue("Alice"), domain.NumberValue(3)},
		{domain.TextValue("Bob"), domain.Null()},
	}

	raw, err := codec.Encode(header, rows)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected workbook bytes")
	}

	ds, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(ds.Columns) != 2 || ds.Columns[0] != "name" || ds.Columns[1] != "qty" {
		t.Fatalf("unexpected columns %v", ds.Columns)
	}
	if ds.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", ds.RowCount())
	}
	if ds.Cell(0, 0).Text != "Alice" {
		t.Fatalf("unexpected cell: %+v", ds.Cell(0, 0))
	}
	if ds.Cell(0, 1).Text != "3" {
		t.Fatalf("expected numeric cell rendered as 3, got %+v", ds.Cell(0, 1))
	}
	if !ds.Cell(1, 1).IsNull() {
		t.Fatalf("expected blank cell decoded as null, got %+v", ds.Cell(1, 1))
	}
}

func TestEncodeEmptyRowsStillProducesHeader(t *testing.T) {
	codec := New()
	raw, err := codec.Encode([]string{"only"}, nil)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	ds, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(ds.Columns) != 1 || ds.Columns[0] != "only" {
		t.Fatalf("unexpected columns %v", ds.Columns)
	}
	if ds.RowCount() != 0 {
		t.Fatalf("expected no data rows, got %d", ds.RowCount())
	}
}

func TestDecodeDuplicateHeadersGetSuffixed(t *testing.T) {
	codec := New()
	raw, err := codec.Encode([]string{"id", "id"}, [][]domain.Value{
		{domain.TextValue("a"), domain.TextValue("b")},
	})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	ds, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if ds.Columns[1] != "id_2" {
		t.Fatalf("expected suffixed duplicate header, got %v", ds.Columns)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := New().Decode([]byte("not a workbook")); err == nil {
		t.Fatal("expected error for invalid workbook bytes")
	}
}
