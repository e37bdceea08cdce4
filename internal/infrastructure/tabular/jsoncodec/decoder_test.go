package jsoncodec

import (
	"testing"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

func TestDecodePreservesFirstSeenKeyOrder(t *testing.T) {
	raw := []byte(`[{"zeta":1,"alpha":"x"},{"alpha":"y","beta":true}]`)
	ds, err := NewDecoder().Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"zeta", "alpha", "beta"}
	if len(ds.Columns) != len(expected) {
		t.Fatalf("expected columns %v, got %v", expected, ds.Columns)
	}
	for i, want := range expected {
		if ds.Columns[i] != want {
			t.Fatalf("column %d: expected %q, got %q", i, want, ds.Columns[i])
		}
	}
}

func TestDecodeScalarKinds(t *testing.T) {
	raw := []byte(`[{"n":1.5,"b":false,"s":"hi","missing":null,"empty":""}]`)
	ds, err := NewDecoder().Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := ds.Rows[0]
	if row[0].Kind != domain.KindNumber || row[0].Num != 1.5 {
		t.Fatalf("expected number 1.5, got %+v", row[0])
	}
	if row[1].Kind != domain.KindBool || row[1].Bool {
		t.Fatalf("expected bool false, got %+v", row[1])
	}
	if row[2].Kind != domain.KindText || row[2].Text != "hi" {
		t.Fatalf("expected text hi, got %+v", row[2])
	}
	if !row[3].IsNull() {
		t.Fatalf("expected null, got %+v", row[3])
	}
	if !row[4].IsNull() {
		t.Fatalf("expected empty string normalized to null, got %+v", row[4])
	}
}

func TestDecodeAbsentKeysAreNull(t *testing.T) {
	raw := []byte(`[{"a":1,"b":2},{"a":3}]`)
	ds, err := NewDecoder().Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ds.Cell(1, 1).IsNull() {
		t.Fatalf("expected null for absent key, got %+v", ds.Cell(1, 1))
	}
}

func TestDecodeSingleObjectIsOneRecord(t *testing.T) {
	ds, err := NewDecoder().Decode([]byte(`{"a":1,"b":"x"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.RowCount() != 1 {
		t.Fatalf("expected one record, got %d", ds.RowCount())
	}
}

func TestDecodeNestedContainersFlattenToText(t *testing.T) {
	raw := []byte(`[{"meta":{"k":1},"tags":[1,2]}]`)
	ds, err := NewDecoder().Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta := ds.Cell(0, 0)
	if meta.Kind != domain.KindText {
		t.Fatalf("expected nested object flattened to text, got %+v", meta)
	}
	if meta.Text != `{"k":1}` {
		t.Fatalf("unexpected flattened object: %q", meta.Text)
	}
	tags := ds.Cell(0, 1)
	if tags.Text != `[1,2]` {
		t.Fatalf("unexpected flattened array: %q", tags.Text)
	}
}

func TestDecodeRejectsScalarPayload(t *testing.T) {
	if _, err := NewDecoder().Decode([]byte(`42`)); err == nil {
		t.Fatal("expected error for a scalar payload")
	}
}
