package usecase

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

func TestEmitJSONPreservesColumnOrder(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"zeta", "alpha"},
		Rows: [][]domain.Value{
			{domain.TextValue("1"), domain.TextValue("x")},
		},
	}
	descs := []domain.ColumnDescriptor{
		{Name: "zeta", Type: domain.TypeInteger},
		{Name: "alpha", Type: domain.TypeText},
	}

	data, err := NewJSONEmitter().Emit(ds, descs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `[{"zeta":1,"alpha":"x"}]` {
		t.Fatalf("unexpected serialization: %s", data)
	}
}

func TestEmitJSONTypedValuesAndNulls(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"id", "score", "ok", "when", "name"},
		Rows: [][]domain.Value{
			{domain.TextValue("7"), domain.TextValue("1.5"), domain.TextValue("yes"), domain.TextValue("2024-01-02"), domain.Null()},
		},
	}
	descs := []domain.ColumnDescriptor{
		{Name: "id", Type: domain.TypeInteger},
		{Name: "score", Type: domain.TypeNumeric},
		{Name: "ok", Type: domain.TypeBoolean},
		{Name: "when", Type: domain.TypeDatetime},
		{Name: "name", Type: domain.TypeText},
	}

	data, err := NewJSONEmitter().Emit(ds, descs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("emitted JSON does not parse: %v", err)
	}
	rec := records[0]
	if rec["id"] != float64(7) {
		t.Fatalf("expected integer 7, got %v", rec["id"])
	}
	if rec["score"] != 1.5 {
		t.Fatalf("expected numeric 1.5, got %v", rec["score"])
	}
	if rec["ok"] != true {
		t.Fatalf("expected boolean true, got %v", rec["ok"])
	}
	if rec["when"] != "2024-01-02T00:00:00Z" {
		t.Fatalf("expected RFC 3339 datetime, got %v", rec["when"])
	}
	if rec["name"] != nil {
		t.Fatalf("expected null for missing cell, got %v", rec["name"])
	}
}

func TestEmitJSONStragglerDegradesToString(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"qty"},
		Rows: [][]domain.Value{
			{domain.TextValue("7")},
			{domain.TextValue("unknown")},
		},
	}
	descs := []domain.ColumnDescriptor{{Name: "qty", Type: domain.TypeInteger}}

	data, err := NewJSONEmitter().Emit(ds, descs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `[{"qty":7},{"qty":"unknown"}]` {
		t.Fatalf("unexpected serialization: %s", data)
	}
}

func TestEmitJSONIsDeterministic(t *testing.T) {
	ds := &domain.Dataset{
		Columns: []string{"a", "b", "c"},
		Rows: [][]domain.Value{
			{domain.TextValue("1"), domain.TextValue("x"), domain.TextValue("true")},
			{domain.TextValue("2"), domain.TextValue("y"), domain.TextValue("false")},
		},
	}
	descs := []domain.ColumnDescriptor{
		{Name: "a", Type: domain.TypeInteger},
		{Name: "b", Type: domain.TypeText},
		{Name: "c", Type: domain.TypeBoolean},
	}

	emitter := NewJSONEmitter()
	first, err := emitter.Emit(ds, descs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := emitter.Emit(ds, descs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("expected byte-identical output across runs")
	}
}
