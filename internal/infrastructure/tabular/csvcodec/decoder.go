// Package csvcodec decodes CSV payloads into datasets. Input is expected to
// be UTF-8; payloads that are not valid UTF-8 are re-decoded as Latin-1 so a
// stray export never aborts a conversion.
package csvcodec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Decoder struct {
	comma rune
}

func NewDecoder() *Decoder {
	return &Decoder{comma: ','}
}

func NewDecoderWithComma(comma rune) *Decoder {
	if comma == 0 {
		comma = ','
	}
	return &Decoder{comma: comma}
}

func (d *Decoder) Decode(raw []byte) (*domain.Dataset, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
		if err != nil {
			return nil, fmt.Errorf("charset fallback: %w", err)
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = d.comma
	reader.FieldsPerRecord = -1 // ragged rows are padded with nulls later

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	ds := &domain.Dataset{Columns: uniqueHeaders(header)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(ds.Rows)+2, err)
		}
		ds.Rows = append(ds.Rows, toRow(record, len(ds.Columns)))
	}
	return ds, nil
}

func toRow(record []string, width int) []domain.Value {
	row := make([]domain.Value, width)
	for i := range row {
		if i >= len(record) || record[i] == "" {
			row[i] = domain.Null()
			continue
		}
		row[i] = domain.TextValue(record[i])
	}
	return row
}

// uniqueHeaders keeps the raw names but suffixes repeats so record keys stay
// unique in JSON output. SQL-level collisions are handled separately by
// identifier sanitization.
func uniqueHeaders(header []string) []string {
	out := make([]string, 0, len(header))
	used := map[string]bool{}
	for i, name := range header {
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = name + "_" + strconv.Itoa(n)
		}
		used[candidate] = true
		out = append(out, candidate)
	}
	return out
}
