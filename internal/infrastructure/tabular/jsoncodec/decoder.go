// Package jsoncodec decodes a JSON array of objects (or a single object)
// into a dataset. Column order is the first-seen key order across the whole
// payload, which a plain map decode would destroy, so the decoder walks
// tokens instead.
package jsoncodec

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

type field struct {
	key   string
	value domain.Value
}

func (d *Decoder) Decode(raw []byte) (*domain.Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	var records [][]field
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			for dec.More() {
				rec, err := decodeObject(dec)
				if err != nil {
					return nil, err
				}
				records = append(records, rec)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("close array: %w", err)
			}
		case '{':
			// A single object converts as a one-record payload.
			rec, err := decodeObjectBody(dec)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		return nil, errors.New("payload must be a JSON array of objects or a single object")
	}

	return assemble(records), nil
}

func decodeObject(dec *json.Decoder) ([]field, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("array element is not an object: %v", tok)
	}
	return decodeObjectBody(dec)
}

func decodeObjectBody(dec *json.Decoder) ([]field, error) {
	var fields []field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		raw, err := decodeAny(dec)
		if err != nil {
			return nil, fmt.Errorf("read value for %q: %w", key, err)
		}
		v, err := toValue(raw)
		if err != nil {
			return nil, fmt.Errorf("convert value for %q: %w", key, err)
		}
		fields = append(fields, field{key: key, value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("close object: %w", err)
	}
	return fields, nil
}

// decodeAny consumes one JSON value, materializing nested containers so
// they can be flattened to text.
func decodeAny(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		m := map[string]interface{}{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("nested key is not a string: %v", keyTok)
			}
			val, err := decodeAny(dec)
			if err != nil {
				return nil, err
			}
			m[key] = val
		}
		_, err := dec.Token()
		return m, err
	case '[':
		var s []interface{}
		for dec.More() {
			val, err := decodeAny(dec)
			if err != nil {
				return nil, err
			}
			s = append(s, val)
		}
		_, err := dec.Token()
		return s, err
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

// toValue maps a decoded JSON scalar onto the closed cell variant. Nested
// objects and arrays flatten to their compact JSON text.
func toValue(raw interface{}) (domain.Value, error) {
	switch v := raw.(type) {
	case nil:
		return domain.Null(), nil
	case bool:
		return domain.BoolValue(v), nil
	case float64:
		return domain.NumberValue(v), nil
	case string:
		if v == "" {
			return domain.Null(), nil
		}
		return domain.TextValue(v), nil
	default:
		flat, err := json.Marshal(v)
		if err != nil {
			return domain.Value{}, err
		}
		return domain.TextValue(string(flat)), nil
	}
}

func assemble(records [][]field) *domain.Dataset {
	ds := &domain.Dataset{}
	index := map[string]int{}
	for _, rec := range records {
		for _, f := range rec {
			if _, ok := index[f.key]; !ok {
				index[f.key] = len(ds.Columns)
				ds.Columns = append(ds.Columns, f.key)
			}
		}
	}

	for _, rec := range records {
		row := make([]domain.Value, len(ds.Columns))
		for i := range row {
			row[i] = domain.Null()
		}
		for _, f := range rec {
			row[index[f.key]] = f.value
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}
