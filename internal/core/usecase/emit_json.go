package usecase

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

// JSONEmitter renders a Dataset as an array of records. Keys follow the
// Dataset column order in every record, so repeated conversions of the same
// input are byte-identical.
type JSONEmitter struct{}

func NewJSONEmitter() *JSONEmitter { return &JSONEmitter{} }

func (e *JSONEmitter) Emit(ds *domain.Dataset, descriptors []domain.ColumnDescriptor) ([]byte, error) {
	if len(descriptors) != len(ds.Columns) {
		return nil, domain.WrapError(domain.ErrEmission, "emit json",
			fmt.Errorf("descriptor/column mismatch: %d/%d", len(descriptors), len(ds.Columns)))
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for row := range ds.Rows {
		if row > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for col, name := range ds.Columns {
			if col > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return nil, domain.WrapError(domain.ErrEmission, "emit json", err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSONValue(&buf, ds.Cell(row, col), descriptors[col].Type); err != nil {
				return nil, domain.WrapError(domain.ErrEmission, "emit json", err)
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, v domain.Value, t domain.ColumnType) error {
	if v.IsNull() {
		buf.WriteString("null")
		return nil
	}
	cv := coerceValue(v, t)
	switch cv.Kind {
	case domain.KindBool:
		buf.WriteString(strconv.FormatBool(cv.Bool))
	case domain.KindNumber:
		if t == domain.TypeInteger && cv.Num == float64(int64(cv.Num)) {
			buf.WriteString(strconv.FormatInt(int64(cv.Num), 10))
			return nil
		}
		buf.WriteString(strconv.FormatFloat(cv.Num, 'f', -1, 64))
	case domain.KindTime:
		encoded, err := json.Marshal(cv.Time.Format(time.RFC3339))
		if err != nil {
			return err
		}
		buf.Write(encoded)
	default:
		encoded, err := json.Marshal(cv.Text)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	}
	return nil
}
