package usecase

import (
	"strconv"
	"strings"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

// coerceValue converts a cell toward the column's final inferred type.
// Values that do not fit degrade to their text rendering instead of failing
// the emission: inference is sampled, so stragglers are expected.
func coerceValue(v domain.Value, t domain.ColumnType) domain.Value {
	if v.IsNull() {
		return v
	}
	switch t {
	case domain.TypeInteger, domain.TypeNumeric:
		if v.Kind == domain.KindNumber {
			return v
		}
		if v.Kind == domain.KindText {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64); err == nil {
				return domain.NumberValue(f)
			}
		}
	case domain.TypeBoolean:
		if v.Kind == domain.KindBool {
			return v
		}
		if v.Kind == domain.KindText {
			switch strings.ToLower(strings.TrimSpace(v.Text)) {
			case "true", "yes", "t":
				return domain.BoolValue(true)
			case "false", "no", "f":
				return domain.BoolValue(false)
			}
		}
	case domain.TypeDatetime:
		if v.Kind == domain.KindTime {
			return v
		}
		if v.Kind == domain.KindText {
			if ts, ok := parseDatetime(strings.TrimSpace(v.Text)); ok {
				return domain.TimeValue(ts)
			}
		}
	}
	return domain.TextValue(v.String())
}
