// Package xlsxcodec converts between workbook bytes and datasets using
// excelize. Decoding reads the first sheet; encoding writes a single "Data"
// sheet with a styled header row.
package xlsxcodec

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

const sheetName = "Data"

type Codec struct{}

func New() *Codec { return &Codec{} }

func (c *Codec) Decode(raw []byte) (*domain.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("sheet has no header row")
	}

	ds := &domain.Dataset{Columns: uniqueHeaders(rows[0])}
	for _, record := range rows[1:] {
		row := make([]domain.Value, len(ds.Columns))
		for i := range row {
			if i >= len(record) || record[i] == "" {
				row[i] = domain.Null()
				continue
			}
			row[i] = domain.TextValue(record[i])
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// Encode renders header + rows into xlsx bytes. Null cells stay blank, they
// are never rendered as "0" or "null".
func (c *Codec) Encode(header []string, rows [][]domain.Value) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headerCells := make([]interface{}, len(header))
	for i, name := range header {
		headerCells[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerCells); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := c.styleHeader(f, len(header)); err != nil {
		return nil, err
	}

	for r, row := range rows {
		cells := make([]interface{}, len(header))
		for i := range cells {
			if i >= len(row) {
				continue
			}
			cells[i] = cellValue(row[i])
		}
		anchor, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, fmt.Errorf("row anchor: %w", err)
		}
		if err := f.SetSheetRow(sheetName, anchor, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) styleHeader(f *excelize.File, width int) error {
	if width == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"CCCCCC"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	end, err := excelize.CoordinatesToCellName(width, 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", end, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return nil
}

func cellValue(v domain.Value) interface{} {
	switch v.Kind {
	case domain.KindNull:
		return nil
	case domain.KindBool:
		return v.Bool
	case domain.KindNumber:
		return v.Num
	case domain.KindTime:
		return v.Time
	default:
		return v.Text
	}
}

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
