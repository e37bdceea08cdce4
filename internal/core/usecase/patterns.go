package usecase

import "github.com/matrixlabs/ai-converter/internal/core/domain"

// detectPatterns labels coarse structural traits of the input. The labels
// feed the metadata envelope only; nothing downstream branches on them.
func detectPatterns(ds *domain.Dataset, descriptors []domain.ColumnDescriptor) []string {
	var patterns []string

	switch {
	case len(ds.Columns) > 5:
		patterns = append(patterns, "complex_structure")
	case len(ds.Columns) <= 3:
		patterns = append(patterns, "simple_structure")
	}

	totalCells := ds.RowCount() * ds.ColumnCount()
	if totalCells > 0 {
		missing := 0.0
		for _, d := range descriptors {
			missing += d.MissingRatio * float64(ds.RowCount())
		}
		pct := missing / float64(totalCells) * 100
		switch {
		case pct > 10:
			patterns = append(patterns, "missing_values")
		case pct == 0:
			patterns = append(patterns, "complete_data")
		}
	}

	switch {
	case ds.RowCount() > 1000:
		patterns = append(patterns, "large_dataset")
	case ds.RowCount() < 50:
		patterns = append(patterns, "small_dataset")
	}

	for _, d := range descriptors {
		if d.Type == domain.TypeNumeric || d.Type == domain.TypeInteger {
			patterns = append(patterns, "numeric_data")
			break
		}
	}
	return patterns
}
