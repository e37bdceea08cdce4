package ports

import (
	"context"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

// TabularConverter is the inbound contract for synchronous conversions.
// Exactly one of the three operations runs per request; each returns a full
// result with the metadata envelope.
type TabularConverter interface {
	ConvertToJSON(ctx context.Context, raw []byte, filename string, req domain.ConversionRequest) (*domain.ConversionResult, error)
	ConvertToSpreadsheet(ctx context.Context, jsonPayload []byte, req domain.ConversionRequest) (*domain.ConversionResult, error)
	ConvertToSQL(ctx context.Context, raw []byte, filename string, req domain.ConversionRequest) (*domain.ConversionResult, error)
}

// JobSubmitter is the inbound contract for asynchronous conversion
// submission.
type JobSubmitter interface {
	Submit(ctx context.Context, filename string, raw []byte, req domain.ConversionRequest) (*domain.ConversionJob, error)
}

// JobProcessor is the inbound contract for the worker side.
type JobProcessor interface {
	ProcessByID(ctx context.Context, jobID string) error
}

// JobReader is the inbound read model for job state.
type JobReader interface {
	GetByID(ctx context.Context, jobID string) (*domain.ConversionJob, error)
}
