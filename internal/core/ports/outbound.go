package ports

import (
	"context"
	"io"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

// TypeAdvisor is the AI augmentation capability. Implementations must
// respect the context deadline and must not mutate the request; failure is
// an ordinary error the orchestrator always absorbs.
type TypeAdvisor interface {
	Suggest(ctx context.Context, req domain.AdviceRequest) (domain.Advice, error)
}

// TabularDecoder turns raw source bytes into a Dataset.
type TabularDecoder interface {
	Decode(raw []byte) (*domain.Dataset, error)
}

// SpreadsheetEncoder renders header + rows into workbook bytes.
type SpreadsheetEncoder interface {
	Encode(header []string, rows [][]domain.Value) ([]byte, error)
}

// JobRepository persists conversion job state.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ConversionJob) error
	GetByID(ctx context.Context, id string) (*domain.ConversionJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error
	SaveOutcome(ctx context.Context, job *domain.ConversionJob) error
}

// ObjectStorage stores uploaded payloads and conversion outputs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes conversion job events.
type MessageQueue interface {
	PublishJobQueued(ctx context.Context, jobID string) error
	SubscribeJobQueued(ctx context.Context, handler func(context.Context, string) error) error
}
