package domain

import "time"

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// ConversionJob is the persisted record of an asynchronous conversion: the
// stored upload, the request parameters, and, once processed, the outcome
// summary from the metadata envelope.
type ConversionJob struct {
	ID          string            `json:"id"`
	Filename    string            `json:"filename"`
	StoragePath string            `json:"storage_path"`
	Request     ConversionRequest `json:"request"`
	Status      JobStatus         `json:"status"`

	ProcessingMode ProcessingMode `json:"processing_mode,omitempty"`
	TriggerReason  TriggerReason  `json:"trigger_reason,omitempty"`
	AIUsed         bool           `json:"ai_used"`
	Confidence     float64        `json:"confidence"`
	RecordCount    int            `json:"record_count"`
	Issues         []string       `json:"issues,omitempty"`
	ResultPath     string         `json:"result_path,omitempty"`
	Error          string         `json:"error,omitempty"`
	DurationMs     int64          `json:"duration_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
