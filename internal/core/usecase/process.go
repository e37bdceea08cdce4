package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
	"github.com/matrixlabs/ai-converter/internal/core/ports"
)

// ProcessJobUseCase is the worker side of asynchronous conversions: load
// the stored upload, run the orchestrator, persist the payload and outcome.
type ProcessJobUseCase struct {
	repo      ports.JobRepository
	storage   ports.ObjectStorage
	converter ports.TabularConverter
}

func NewProcessJobUseCase(
	repo ports.JobRepository,
	storage ports.ObjectStorage,
	converter ports.TabularConverter,
) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		repo:      repo,
		storage:   storage,
		converter: converter,
	}
}

func (uc *ProcessJobUseCase) ProcessByID(ctx context.Context, jobID string) error {
	if err := uc.repo.UpdateStatus(ctx, jobID, domain.JobProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	job, result, err := uc.runPipeline(ctx, jobID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, jobID, domain.JobFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	uc.applyOutcome(job, result)
	if err := uc.repo.SaveOutcome(ctx, job); err != nil {
		return fmt.Errorf("save job outcome: %w", err)
	}
	return nil
}

func (uc *ProcessJobUseCase) runPipeline(ctx context.Context, jobID string) (*domain.ConversionJob, *domain.ConversionResult, error) {
	job, err := uc.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch job by id: %w", err)
	}

	raw, err := uc.loadPayload(ctx, job.StoragePath)
	if err != nil {
		return nil, nil, err
	}

	result, err := uc.convert(ctx, job, raw)
	if err != nil {
		return nil, nil, err
	}

	resultKey, err := uc.storeResult(ctx, job, result)
	if err != nil {
		return nil, nil, err
	}
	job.ResultPath = resultKey
	return job, result, nil
}

func (uc *ProcessJobUseCase) loadPayload(ctx context.Context, key string) ([]byte, error) {
	rc, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open stored upload: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read stored upload: %w", err)
	}
	return raw, nil
}

func (uc *ProcessJobUseCase) convert(ctx context.Context, job *domain.ConversionJob, raw []byte) (*domain.ConversionResult, error) {
	switch job.Request.TargetFormat {
	case domain.TargetJSON:
		return uc.converter.ConvertToJSON(ctx, raw, job.Filename, job.Request)
	case domain.TargetSpreadsheet:
		return uc.converter.ConvertToSpreadsheet(ctx, raw, job.Request)
	case domain.TargetSQL:
		return uc.converter.ConvertToSQL(ctx, raw, job.Filename, job.Request)
	default:
		return nil, domain.WrapError(domain.ErrValidation, "convert job",
			fmt.Errorf("unsupported target format %q", job.Request.TargetFormat))
	}
}

func (uc *ProcessJobUseCase) storeResult(ctx context.Context, job *domain.ConversionJob, result *domain.ConversionResult) (string, error) {
	var payload []byte
	var ext string
	switch {
	case len(result.Binary) > 0:
		payload, ext = result.Binary, "xlsx"
	case result.SQL != "":
		payload, ext = []byte(result.SQL), "sql"
	default:
		payload, ext = result.Data, "json"
	}

	key := fmt.Sprintf("%s_result.%s", job.ID, ext)
	if err := uc.storage.Save(ctx, key, bytes.NewReader(payload)); err != nil {
		return "", fmt.Errorf("save conversion output: %w", err)
	}
	return key, nil
}

func (uc *ProcessJobUseCase) applyOutcome(job *domain.ConversionJob, result *domain.ConversionResult) {
	meta := result.Metadata
	job.Status = domain.JobDone
	job.ProcessingMode = meta.AIUsage.ProcessingMode
	job.TriggerReason = meta.AIUsage.TriggerReason
	job.AIUsed = meta.AIUsage.AIUsed
	job.Confidence = meta.Confidence
	job.RecordCount = meta.RecordCount
	job.Issues = meta.AIUsage.IssuesDetected
	job.DurationMs = meta.ProcessingTimeMs
	job.UpdatedAt = time.Now().UTC()
}
