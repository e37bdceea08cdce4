package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/matrixlabs/ai-converter/internal/core/domain"
)

// JobRepository persists conversion job state and outcomes.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversion_jobs (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	request JSONB NOT NULL,
	status TEXT NOT NULL,
	processing_mode TEXT,
	trigger_reason TEXT,
	ai_used BOOLEAN NOT NULL DEFAULT FALSE,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	record_count INTEGER NOT NULL DEFAULT 0,
	issues JSONB NOT NULL DEFAULT '[]'::jsonb,
	result_path TEXT,
	error_message TEXT,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversion_jobs_status ON conversion_jobs(status);
CREATE INDEX IF NOT EXISTS idx_conversion_jobs_created_at ON conversion_jobs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *JobRepository) Create(ctx context.Context, job *domain.ConversionJob) error {
	requestJSON, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO conversion_jobs (
	id, filename, storage_path, request, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		job.ID, job.Filename, job.StoragePath, requestJSON, string(job.Status), job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ConversionJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, storage_path, request, status, processing_mode, trigger_reason, ai_used,
	confidence, record_count, issues, result_path, error_message, duration_ms, created_at, updated_at
FROM conversion_jobs
WHERE id = $1
`, id)

	var job domain.ConversionJob
	var requestRaw, issuesRaw []byte
	var status string
	var mode, trigger, resultPath, errMessage sql.NullString

	err := row.Scan(
		&job.ID, &job.Filename, &job.StoragePath, &requestRaw, &status, &mode, &trigger, &job.AIUsed,
		&job.Confidence, &job.RecordCount, &issuesRaw, &resultPath, &errMessage, &job.DurationMs,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "fetch job", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if err := json.Unmarshal(requestRaw, &job.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if len(issuesRaw) > 0 {
		if err := json.Unmarshal(issuesRaw, &job.Issues); err != nil {
			return nil, fmt.Errorf("unmarshal issues: %w", err)
		}
	}
	job.Status = domain.JobStatus(status)
	job.ProcessingMode = domain.ProcessingMode(mode.String)
	job.TriggerReason = domain.TriggerReason(trigger.String)
	job.ResultPath = resultPath.String
	job.Error = errMessage.String
	return &job, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE conversion_jobs
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("status rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrJobNotFound, "update job status", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *JobRepository) SaveOutcome(ctx context.Context, job *domain.ConversionJob) error {
	issuesJSON, err := json.Marshal(job.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}
	if job.Issues == nil {
		issuesJSON = []byte("[]")
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE conversion_jobs
SET status = $2, processing_mode = $3, trigger_reason = $4, ai_used = $5, confidence = $6,
	record_count = $7, issues = $8, result_path = $9, duration_ms = $10, updated_at = $11
WHERE id = $1
`,
		job.ID, string(job.Status), string(job.ProcessingMode), string(job.TriggerReason), job.AIUsed,
		job.Confidence, job.RecordCount, issuesJSON, job.ResultPath, job.DurationMs, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save job outcome: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("outcome rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrJobNotFound, "save job outcome", fmt.Errorf("id %s", job.ID))
	}
	return nil
}
