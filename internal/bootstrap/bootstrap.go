package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/matrixlabs/ai-converter/internal/config"
	"github.com/matrixlabs/ai-converter/internal/core/ports"
	"github.com/matrixlabs/ai-converter/internal/core/usecase"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/advisor/openaicompat"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/queue/nats"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/repository/postgres"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/resilience"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/storage/localfs"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/tabular/csvcodec"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/tabular/jsoncodec"
	"github.com/matrixlabs/ai-converter/internal/infrastructure/tabular/xlsxcodec"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.JobRepository
	Advisor   *openaicompat.Client
	ConvertUC ports.TabularConverter
	SubmitUC  ports.JobSubmitter
	ProcessUC ports.JobProcessor
	JobsUC    ports.JobReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewJobRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	guard := resilience.NewGuard("type-advisor", resilience.Config{
		RateLimitRPS: cfg.AdvisorRateRPS,
		RateBurst:    cfg.AdvisorRateBurst,
	}, openaicompat.RecordFailure)
	advisorTimeout := time.Duration(cfg.AdvisorTimeoutSeconds) * time.Second
	advisor := openaicompat.New(cfg.AdvisorURL, cfg.AdvisorModel, cfg.AdvisorAPIKey, advisorTimeout, guard)

	convertUC := usecase.NewConvertUseCase(
		advisor,
		csvcodec.NewDecoder(),
		xlsxcodec.New(),
		jsoncodec.NewDecoder(),
		xlsxcodec.New(),
		usecase.ConvertOptions{
			MaxInputSize:   cfg.MaxFileSize,
			AdvisorTimeout: advisorTimeout,
			Analyzer:       usecase.AnalyzerOptions{SampleSize: cfg.AnalyzerSampleSize},
			SQLBatchSize:   cfg.SQLInsertBatch,
		},
	)
	submitUC := usecase.NewSubmitJobUseCase(repo, storage, queue)
	processUC := usecase.NewProcessJobUseCase(repo, storage, convertUC)

	return &App{
		Config:  cfg,
		Queue:   queue,
		Repo:    repo,
		Advisor: advisor,

		ConvertUC: convertUC,
		SubmitUC:  submitUC,
		ProcessUC: processUC,
		JobsUC:    submitUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
