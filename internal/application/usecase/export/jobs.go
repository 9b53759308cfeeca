package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/application/service"
	domain "github.com/lareyna/reyna-api/internal/domain/export"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

type RequestExportUseCase struct {
	jobRepo   domain.Repository
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewRequestExportUseCase(jobRepo domain.Repository, publisher service.EventPublisher, log logger.Logger) *RequestExportUseCase {
	return &RequestExportUseCase{jobRepo: jobRepo, publisher: publisher, logger: log}
}

type RequestExportInput struct {
	Kind        string
	RequestedBy uuid.UUID
}

// Execute records a pending job and hands it to the worker. Unlike the
// other events, a failed publish fails the request: without the event the
// job would stay pending forever.
func (uc *RequestExportUseCase) Execute(ctx context.Context, input RequestExportInput) (*domain.Job, error) {
	kind, err := domain.ParseKind(input.Kind)
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	now := time.Now().UTC()
	job := domain.NewJob(kind, input.RequestedBy, now)
	if err := uc.jobRepo.Save(ctx, job); err != nil {
		return nil, err
	}

	err = uc.publisher.PublishExportEvent(ctx, service.ExportEvent{
		Type:       service.ExportEventRequested,
		JobID:      job.ID,
		Kind:       string(kind),
		OccurredAt: now,
	})
	if err != nil {
		job.Fail(fmt.Errorf("could not queue export: %w", err), time.Now().UTC())
		if uErr := uc.jobRepo.Update(ctx, job); uErr != nil {
			uc.logger.Error("Failed to mark unqueued export job as failed", uErr, zap.String("job_id", job.ID.String()))
		}
		return nil, apperror.NewInternal("failed to queue export job", err)
	}

	uc.logger.Info("Export job queued", zap.String("job_id", job.ID.String()), zap.String("kind", string(kind)))
	return job, nil
}

type GetExportJobUseCase struct {
	jobRepo domain.Repository
}

func NewGetExportJobUseCase(jobRepo domain.Repository) *GetExportJobUseCase {
	return &GetExportJobUseCase{jobRepo: jobRepo}
}

func (uc *GetExportJobUseCase) Execute(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return uc.jobRepo.FindByID(ctx, id)
}

// ProcessExportUseCase runs in the worker for each export.requested event.
type ProcessExportUseCase struct {
	jobRepo  domain.Repository
	builder  *BuildWorkbookUseCase
	uploader service.Uploader
	logger   logger.Logger
}

func NewProcessExportUseCase(jobRepo domain.Repository, builder *BuildWorkbookUseCase, uploader service.Uploader, log logger.Logger) *ProcessExportUseCase {
	return &ProcessExportUseCase{jobRepo: jobRepo, builder: builder, uploader: uploader, logger: log}
}

// Execute returns an error only when the job could not be loaded or saved,
// which is worth retrying. Rendering and upload failures are recorded on the
// job itself.
func (uc *ProcessExportUseCase) Execute(ctx context.Context, e service.ExportEvent) error {
	ctx, span := tracer.Start(ctx, "ProcessExport")
	defer span.End()

	log := uc.logger.With(zap.String("job_id", e.JobID.String()))

	job, err := uc.jobRepo.FindByID(ctx, e.JobID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Warn("Export job not found, skipping")
			return nil
		}
		return fmt.Errorf("load export job: %w", err)
	}

	if err := job.Start(time.Now().UTC()); err != nil {
		log.Info("Export job already finished, skipping", zap.String("status", string(job.Status)))
		return nil
	}
	if err := uc.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}

	url, runErr := uc.run(ctx, job)
	if runErr != nil {
		span.RecordError(runErr)
		log.Error("Export job failed", runErr)
		job.Fail(runErr, time.Now().UTC())
	} else {
		job.Complete(url, time.Now().UTC())
		log.Info("Export job completed", zap.String("url", url))
	}

	if err := uc.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("save export job result: %w", err)
	}
	return nil
}

func (uc *ProcessExportUseCase) run(ctx context.Context, job *domain.Job) (string, error) {
	file, err := uc.builder.Execute(ctx, job.Kind)
	if err != nil {
		return "", err
	}

	folder := fmt.Sprintf("exports/%s", job.Kind)
	publicID := fmt.Sprintf("%s-%s", job.ID, file.Name)
	url, err := uc.uploader.Upload(ctx, bytes.NewReader(file.Data), folder, publicID)
	if err != nil {
		return "", fmt.Errorf("upload workbook: %w", err)
	}
	return url, nil
}
