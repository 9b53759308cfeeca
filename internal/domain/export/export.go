package export

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindProducts Kind = "products"
	KindUsers    Kind = "users"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Job struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	Status      Status    `json:"status"`
	RequestedBy uuid.UUID `json:"requested_by"`
	FileURL     *string   `json:"file_url"`
	Error       *string   `json:"error"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrInvalidKind = errors.New("export kind must be products or users")
	ErrJobNotFound = errors.New("export job not found")
	ErrJobFinished = errors.New("export job already finished")
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindProducts, KindUsers:
		return Kind(s), nil
	}
	return "", ErrInvalidKind
}

func NewJob(kind Kind, requestedBy uuid.UUID, now time.Time) *Job {
	return &Job{
		ID:          uuid.New(),
		Kind:        kind,
		Status:      StatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

func (j *Job) Start(now time.Time) error {
	if j.Finished() {
		return ErrJobFinished
	}
	j.Status = StatusProcessing
	j.UpdatedAt = now
	return nil
}

func (j *Job) Complete(url string, now time.Time) {
	j.Status = StatusCompleted
	j.FileURL = &url
	j.Error = nil
	j.UpdatedAt = now
}

func (j *Job) Fail(cause error, now time.Time) {
	msg := cause.Error()
	j.Status = StatusFailed
	j.Error = &msg
	j.UpdatedAt = now
}

type Repository interface {
	Save(ctx context.Context, j *Job) error
	Update(ctx context.Context, j *Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)
}
