package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	UserEventRegistered = "user.registered"

	ProductEventCreated       = "product.created"
	ProductEventUpdated       = "product.updated"
	ProductEventDeleted       = "product.deleted"
	ProductEventImageUploaded = "product.image_uploaded"

	ExportEventRequested = "export.requested"
)

type UserEvent struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ProductEvent struct {
	Type          string    `json:"type"`
	ProductID     int64     `json:"product_id"`
	ImagePublicID string    `json:"image_public_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type ExportEvent struct {
	Type       string    `json:"type"`
	JobID      uuid.UUID `json:"job_id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishUserEvent(ctx context.Context, e UserEvent) error
	PublishProductEvent(ctx context.Context, e ProductEvent) error
	PublishExportEvent(ctx context.Context, e ExportEvent) error
}
