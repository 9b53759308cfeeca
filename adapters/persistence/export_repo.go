package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lareyna/reyna-api/internal/domain/export"
	"github.com/lareyna/reyna-api/pkg/apperror"
)

type postgresExportRepo struct {
	db *pgxpool.Pool
}

func NewPostgresExportRepo(db *pgxpool.Pool) export.Repository {
	return &postgresExportRepo{db: db}
}

func (r *postgresExportRepo) Save(ctx context.Context, j *export.Job) error {
	query := `
		INSERT INTO export_jobs (id, kind, status, requested_by, file_url, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, j.ID, j.Kind, j.Status, nullUUID(j.RequestedBy), j.FileURL, j.Error, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return apperror.NewInternal("failed to save export job", err)
	}
	return nil
}

func (r *postgresExportRepo) Update(ctx context.Context, j *export.Job) error {
	query := `UPDATE export_jobs SET status = $2, file_url = $3, error = $4, updated_at = $5 WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, query, j.ID, j.Status, j.FileURL, j.Error, j.UpdatedAt)
	if err != nil {
		return apperror.NewInternal("failed to update export job", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("export job", j.ID.String())
	}
	return nil
}

func (r *postgresExportRepo) FindByID(ctx context.Context, id uuid.UUID) (*export.Job, error) {
	query := `
		SELECT id, kind, status, requested_by, file_url, error, created_at, updated_at
		FROM export_jobs WHERE id = $1
	`
	j := &export.Job{}
	var requestedBy *uuid.UUID
	err := r.db.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.Kind, &j.Status, &requestedBy, &j.FileURL, &j.Error, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("export job", id.String())
		}
		return nil, apperror.NewInternal("failed to query export job", err)
	}
	if requestedBy != nil {
		j.RequestedBy = *requestedBy
	}
	return j, nil
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
