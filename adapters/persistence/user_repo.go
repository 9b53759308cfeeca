package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
)

const userColumns = "id, full_name, email, password_hash, phone, address, status, role, created_at, updated_at"

type postgresUserRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresUserRepo(db *pgxpool.Pool, log logger.Logger) user.Repository {
	return &postgresUserRepo{db: db, logger: log}
}

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.PasswordHash,
		&u.Phone,
		&u.Address,
		&u.Status,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *postgresUserRepo) findOne(ctx context.Context, ident string, where sq.Sqlizer) (*user.User, error) {
	return r.findOneBy(ctx, ident, psql.Select(userColumns).From("users").Where(where).Limit(1))
}

func (r *postgresUserRepo) findOneBy(ctx context.Context, ident string, builder sq.SelectBuilder) (*user.User, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", ident)
		}
		return nil, apperror.NewInternal("failed to query user", err)
	}
	return u, nil
}

func conflictFromConstraint(constraint string, u *user.User) error {
	if strings.Contains(constraint, "full_name") {
		return apperror.NewConflict("user", "full_name", u.FullName)
	}
	return apperror.NewConflict("user", "email", u.Email)
}

func (r *postgresUserRepo) Save(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, full_name, email, password_hash, phone, address, status, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Phone, u.Address,
		u.Status, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			return conflictFromConstraint(constraint, u)
		}
		return apperror.NewInternal("failed to save user", err)
	}
	return nil
}

func (r *postgresUserRepo) Upsert(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, full_name, email, password_hash, phone, address, status, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Phone, u.Address,
		u.Status, u.Role, u.CreatedAt, u.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			return conflictFromConstraint(constraint, u)
		}
		return apperror.NewInternal("failed to upsert user", err)
	}
	if id != u.ID {
		r.logger.Debug("Upsert matched existing user", zap.String("user_id", id.String()))
	}
	u.ID = id
	return nil
}

func (r *postgresUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, id.String(), sq.Eq{"id": id})
}

func (r *postgresUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, email, sq.Eq{"email": email})
}

func (r *postgresUserRepo) FindByLogin(ctx context.Context, identifier string) (*user.User, error) {
	builder := psql.Select(userColumns).
		From("users").
		Where(sq.Or{sq.Eq{"email": identifier}, sq.Eq{"full_name": identifier}}).
		OrderByClause("(email = ?) DESC", identifier).
		Limit(1)
	return r.findOneBy(ctx, identifier, builder)
}

func (r *postgresUserRepo) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	builder := psql.Select(userColumns).
		From("users").
		OrderBy("created_at ASC", "id ASC").
		Offset(uint64(offset))
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build users query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to list users", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
