package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/pkg/apperror"
)

// price is stored as NUMERIC and read back through float8.
const productColumns = "id, name, price::float8, category, image_url, thumbnail_url, created_at, updated_at"

type postgresProductRepo struct {
	db *pgxpool.Pool
}

func NewPostgresProductRepo(db *pgxpool.Pool) product.Repository {
	return &postgresProductRepo{db: db}
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	p := &product.Product{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Category,
		&p.ImageURL,
		&p.ThumbnailURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func scanProducts(rows pgx.Rows) ([]*product.Product, error) {
	defer rows.Close()

	products := make([]*product.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *postgresProductRepo) Save(ctx context.Context, p *product.Product) error {
	query := `
		INSERT INTO products (name, price, category, image_url, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, p.Name, p.Price, p.Category, p.ImageURL, p.ThumbnailURL).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return apperror.NewInternal("failed to save product", err)
	}
	return nil
}

func (r *postgresProductRepo) Update(ctx context.Context, p *product.Product) error {
	query := `
		UPDATE products SET
			name = $2, price = $3, category = $4, image_url = $5, thumbnail_url = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, p.ID, p.Name, p.Price, p.Category, p.ImageURL, p.ThumbnailURL).
		Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFound("product", strconv.FormatInt(p.ID, 10))
		}
		return apperror.NewInternal("failed to update product", err)
	}
	return nil
}

func (r *postgresProductRepo) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return apperror.NewInternal("failed to delete product", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", strconv.FormatInt(id, 10))
	}
	return nil
}

func (r *postgresProductRepo) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	query, args, err := psql.Select(productColumns).From("products").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product query: %w", err)
	}
	p, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("product", strconv.FormatInt(id, 10))
		}
		return nil, apperror.NewInternal("failed to query product", err)
	}
	return p, nil
}

func (r *postgresProductRepo) List(ctx context.Context, f product.Filter) ([]*product.Product, error) {
	builder := psql.Select(productColumns).From("products").OrderBy("id ASC")
	if f.Category != "" {
		builder = builder.Where(sq.Eq{"category": f.Category})
	}
	if f.Limit > 0 {
		builder = builder.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		builder = builder.Offset(uint64(f.Offset))
	}
	return r.query(ctx, builder)
}

func (r *postgresProductRepo) ListNewest(ctx context.Context, limit int) ([]*product.Product, error) {
	builder := psql.Select(productColumns).
		From("products").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	return r.query(ctx, builder)
}

func (r *postgresProductRepo) query(ctx context.Context, builder sq.SelectBuilder) ([]*product.Product, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build products query: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to list products", err)
	}
	return scanProducts(rows)
}
