package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/pkg/database"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
)

// CategoryRepository implements repository.CategoryRepository on PostgreSQL.
type CategoryRepository struct {
	pool database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (err error) {
	const query = `INSERT INTO categories (id, name, created_at) VALUES ($1, $2, $3)`
	ctx, end := database.TraceQuery(ctx, "CreateCategory", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, c.ID, c.Name, c.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "id", c.ID)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by id.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (_ *domain.Category, err error) {
	const query = `SELECT id, name, created_at FROM categories WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetCategory", query)
	defer func() { end(err) }()

	var c domain.Category
	err = r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", id)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// Update renames a category.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (err error) {
	const query = `UPDATE categories SET name = $1 WHERE id = $2`
	ctx, end := database.TraceQuery(ctx, "UpdateCategory", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID)
	}
	return nil
}

// Delete removes a category. Categories that still hold products cannot be
// deleted.
func (r *CategoryRepository) Delete(ctx context.Context, id string) (err error) {
	const query = `DELETE FROM categories WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteCategory", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("category still has products")
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}
	return nil
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) (_ []domain.Category, err error) {
	const query = `SELECT id, name, created_at FROM categories ORDER BY name`
	ctx, end := database.TraceQuery(ctx, "ListCategories", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err = rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
