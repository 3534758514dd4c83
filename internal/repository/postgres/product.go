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

// productSelect is the joined column list shared by every product read.
const productSelect = `
	SELECT p.id, p.name, p.unit_price, p.description, p.image_url, p.category_id,
	       COALESCE(c.name, ''), p.status, p.in_stock, p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

// ProductRepository implements repository.ProductRepository on PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new catalog item.
func (r *ProductRepository) Create(ctx context.Context, p *domain.CatalogItem) (err error) {
	const query = `
		INSERT INTO products (id, name, unit_price, description, image_url, category_id,
			status, in_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.UnitPrice,
		p.Description,
		p.ImageURL,
		p.CategoryID,
		p.Status,
		p.InStock,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return apperrors.AlreadyExists("product", "id", p.ID)
		case isForeignKeyViolation(err):
			return apperrors.NotFound("category", p.CategoryID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a catalog item with its category name.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.CatalogItem, err error) {
	query := productSelect + ` WHERE p.id = $1`
	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update overwrites the editable fields of a catalog item.
func (r *ProductRepository) Update(ctx context.Context, p *domain.CatalogItem) (err error) {
	const query = `
		UPDATE products
		SET name = $1, unit_price = $2, description = $3, status = $4, in_stock = $5, updated_at = $6
		WHERE id = $7`
	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		p.Name,
		p.UnitPrice,
		p.Description,
		p.Status,
		p.InStock,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a catalog item.
func (r *ProductRepository) Delete(ctx context.Context, id string) (err error) {
	const query = `DELETE FROM products WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// ListWithCategory returns every item ordered by price, cheapest first.
func (r *ProductRepository) ListWithCategory(ctx context.Context) (_ []domain.CatalogItem, err error) {
	query := productSelect + ` ORDER BY p.unit_price ASC, p.name ASC`
	ctx, end := database.TraceQuery(ctx, "ListProductsWithCategory", query)
	defer func() { end(err) }()

	return r.list(ctx, query)
}

// ListByCategory returns one category's items ordered by name.
func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID string) (_ []domain.CatalogItem, err error) {
	query := productSelect + ` WHERE p.category_id = $1 ORDER BY p.name ASC`
	ctx, end := database.TraceQuery(ctx, "ListProductsByCategory", query)
	defer func() { end(err) }()

	return r.list(ctx, query, categoryID)
}

func (r *ProductRepository) list(ctx context.Context, query string, args ...any) ([]domain.CatalogItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CatalogItem, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return items, nil
}

func scanProduct(row pgx.Row) (*domain.CatalogItem, error) {
	var p domain.CatalogItem
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.UnitPrice,
		&p.Description,
		&p.ImageURL,
		&p.CategoryID,
		&p.CategoryName,
		&p.Status,
		&p.InStock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
