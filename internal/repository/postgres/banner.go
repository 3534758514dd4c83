package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/pkg/database"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
)

// BannerRepository implements repository.BannerRepository on PostgreSQL.
type BannerRepository struct {
	pool database.DBTX
}

// NewBannerRepository creates a new PostgreSQL-backed banner repository.
func NewBannerRepository(pool database.DBTX) *BannerRepository {
	return &BannerRepository{pool: pool}
}

// Create inserts a new banner.
func (r *BannerRepository) Create(ctx context.Context, b *domain.Banner) (err error) {
	const query = `INSERT INTO banners (id, image_url, created_at) VALUES ($1, $2, $3)`
	ctx, end := database.TraceQuery(ctx, "CreateBanner", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, b.ID, b.ImageURL, b.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("banner", "id", b.ID)
		}
		return fmt.Errorf("insert banner: %w", err)
	}
	return nil
}

// Update replaces the image reference of a banner.
func (r *BannerRepository) Update(ctx context.Context, b *domain.Banner) (err error) {
	const query = `UPDATE banners SET image_url = $1 WHERE id = $2`
	ctx, end := database.TraceQuery(ctx, "UpdateBanner", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, b.ImageURL, b.ID)
	if err != nil {
		return fmt.Errorf("update banner: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("banner", b.ID)
	}
	return nil
}

// Delete removes a banner.
func (r *BannerRepository) Delete(ctx context.Context, id string) (err error) {
	const query = `DELETE FROM banners WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteBanner", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("banner", id)
	}
	return nil
}

// List returns every banner, oldest first.
func (r *BannerRepository) List(ctx context.Context) (_ []domain.Banner, err error) {
	const query = `SELECT id, image_url, created_at FROM banners ORDER BY created_at ASC`
	ctx, end := database.TraceQuery(ctx, "ListBanners", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	defer rows.Close()

	banners := make([]domain.Banner, 0)
	for rows.Next() {
		var b domain.Banner
		if err = rows.Scan(&b.ID, &b.ImageURL, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan banner: %w", err)
		}
		banners = append(banners, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate banners: %w", err)
	}
	return banners, nil
}
