package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/pkg/database"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
)

const faqSelect = `SELECT id, question, answer, keywords, sort_order, active, created_at FROM faqs`

// FAQRepository implements repository.FAQRepository on PostgreSQL.
type FAQRepository struct {
	pool database.DBTX
}

// NewFAQRepository creates a new PostgreSQL-backed FAQ repository.
func NewFAQRepository(pool database.DBTX) *FAQRepository {
	return &FAQRepository{pool: pool}
}

// Create inserts a new FAQ.
func (r *FAQRepository) Create(ctx context.Context, f *domain.FAQ) (err error) {
	const query = `
		INSERT INTO faqs (id, question, answer, keywords, sort_order, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	ctx, end := database.TraceQuery(ctx, "CreateFAQ", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query, f.ID, f.Question, f.Answer, f.Keywords, f.Order, f.Active, f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("faq", "id", f.ID)
		}
		return fmt.Errorf("insert faq: %w", err)
	}
	return nil
}

// Update overwrites every editable field of a FAQ.
func (r *FAQRepository) Update(ctx context.Context, f *domain.FAQ) (err error) {
	const query = `
		UPDATE faqs
		SET question = $1, answer = $2, keywords = $3, sort_order = $4, active = $5
		WHERE id = $6`
	ctx, end := database.TraceQuery(ctx, "UpdateFAQ", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, f.Question, f.Answer, f.Keywords, f.Order, f.Active, f.ID)
	if err != nil {
		return fmt.Errorf("update faq: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("faq", f.ID)
	}
	return nil
}

// Delete removes a FAQ.
func (r *FAQRepository) Delete(ctx context.Context, id string) (err error) {
	const query = `DELETE FROM faqs WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteFAQ", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("faq", id)
	}
	return nil
}

// List returns every FAQ in display order.
func (r *FAQRepository) List(ctx context.Context) (_ []domain.FAQ, err error) {
	query := faqSelect + ` ORDER BY sort_order ASC, created_at ASC`
	ctx, end := database.TraceQuery(ctx, "ListFAQs", query)
	defer func() { end(err) }()

	return r.list(ctx, query)
}

// ListActive returns active FAQs in display order.
func (r *FAQRepository) ListActive(ctx context.Context) (_ []domain.FAQ, err error) {
	query := faqSelect + ` WHERE active = TRUE ORDER BY sort_order ASC, created_at ASC`
	ctx, end := database.TraceQuery(ctx, "ListActiveFAQs", query)
	defer func() { end(err) }()

	return r.list(ctx, query)
}

func (r *FAQRepository) list(ctx context.Context, query string) ([]domain.FAQ, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	defer rows.Close()

	faqs := make([]domain.FAQ, 0)
	for rows.Next() {
		var f domain.FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.Keywords, &f.Order, &f.Active, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan faq: %w", err)
		}
		faqs = append(faqs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faqs: %w", err)
	}
	return faqs, nil
}
