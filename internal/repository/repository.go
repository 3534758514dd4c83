package repository

import (
	"context"
	"time"

	"github.com/utafrali/quecomemoshoy/internal/domain"
)

// CategoryRepository defines persistence for menu categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
	// List returns all categories ordered by name.
	List(ctx context.Context) ([]domain.Category, error)
}

// ProductRepository defines persistence for catalog items.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.CatalogItem) error
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	Update(ctx context.Context, p *domain.CatalogItem) error
	Delete(ctx context.Context, id string) error

	// ListWithCategory returns every item joined with its category name,
	// ordered by unit price ascending.
	ListWithCategory(ctx context.Context) ([]domain.CatalogItem, error)

	// ListByCategory returns the items of one category ordered by name.
	ListByCategory(ctx context.Context, categoryID string) ([]domain.CatalogItem, error)
}

// BannerRepository defines persistence for slider images.
type BannerRepository interface {
	Create(ctx context.Context, b *domain.Banner) error
	Update(ctx context.Context, b *domain.Banner) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Banner, error)
}

// FAQRepository defines persistence for chat answers.
type FAQRepository interface {
	Create(ctx context.Context, f *domain.FAQ) error
	Update(ctx context.Context, f *domain.FAQ) error
	Delete(ctx context.Context, id string) error
	// List returns every FAQ ordered by its display order.
	List(ctx context.Context) ([]domain.FAQ, error)
	// ListActive returns active FAQs ordered by their display order.
	ListActive(ctx context.Context) ([]domain.FAQ, error)
}

// CartRepository stores serialised carts by session id.
type CartRepository interface {
	// Load returns the stored cart. A missing key yields (nil, false, nil).
	Load(ctx context.Context, sessionID string) (*domain.Cart, bool, error)
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// ConfirmationRepository stores single-use delete confirmation tokens.
type ConfirmationRepository interface {
	// Issue stores token for (entity, id), replacing any earlier one.
	Issue(ctx context.Context, entity, id, token string, ttl time.Duration) error
	// Consume deletes the stored token and reports whether it matched.
	Consume(ctx context.Context, entity, id, token string) (bool, error)
}
