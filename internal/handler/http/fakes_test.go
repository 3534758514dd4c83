package http

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	redisrepo "github.com/utafrali/quecomemoshoy/internal/repository/redis"
	"github.com/utafrali/quecomemoshoy/internal/service"
	"github.com/utafrali/quecomemoshoy/internal/storage/memory"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
	"github.com/utafrali/quecomemoshoy/pkg/health"
	"github.com/utafrali/quecomemoshoy/pkg/middleware"
)

const testStoreURL = "https://store.example.com"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// catalogStore is an in-memory catalog used by the handler tests.
type catalogStore struct {
	mu         sync.Mutex
	categories map[string]domain.Category
	products   map[string]domain.CatalogItem
	banners    map[string]domain.Banner
	faqs       map[string]domain.FAQ
	listErr    error
}

func newCatalogStore() *catalogStore {
	return &catalogStore{
		categories: map[string]domain.Category{},
		products:   map[string]domain.CatalogItem{},
		banners:    map[string]domain.Banner{},
		faqs:       map[string]domain.FAQ{},
	}
}

type fakeCategories struct{ *catalogStore }

func (f fakeCategories) Create(_ context.Context, c *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[c.ID] = *c
	return nil
}

func (f fakeCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	return &c, nil
}

func (f fakeCategories) Update(_ context.Context, c *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.categories[c.ID]
	if !ok {
		return apperrors.NotFound("category", c.ID)
	}
	old.Name = c.Name
	f.categories[c.ID] = old
	return nil
}

func (f fakeCategories) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.CategoryID == id {
			return apperrors.Conflict("category still has products")
		}
	}
	if _, ok := f.categories[id]; !ok {
		return apperrors.NotFound("category", id)
	}
	delete(f.categories, id)
	return nil
}

func (f fakeCategories) List(_ context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Collect(maps.Values(f.categories))
	slices.SortFunc(out, func(a, b domain.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

type fakeProducts struct{ *catalogStore }

func (f fakeProducts) Create(_ context.Context, p *domain.CatalogItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = *p
	return nil
}

func (f fakeProducts) GetByID(_ context.Context, id string) (*domain.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	p.CategoryName = f.categories[p.CategoryID].Name
	return &p, nil
}

func (f fakeProducts) Update(_ context.Context, p *domain.CatalogItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.products[p.ID]
	if !ok {
		return apperrors.NotFound("product", p.ID)
	}
	old.Name, old.UnitPrice, old.Description = p.Name, p.UnitPrice, p.Description
	old.Status, old.InStock, old.UpdatedAt = p.Status, p.InStock, p.UpdatedAt
	f.products[p.ID] = old
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(f.products, id)
	return nil
}

func (f fakeProducts) all() []domain.CatalogItem {
	out := make([]domain.CatalogItem, 0, len(f.products))
	for _, p := range f.products {
		p.CategoryName = f.categories[p.CategoryID].Name
		out = append(out, p)
	}
	return out
}

func (f fakeProducts) ListWithCategory(_ context.Context) ([]domain.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.all()
	slices.SortFunc(out, func(a, b domain.CatalogItem) int {
		if c := a.UnitPrice.Cmp(b.UnitPrice); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (f fakeProducts) ListByCategory(_ context.Context, categoryID string) ([]domain.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.DeleteFunc(f.all(), func(p domain.CatalogItem) bool { return p.CategoryID != categoryID })
	slices.SortFunc(out, func(a, b domain.CatalogItem) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

type fakeBanners struct{ *catalogStore }

func (f fakeBanners) Create(_ context.Context, b *domain.Banner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banners[b.ID] = *b
	return nil
}

func (f fakeBanners) Update(_ context.Context, b *domain.Banner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.banners[b.ID]; !ok {
		return apperrors.NotFound("banner", b.ID)
	}
	f.banners[b.ID] = *b
	return nil
}

func (f fakeBanners) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.banners[id]; !ok {
		return apperrors.NotFound("banner", id)
	}
	delete(f.banners, id)
	return nil
}

func (f fakeBanners) List(_ context.Context) ([]domain.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Collect(maps.Values(f.banners))
	slices.SortFunc(out, func(a, b domain.Banner) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

type fakeFAQs struct{ *catalogStore }

func (f fakeFAQs) Create(_ context.Context, q *domain.FAQ) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faqs[q.ID] = *q
	return nil
}

func (f fakeFAQs) Update(_ context.Context, q *domain.FAQ) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.faqs[q.ID]; !ok {
		return apperrors.NotFound("faq", q.ID)
	}
	f.faqs[q.ID] = *q
	return nil
}

func (f fakeFAQs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.faqs[id]; !ok {
		return apperrors.NotFound("faq", id)
	}
	delete(f.faqs, id)
	return nil
}

func (f fakeFAQs) sorted() []domain.FAQ {
	out := slices.Collect(maps.Values(f.faqs))
	slices.SortFunc(out, func(a, b domain.FAQ) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (f fakeFAQs) List(_ context.Context) ([]domain.FAQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(), nil
}

func (f fakeFAQs) ListActive(_ context.Context) ([]domain.FAQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.DeleteFunc(f.sorted(), func(q domain.FAQ) bool { return !q.Active }), nil
}

// testServer wires the full router over in-memory and miniredis backends.
type testServer struct {
	handler http.Handler
	store   *catalogStore
	objects *memory.Storage
	redis   *miniredis.Miniredis
	rotator *service.BannerRotator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithBuckets(t, "image", "slice")
}

func newTestServerWithBuckets(t *testing.T, buckets ...string) *testServer {
	t.Helper()
	logger := testLogger()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newCatalogStore()
	objects := memory.New(testStoreURL, buckets...)

	carts := service.NewCartService(redisrepo.NewCartRepository(client, time.Hour), fakeProducts{store}, time.Second, logger)
	t.Cleanup(carts.Close)
	chats := service.NewChatService(fakeFAQs{store}, 5*time.Millisecond, logger)
	t.Cleanup(chats.Close)
	rotator := service.NewBannerRotator(fakeBanners{store}, testStoreURL, "slice", time.Hour, logger)

	admin := service.NewAdminService(service.AdminDeps{
		Categories:    fakeCategories{store},
		Products:      fakeProducts{store},
		Banners:       fakeBanners{store},
		FAQs:          fakeFAQs{store},
		Confirmations: redisrepo.NewConfirmationRepository(client),
		Storage:       objects,
	}, service.AdminConfig{ProductBucket: "image", BannerBucket: "slice"}, logger)

	h := NewRouter(RouterDeps{
		Products: fakeProducts{store},
		Carts:    carts,
		Checkout: service.NewCheckoutService(carts, nil, "5493364188464", "", logger),
		Banner:   rotator,
		Chat:     chats,
		Admin:    admin,
		Health:   health.NewHandler(),
		CORS:     middleware.DefaultCORSConfig(),
		Logger:   logger,
	})

	return &testServer{handler: h, store: store, objects: objects, redis: mr, rotator: rotator}
}
