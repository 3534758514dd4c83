package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/event"
	"github.com/utafrali/quecomemoshoy/internal/repository"
	"github.com/utafrali/quecomemoshoy/internal/storage"
	"github.com/utafrali/quecomemoshoy/internal/storage/imageopt"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
	"github.com/utafrali/quecomemoshoy/pkg/slug"
	"github.com/utafrali/quecomemoshoy/pkg/validator"
)

// ConfirmationTTL is how long a delete confirmation token stays valid.
const ConfirmationTTL = 5 * time.Minute

// Entities that can be deleted through the admin console.
const (
	EntityCategory = "category"
	EntityProduct  = "product"
	EntityBanner   = "banner"
	EntityFAQ      = "faq"
)

// bannerKeyPrefix prefixes every banner object key.
const bannerKeyPrefix = "slice_"

// --- Inputs ---

// CategoryInput holds the fields of a category.
type CategoryInput struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// Image is an uploaded file as received from a multipart form.
type Image struct {
	FileName string
	Data     io.Reader
}

// CreateProductInput holds the fields of a new catalog item.
type CreateProductInput struct {
	Name        string `json:"name" form:"name" validate:"notblank,max=200"`
	Price       string `json:"price" form:"price" validate:"required,money"`
	Description string `json:"description" form:"description" validate:"max=2000"`
	CategoryID  string `json:"category_id" form:"category_id" validate:"notblank"`
	Image       *Image `form:"image" validate:"required"`
}

// UpdateProductInput holds the editable fields of a catalog item.
type UpdateProductInput struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	Price       string `json:"price" validate:"required,money"`
	Description string `json:"description" validate:"max=2000"`
	Status      string `json:"status" validate:"required,oneof=active inactive"`
	InStock     bool   `json:"in_stock"`
}

// BannerUploadInput holds a new banner image.
type BannerUploadInput struct {
	Image *Image `form:"image" validate:"required"`
}

// UpdateBannerInput replaces the image reference of a banner.
type UpdateBannerInput struct {
	ImageURL string `json:"image_url" validate:"notblank,max=2048"`
}

// FAQInput holds the fields of a FAQ entry.
type FAQInput struct {
	Question string `json:"question" validate:"notblank,max=500"`
	Answer   string `json:"answer" validate:"notblank,max=4000"`
	Keywords string `json:"keywords" validate:"max=1000"`
	Order    int    `json:"order" validate:"gte=0"`
	Active   bool   `json:"active"`
}

// DeleteRequest is returned when a delete is requested; the token must be
// echoed back to perform it.
type DeleteRequest struct {
	Entity    string    `json:"entity"`
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminConfig names the buckets images are uploaded to.
type AdminConfig struct {
	ProductBucket string
	BannerBucket  string
}

// AdminService implements the back-office operations. Edits are blind
// overwrites; the last write wins.
type AdminService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	banners    repository.BannerRepository
	faqs       repository.FAQRepository
	confirms   repository.ConfirmationRepository
	storage    storage.Storage
	optimizer  *imageopt.Optimizer
	producer   *event.Producer
	cfg        AdminConfig
	logger     *slog.Logger
	now        func() time.Time
}

// AdminDeps groups the collaborators of an AdminService.
type AdminDeps struct {
	Categories    repository.CategoryRepository
	Products      repository.ProductRepository
	Banners       repository.BannerRepository
	FAQs          repository.FAQRepository
	Confirmations repository.ConfirmationRepository
	Storage       storage.Storage
	Optimizer     *imageopt.Optimizer
	Producer      *event.Producer
}

// NewAdminService creates a new admin service.
func NewAdminService(deps AdminDeps, cfg AdminConfig, logger *slog.Logger) *AdminService {
	if deps.Optimizer == nil {
		deps.Optimizer = imageopt.New()
	}
	return &AdminService{
		categories: deps.Categories,
		products:   deps.Products,
		banners:    deps.Banners,
		faqs:       deps.FAQs,
		confirms:   deps.Confirmations,
		storage:    deps.Storage,
		optimizer:  deps.Optimizer,
		producer:   deps.Producer,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// --- Categories ---

// ListCategories returns all categories ordered by name.
func (s *AdminService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

// CreateCategory validates and inserts a category.
func (s *AdminService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	c := &domain.Category{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(input.Name),
		CreatedAt: s.now().UTC(),
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "category created", slog.String("category_id", c.ID))
	return c, nil
}

// UpdateCategory renames a category.
func (s *AdminService) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	c := &domain.Category{ID: id, Name: strings.TrimSpace(input.Name)}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.categories.GetByID(ctx, id)
}

// --- Products ---

// ListProducts returns every item sorted by price, or the items of one
// category sorted by name when categoryID is set.
func (s *AdminService) ListProducts(ctx context.Context, categoryID string) ([]domain.CatalogItem, error) {
	if categoryID != "" {
		return s.products.ListByCategory(ctx, categoryID)
	}
	return s.products.ListWithCategory(ctx)
}

// CreateProduct validates the input, checks the category, optimises and
// uploads the image, then inserts the item. Nothing is inserted when the
// upload fails.
func (s *AdminService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.CatalogItem, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(input.Price))
	if err != nil {
		return nil, apperrors.InvalidInput("price must be a number")
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	img, err := s.uploadImage(ctx, s.cfg.ProductBucket, "", input.Image)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &domain.CatalogItem{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(input.Name),
		UnitPrice:    price,
		Description:  strings.TrimSpace(input.Description),
		ImageURL:     img.URL,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Status:       domain.ItemStatusActive,
		InStock:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.products.Create(ctx, item); err != nil {
		s.discardImage(ctx, img)
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "failed to publish product created event",
			slog.String("product_id", item.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", item.ID),
		slog.String("category_id", item.CategoryID),
	)
	return item, nil
}

// UpdateProduct overwrites the editable fields of an item.
func (s *AdminService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.CatalogItem, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(input.Price))
	if err != nil {
		return nil, apperrors.InvalidInput("price must be a number")
	}

	item := &domain.CatalogItem{
		ID:          id,
		Name:        strings.TrimSpace(input.Name),
		UnitPrice:   price,
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		InStock:     input.InStock,
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.products.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	updated, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, updated); err != nil {
		s.logger.WarnContext(ctx, "failed to publish product updated event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
	return updated, nil
}

// --- Banners ---

// ListBanners returns every banner.
func (s *AdminService) ListBanners(ctx context.Context) ([]domain.Banner, error) {
	return s.banners.List(ctx)
}

// UploadBanner optimises and uploads an image to the banner bucket and
// registers it.
func (s *AdminService) UploadBanner(ctx context.Context, input BannerUploadInput) (*domain.Banner, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	img, err := s.uploadImage(ctx, s.cfg.BannerBucket, bannerKeyPrefix, input.Image)
	if err != nil {
		return nil, err
	}

	b := &domain.Banner{
		ID:        uuid.New().String(),
		ImageURL:  img.URL,
		CreatedAt: s.now().UTC(),
	}
	if err := s.banners.Create(ctx, b); err != nil {
		s.discardImage(ctx, img)
		return nil, fmt.Errorf("create banner: %w", err)
	}

	s.logger.InfoContext(ctx, "banner uploaded", slog.String("banner_id", b.ID))
	return b, nil
}

// UpdateBanner replaces the image reference of a banner.
func (s *AdminService) UpdateBanner(ctx context.Context, id string, input UpdateBannerInput) (*domain.Banner, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	b := &domain.Banner{ID: id, ImageURL: strings.TrimSpace(input.ImageURL)}
	if err := s.banners.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update banner: %w", err)
	}
	return b, nil
}

// --- FAQs ---

// ListFAQs returns every FAQ in display order.
func (s *AdminService) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	return s.faqs.List(ctx)
}

func faqFromInput(id string, input FAQInput) *domain.FAQ {
	return &domain.FAQ{
		ID:       id,
		Question: strings.TrimSpace(input.Question),
		Answer:   strings.TrimSpace(input.Answer),
		Keywords: strings.TrimSpace(input.Keywords),
		Order:    input.Order,
		Active:   input.Active,
	}
}

// CreateFAQ validates and inserts a FAQ.
func (s *AdminService) CreateFAQ(ctx context.Context, input FAQInput) (*domain.FAQ, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	f := faqFromInput(uuid.New().String(), input)
	f.CreatedAt = s.now().UTC()
	if err := s.faqs.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create faq: %w", err)
	}
	return f, nil
}

// UpdateFAQ overwrites a FAQ.
func (s *AdminService) UpdateFAQ(ctx context.Context, id string, input FAQInput) (*domain.FAQ, error) {
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	f := faqFromInput(id, input)
	if err := s.faqs.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("update faq: %w", err)
	}
	return f, nil
}

// --- Deletes ---

// RequestDelete issues a single-use token that confirms the delete of one
// entity.
func (s *AdminService) RequestDelete(ctx context.Context, entity, id string) (*DeleteRequest, error) {
	if !isDeletableEntity(entity) {
		return nil, apperrors.InvalidInput("unknown entity " + entity)
	}
	if id == "" {
		return nil, apperrors.InvalidInput("id is required")
	}

	token := uuid.New().String()
	if err := s.confirms.Issue(ctx, entity, id, token, ConfirmationTTL); err != nil {
		return nil, fmt.Errorf("issue delete confirmation: %w", err)
	}
	return &DeleteRequest{
		Entity:    entity,
		ID:        id,
		Token:     token,
		ExpiresAt: s.now().UTC().Add(ConfirmationTTL),
	}, nil
}

// Delete removes an entity if token matches the pending confirmation. The
// token is consumed either way.
func (s *AdminService) Delete(ctx context.Context, entity, id, token string) error {
	if !isDeletableEntity(entity) {
		return apperrors.InvalidInput("unknown entity " + entity)
	}
	if token == "" {
		return apperrors.InvalidInput("confirmation token is required")
	}

	ok, err := s.confirms.Consume(ctx, entity, id, token)
	if err != nil {
		return fmt.Errorf("consume delete confirmation: %w", err)
	}
	if !ok {
		return apperrors.Conflict("delete confirmation is missing, expired or does not match")
	}

	switch entity {
	case EntityCategory:
		err = s.categories.Delete(ctx, id)
	case EntityProduct:
		err = s.products.Delete(ctx, id)
	case EntityBanner:
		err = s.banners.Delete(ctx, id)
	case EntityFAQ:
		err = s.faqs.Delete(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}

	if entity == EntityProduct {
		if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to publish product deleted event",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "entity deleted",
		slog.String("entity", entity),
		slog.String("id", id),
	)
	return nil
}

func isDeletableEntity(entity string) bool {
	switch entity {
	case EntityCategory, EntityProduct, EntityBanner, EntityFAQ:
		return true
	}
	return false
}

// --- Images ---

// objectKey builds "<prefix><unix-millis>_<slugged file name>.jpg".
func (s *AdminService) objectKey(prefix, fileName string) string {
	millis := strconv.FormatInt(s.now().UnixMilli(), 10)
	return prefix + millis + "_" + slug.FileName(fileName, imageopt.Extension)
}

func (s *AdminService) uploadImage(ctx context.Context, bucket, prefix string, img *Image) (*storage.UploadResult, error) {
	opt, err := s.optimizer.Optimize(img.Data)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("image: %v", err))
	}

	res, err := s.storage.Upload(ctx, &storage.UploadInput{
		Bucket:      bucket,
		Key:         s.objectKey(prefix, img.FileName),
		ContentType: imageopt.ContentType,
		Size:        int64(len(opt.Data)),
		Data:        bytes.NewReader(opt.Data),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "image upload failed",
			slog.String("bucket", bucket),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.UploadFailed(bucket, err)
	}
	return res, nil
}

// discardImage removes an uploaded object whose row could not be inserted.
func (s *AdminService) discardImage(ctx context.Context, img *storage.UploadResult) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), img.Bucket, img.Key); err != nil {
		s.logger.WarnContext(ctx, "failed to remove orphaned image",
			slog.String("bucket", img.Bucket),
			slog.String("key", img.Key),
			slog.String("error", err.Error()),
		)
	}
}
