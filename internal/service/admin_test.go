package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/event"
	"github.com/utafrali/quecomemoshoy/internal/storage"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
	"github.com/utafrali/quecomemoshoy/pkg/validator"
)

var fixedNow = time.UnixMilli(1700000000000)

type adminFixture struct {
	svc        *AdminService
	categories *mockCategoryRepository
	products   *mockProductRepository
	banners    *mockBannerRepository
	faqs       *mockFAQRepository
	confirms   *mockConfirmationRepository
	storage    *mockStorage
	pub        *recordingPublisher
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		categories: new(mockCategoryRepository),
		products:   new(mockProductRepository),
		banners:    new(mockBannerRepository),
		faqs:       new(mockFAQRepository),
		confirms:   new(mockConfirmationRepository),
		storage:    new(mockStorage),
		pub:        &recordingPublisher{},
	}
	f.svc = NewAdminService(AdminDeps{
		Categories:    f.categories,
		Products:      f.products,
		Banners:       f.banners,
		FAQs:          f.faqs,
		Confirmations: f.confirms,
		Storage:       f.storage,
		Producer:      event.NewProducer(f.pub, newTestLogger()),
	}, AdminConfig{ProductBucket: "image", BannerBucket: "slice"}, newTestLogger())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *adminFixture) assertNoStoreCalls(t *testing.T) {
	t.Helper()
	f.categories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func pngImage(t *testing.T, w, h int) *Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &Image{FileName: "Milanesa Napolitana.PNG", Data: &buf}
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

// --- Categories ---

func TestCreateCategory_TrimsName(t *testing.T) {
	f := newAdminFixture()
	f.categories.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Category) bool {
		return c.Name == "Pizzas" && c.ID != ""
	})).Return(nil)

	c, err := f.svc.CreateCategory(context.Background(), CategoryInput{Name: "  Pizzas  "})
	require.NoError(t, err)
	assert.Equal(t, "Pizzas", c.Name)
	f.categories.AssertExpectations(t)
}

func TestCreateCategory_BlankNameRejected(t *testing.T) {
	f := newAdminFixture()

	_, err := f.svc.CreateCategory(context.Background(), CategoryInput{Name: "   "})
	assert.Equal(t, "is required", validationFields(t, err)["name"])
	f.assertNoStoreCalls(t)
}

func TestUpdateCategory_NotFound(t *testing.T) {
	f := newAdminFixture()
	f.categories.On("Update", mock.Anything, mock.Anything).Return(apperrors.NotFound("category", "c1"))

	_, err := f.svc.UpdateCategory(context.Background(), "c1", CategoryInput{Name: "Bebidas"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Products ---

func validProductInput(t *testing.T) CreateProductInput {
	return CreateProductInput{
		Name:        "Milanesa Napolitana",
		Price:       "1500.50",
		Description: "Con papas",
		CategoryID:  "cat-1",
		Image:       pngImage(t, 1600, 800),
	}
}

func TestCreateProduct_Success(t *testing.T) {
	f := newAdminFixture()
	f.categories.On("GetByID", mock.Anything, "cat-1").Return(&domain.Category{ID: "cat-1", Name: "Platos"}, nil)
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in *storage.UploadInput) bool {
		return in.Bucket == "image" &&
			in.Key == "1700000000000_milanesa-napolitana.jpg" &&
			in.ContentType == "image/jpeg" &&
			in.Size > 0
	})).Return(&storage.UploadResult{URL: "https://cdn/image/1700000000000_milanesa-napolitana.jpg"}, nil)
	f.products.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.CatalogItem) bool {
		return p.Name == "Milanesa Napolitana" &&
			p.UnitPrice.String() == "1500.5" &&
			p.Status == domain.ItemStatusActive &&
			p.InStock &&
			p.ImageURL == "https://cdn/image/1700000000000_milanesa-napolitana.jpg"
	})).Return(nil)

	p, err := f.svc.CreateProduct(context.Background(), validProductInput(t))
	require.NoError(t, err)
	assert.Equal(t, "Platos", p.CategoryName)
	assert.Equal(t, []string{event.TopicProductCreated}, f.pub.topics)
	f.storage.AssertExpectations(t)
	f.products.AssertExpectations(t)
}

func TestCreateProduct_InsertFailureRemovesUpload(t *testing.T) {
	f := newAdminFixture()
	f.categories.On("GetByID", mock.Anything, "cat-1").Return(&domain.Category{ID: "cat-1"}, nil)
	f.storage.On("Upload", mock.Anything, mock.Anything).
		Return(&storage.UploadResult{Bucket: "image", Key: "1700000000000_milanesa-napolitana.jpg", URL: "https://cdn/x.jpg"}, nil)
	f.products.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
	f.storage.On("Delete", mock.Anything, "image", "1700000000000_milanesa-napolitana.jpg").Return(nil).Once()

	_, err := f.svc.CreateProduct(context.Background(), validProductInput(t))
	assert.ErrorContains(t, err, "connection reset")
	f.storage.AssertExpectations(t)
	assert.Empty(t, f.pub.topics)
}

func TestCreateProduct_ValidationBeforeAnyCall(t *testing.T) {
	f := newAdminFixture()

	in := validProductInput(t)
	in.Name = ""
	in.Price = "-3"
	in.Image = nil

	_, err := f.svc.CreateProduct(context.Background(), in)
	fields := validationFields(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "image")
	f.categories.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	f.assertNoStoreCalls(t)
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	f := newAdminFixture()
	f.categories.On("GetByID", mock.Anything, "cat-1").Return(nil, apperrors.NotFound("category", "cat-1"))

	_, err := f.svc.CreateProduct(context.Background(), validProductInput(t))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.assertNoStoreCalls(t)
}

func TestCreateProduct_UndecodableImage(t *testing.T) {
	f := newAdminFixture()
	f.categories.On("GetByID", mock.Anything, "cat-1").Return(&domain.Category{ID: "cat-1"}, nil)

	in := validProductInput(t)
	in.Image = &Image{FileName: "x.png", Data: strings.NewReader("not an image")}

	_, err := f.svc.CreateProduct(context.Background(), in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.assertNoStoreCalls(t)
}

func TestCreateProduct_UploadFailureNamesBucket(t *testing.T) {
	f := newAdminFixture()
	f.categories.On("GetByID", mock.Anything, "cat-1").Return(&domain.Category{ID: "cat-1"}, nil)
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("Bucket not found"))

	_, err := f.svc.CreateProduct(context.Background(), validProductInput(t))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UPLOAD_FAILED", appErr.Code)
	assert.Equal(t, "upload image: Bucket not found. Check that the bucket 'image' exists in storage", appErr.Message)
	f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, f.pub.topics)
}

func TestUpdateProduct_OverwritesFields(t *testing.T) {
	f := newAdminFixture()
	f.products.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.CatalogItem) bool {
		return p.ID == "p1" && p.Status == domain.ItemStatusInactive && !p.InStock && p.UnitPrice.String() == "99"
	})).Return(nil)
	updated := item("p1", "Flan", 99)
	f.products.On("GetByID", mock.Anything, "p1").Return(&updated, nil)

	p, err := f.svc.UpdateProduct(context.Background(), "p1", UpdateProductInput{
		Name: "Flan", Price: "99", Status: domain.ItemStatusInactive, InStock: false,
	})
	require.NoError(t, err)
	assert.Equal(t, "Flan", p.Name)
	assert.Equal(t, []string{event.TopicProductUpdated}, f.pub.topics)
}

func TestUpdateProduct_RejectsUnknownStatus(t *testing.T) {
	f := newAdminFixture()

	_, err := f.svc.UpdateProduct(context.Background(), "p1", UpdateProductInput{Name: "Flan", Price: "1", Status: "deleted"})
	assert.Contains(t, validationFields(t, err), "status")
	f.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestListProducts_FilterByCategory(t *testing.T) {
	f := newAdminFixture()
	f.products.On("ListByCategory", mock.Anything, "cat-1").Return([]domain.CatalogItem{item("1", "A", 1)}, nil)
	f.products.On("ListWithCategory", mock.Anything).Return([]domain.CatalogItem{}, nil)

	got, err := f.svc.ListProducts(context.Background(), "cat-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = f.svc.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- Banners ---

func TestUploadBanner_UsesBannerBucketAndPrefix(t *testing.T) {
	f := newAdminFixture()
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in *storage.UploadInput) bool {
		return in.Bucket == "slice" && in.Key == "slice_1700000000000_milanesa-napolitana.jpg"
	})).Return(&storage.UploadResult{URL: "https://cdn/slice/x.jpg"}, nil)
	f.banners.On("Create", mock.Anything, mock.Anything).Return(nil)

	b, err := f.svc.UploadBanner(context.Background(), BannerUploadInput{Image: pngImage(t, 20, 10)})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/slice/x.jpg", b.ImageURL)
	f.storage.AssertExpectations(t)
}

func TestUploadBanner_UploadFailure(t *testing.T) {
	f := newAdminFixture()
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("forbidden"))

	_, err := f.svc.UploadBanner(context.Background(), BannerUploadInput{Image: pngImage(t, 20, 10)})
	assert.ErrorIs(t, err, apperrors.ErrUploadFailed)
	assert.Contains(t, err.Error(), "'slice'")
	f.banners.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- FAQs ---

func TestCreateFAQ_TrimsFields(t *testing.T) {
	f := newAdminFixture()
	f.faqs.On("Create", mock.Anything, mock.MatchedBy(func(q *domain.FAQ) bool {
		return q.Question == "Horario?" && q.Keywords == "horario,hora" && q.Order == 2 && q.Active
	})).Return(nil)

	_, err := f.svc.CreateFAQ(context.Background(), FAQInput{
		Question: " Horario? ", Answer: " 11 a 23 ", Keywords: " horario,hora ", Order: 2, Active: true,
	})
	require.NoError(t, err)
	f.faqs.AssertExpectations(t)
}

func TestCreateFAQ_NegativeOrderRejected(t *testing.T) {
	f := newAdminFixture()

	_, err := f.svc.CreateFAQ(context.Background(), FAQInput{Question: "q", Answer: "a", Order: -1})
	assert.Contains(t, validationFields(t, err), "order")
	f.faqs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- Deletes ---

func TestRequestDelete_IssuesToken(t *testing.T) {
	f := newAdminFixture()
	f.confirms.On("Issue", mock.Anything, EntityProduct, "p1", mock.AnythingOfType("string"), ConfirmationTTL).Return(nil)

	req, err := f.svc.RequestDelete(context.Background(), EntityProduct, "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, req.Token)
	assert.Equal(t, fixedNow.UTC().Add(ConfirmationTTL), req.ExpiresAt)
}

func TestRequestDelete_UnknownEntity(t *testing.T) {
	f := newAdminFixture()
	_, err := f.svc.RequestDelete(context.Background(), "order", "1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDelete_TokenMismatch(t *testing.T) {
	f := newAdminFixture()
	f.confirms.On("Consume", mock.Anything, EntityFAQ, "f1", "wrong").Return(false, nil)

	err := f.svc.Delete(context.Background(), EntityFAQ, "f1", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	f.faqs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_MissingToken(t *testing.T) {
	f := newAdminFixture()
	err := f.svc.Delete(context.Background(), EntityFAQ, "f1", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDelete_ProductPublishesEvent(t *testing.T) {
	f := newAdminFixture()
	f.confirms.On("Consume", mock.Anything, EntityProduct, "p1", "tok").Return(true, nil)
	f.products.On("Delete", mock.Anything, "p1").Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), EntityProduct, "p1", "tok"))
	assert.Equal(t, []string{event.TopicProductDeleted}, f.pub.topics)
}

func TestDelete_CategoryInUse(t *testing.T) {
	f := newAdminFixture()
	f.confirms.On("Consume", mock.Anything, EntityCategory, "c1", "tok").Return(true, nil)
	f.categories.On("Delete", mock.Anything, "c1").Return(apperrors.Conflict("category c1 still has products"))

	err := f.svc.Delete(context.Background(), EntityCategory, "c1", "tok")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestDelete_EachEntityRoutesToItsRepository(t *testing.T) {
	f := newAdminFixture()
	f.confirms.On("Consume", mock.Anything, mock.Anything, mock.Anything, "tok").Return(true, nil)
	f.banners.On("Delete", mock.Anything, "b1").Return(nil).Once()
	f.faqs.On("Delete", mock.Anything, "f1").Return(nil).Once()

	require.NoError(t, f.svc.Delete(context.Background(), EntityBanner, "b1", "tok"))
	require.NoError(t, f.svc.Delete(context.Background(), EntityFAQ, "f1", "tok"))
	f.banners.AssertExpectations(t)
	f.faqs.AssertExpectations(t)
}
