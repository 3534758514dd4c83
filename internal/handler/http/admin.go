package http

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/quecomemoshoy/internal/service"
	"github.com/utafrali/quecomemoshoy/pkg/httputil"
)

// ConfirmTokenHeader carries the token returned by a delete request.
const ConfirmTokenHeader = "X-Confirm-Token"

// maxUploadSize bounds multipart uploads.
const maxUploadSize = 10 << 20

// AdminHandler handles the back-office endpoints.
type AdminHandler struct {
	service *service.AdminService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger}
}

// --- Categories ---

// ListCategories handles GET /admin/categories
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, categories)
}

// CreateCategory handles POST /admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /admin/categories/{id}
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, c)
}

// --- Products ---

// ListProducts handles GET /admin/products?category_id=
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("category_id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, products)
}

// CreateProduct handles POST /admin/products (multipart/form-data).
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	img, cleanup, ok := h.parseImageForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	input := service.CreateProductInput{
		Name:        r.FormValue("name"),
		Price:       r.FormValue("price"),
		Description: r.FormValue("description"),
		CategoryID:  r.FormValue("category_id"),
		Image:       img,
	}

	p, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusCreated, p)
}

// UpdateProduct handles PUT /admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProductInput
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, p)
}

// --- Banners ---

// ListBanners handles GET /admin/banners
func (h *AdminHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.ListBanners(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, banners)
}

// UploadBanner handles POST /admin/banners (multipart/form-data).
func (h *AdminHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	img, cleanup, ok := h.parseImageForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	b, err := h.service.UploadBanner(r.Context(), service.BannerUploadInput{Image: img})
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusCreated, b)
}

// UpdateBanner handles PUT /admin/banners/{id}
func (h *AdminHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateBannerInput
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.service.UpdateBanner(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, b)
}

// --- FAQs ---

// ListFAQs handles GET /admin/faqs
func (h *AdminHandler) ListFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.service.ListFAQs(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, faqs)
}

// CreateFAQ handles POST /admin/faqs
func (h *AdminHandler) CreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req service.FAQInput
	if !decodeJSON(w, r, &req) {
		return
	}

	f, err := h.service.CreateFAQ(r.Context(), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusCreated, f)
}

// UpdateFAQ handles PUT /admin/faqs/{id}
func (h *AdminHandler) UpdateFAQ(w http.ResponseWriter, r *http.Request) {
	var req service.FAQInput
	if !decodeJSON(w, r, &req) {
		return
	}

	f, err := h.service.UpdateFAQ(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, f)
}

// --- Deletes ---

// RequestDelete returns a handler for POST /admin/<entity>/{id}/delete-requests.
func (h *AdminHandler) RequestDelete(entity string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.service.RequestDelete(r.Context(), entity, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		writeData(w, http.StatusCreated, req)
	}
}

// Delete returns a handler for DELETE /admin/<entity>/{id}. The request must
// carry the confirmation token in X-Confirm-Token.
func (h *AdminHandler) Delete(entity string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.service.Delete(r.Context(), entity, chi.URLParam(r, "id"), r.Header.Get(ConfirmTokenHeader))
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// parseImageForm parses a multipart form and returns its "image" file. A
// missing file yields a nil image so validation can report it.
func (h *AdminHandler) parseImageForm(w http.ResponseWriter, r *http.Request) (*service.Image, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.WriteMessage(w, r, http.StatusBadRequest, "INVALID_INPUT", "invalid multipart form: "+err.Error())
		return nil, nil, false
	}

	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return nil, cleanup, true
	case err != nil:
		cleanup()
		httputil.WriteMessage(w, r, http.StatusBadRequest, "INVALID_INPUT", "invalid image: "+err.Error())
		return nil, nil, false
	}

	closeAll := func() {
		_ = file.Close()
		cleanup()
	}
	return imageFromPart(file, header), closeAll, true
}

func imageFromPart(file multipart.File, header *multipart.FileHeader) *service.Image {
	return &service.Image{FileName: header.Filename, Data: file}
}
