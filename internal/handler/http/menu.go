package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/quecomemoshoy/internal/repository"
	"github.com/utafrali/quecomemoshoy/internal/service"
	"github.com/utafrali/quecomemoshoy/pkg/httputil"
)

// MenuHandler serves the public menu.
type MenuHandler struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(products repository.ProductRepository, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{products: products, logger: logger}
}

// GetMenu handles GET /api/v1/menu. A failed load answers 502 with the raw
// error text.
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	view := service.NewCatalogView(h.products, h.logger)
	snap := view.Activate(r.Context())
	if snap.State == service.CatalogError {
		httputil.WriteMessage(w, r, http.StatusBadGateway, "MENU_UNAVAILABLE", snap.Error)
		return
	}
	writeData(w, http.StatusOK, snap)
}
