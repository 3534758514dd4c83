package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/service"
	"github.com/utafrali/quecomemoshoy/pkg/httputil"
)

// CartHandler handles HTTP requests for the session cart and checkout.
type CartHandler struct {
	carts    *service.CartService
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(carts *service.CartService, checkout *service.CheckoutService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		checkout: checkout,
		logger:   logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a menu item.
type AddItemRequest struct {
	ItemID string `json:"item_id" validate:"notblank"`
}

// SetQuantityRequest is the JSON request body for changing a line quantity.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetVisibleRequest is the JSON request body for opening or closing the panel.
type SetVisibleRequest struct {
	Visible bool `json:"visible"`
}

// cartResponse is a cart snapshot plus the pending notification, if any.
type cartResponse struct {
	domain.Snapshot
	Notification *domain.Notification `json:"notification,omitempty"`
}

func (h *CartHandler) manager(r *http.Request) *service.CartManager {
	return h.carts.Session(r.Context(), sessionIDFromContext(r.Context()))
}

func writeCart(w http.ResponseWriter, m *service.CartManager) {
	resp := cartResponse{Snapshot: m.Snapshot()}
	if n, ok := m.Notification(); ok {
		resp.Notification = &n
	}
	writeData(w, http.StatusOK, resp)
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeCart(w, h.manager(r))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.carts.AddProduct(r.Context(), sessionIDFromContext(r.Context()), req.ItemID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeCart(w, m)
}

// SetQuantity handles PUT /api/v1/cart/items/{itemId}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m := h.manager(r)
	m.SetQuantity(r.Context(), chi.URLParam(r, "itemId"), req.Quantity)
	writeCart(w, m)
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	m := h.manager(r)
	m.RemoveItem(r.Context(), chi.URLParam(r, "itemId"))
	writeCart(w, m)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	m := h.manager(r)
	m.Clear(r.Context())
	writeCart(w, m)
}

// SetVisible handles PUT /api/v1/cart/visibility
func (h *CartHandler) SetVisible(w http.ResponseWriter, r *http.Request) {
	var req SetVisibleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m := h.manager(r)
	m.SetVisible(req.Visible)
	writeCart(w, m)
}

// ToggleVisible handles POST /api/v1/cart/visibility/toggle
func (h *CartHandler) ToggleVisible(w http.ResponseWriter, r *http.Request) {
	m := h.manager(r)
	m.ToggleVisible()
	writeCart(w, m)
}

// Checkout handles POST /api/v1/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	handoff, err := h.checkout.Checkout(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, handoff)
}

// Contact handles GET /api/v1/contact
func (h *CartHandler) Contact(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"url": h.checkout.ContactURL()})
}
