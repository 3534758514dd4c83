package http

import (
	"net/http"

	"github.com/utafrali/quecomemoshoy/internal/service"
)

// BannerHandler serves the rotating storefront banner.
type BannerHandler struct {
	rotator *service.BannerRotator
}

// NewBannerHandler creates a new banner handler.
func NewBannerHandler(rotator *service.BannerRotator) *BannerHandler {
	return &BannerHandler{rotator: rotator}
}

type bannerResponse struct {
	Loading bool           `json:"loading"`
	Slide   *service.Slide `json:"slide,omitempty"`
	Images  []string       `json:"images,omitempty"`
}

// GetBanner handles GET /api/v1/banner
func (h *BannerHandler) GetBanner(w http.ResponseWriter, r *http.Request) {
	slide, ok := h.rotator.Current()
	if !ok {
		writeData(w, http.StatusOK, bannerResponse{Loading: true})
		return
	}
	writeData(w, http.StatusOK, bannerResponse{Slide: &slide, Images: h.rotator.Images()})
}
