package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/repository"
)

// CatalogState is the lifecycle of a menu view.
type CatalogState string

const (
	CatalogLoading CatalogState = "loading"
	CatalogReady   CatalogState = "ready"
	CatalogError   CatalogState = "error"
)

// CatalogSnapshot is the observable state of a CatalogView.
type CatalogSnapshot struct {
	State    CatalogState         `json:"state"`
	Sections []domain.MenuSection `json:"sections,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// CatalogView loads the menu once per activation and groups it by category.
type CatalogView struct {
	mu       sync.RWMutex
	products repository.ProductRepository
	logger   *slog.Logger
	state    CatalogState
	sections []domain.MenuSection
	errText  string
}

// NewCatalogView creates a view in the loading state.
func NewCatalogView(products repository.ProductRepository, logger *slog.Logger) *CatalogView {
	return &CatalogView{products: products, logger: logger, state: CatalogLoading}
}

// Activate fetches every item sorted by price and groups it into sections
// in first-seen category order. On failure the raw error text is kept.
func (v *CatalogView) Activate(ctx context.Context) CatalogSnapshot {
	v.mu.Lock()
	v.state = CatalogLoading
	v.mu.Unlock()

	items, err := v.products.ListWithCategory(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.logger.ErrorContext(ctx, "failed to load menu", slog.String("error", err.Error()))
		v.state = CatalogError
		v.sections = nil
		v.errText = err.Error()
		return v.snapshotLocked()
	}

	v.state = CatalogReady
	v.sections = domain.GroupByCategory(items)
	v.errText = ""
	return v.snapshotLocked()
}

// Snapshot returns the current state.
func (v *CatalogView) Snapshot() CatalogSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshotLocked()
}

func (v *CatalogView) snapshotLocked() CatalogSnapshot {
	return CatalogSnapshot{State: v.state, Sections: v.sections, Error: v.errText}
}
