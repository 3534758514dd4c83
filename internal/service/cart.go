package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/repository"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
)

// DefaultNotificationTTL is how long a cart notification stays visible.
const DefaultNotificationTTL = 3 * time.Second

// persistTimeout bounds a single cart save.
const persistTimeout = 5 * time.Second

// CartManager owns one session's cart. Every mutation updates the derived
// total and count, writes the whole cart to the store, and then notifies
// subscribers, all before returning. Store failures are logged and the
// in-memory cart stays authoritative.
type CartManager struct {
	mu        sync.Mutex
	sessionID string
	cart      domain.Cart
	visible   bool

	notification *domain.Notification
	dismiss      *time.Timer
	notifyTTL    time.Duration

	subs    map[int]func(domain.Snapshot)
	nextSub int
	closed  bool

	store  repository.CartRepository
	logger *slog.Logger
	now    func() time.Time
}

func newCartManager(sessionID string, cart *domain.Cart, store repository.CartRepository, notifyTTL time.Duration, logger *slog.Logger) *CartManager {
	m := &CartManager{
		sessionID: sessionID,
		notifyTTL: notifyTTL,
		subs:      make(map[int]func(domain.Snapshot)),
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
	if cart != nil {
		m.cart.Lines = slices.Clone(cart.Lines)
	}
	return m
}

// SessionID returns the session the cart belongs to.
func (m *CartManager) SessionID() string { return m.sessionID }

// AddItem adds one unit of item. A line that already exists is incremented
// and keeps its original snapshot.
func (m *CartManager) AddItem(ctx context.Context, item domain.CatalogItem) {
	m.mutate(ctx, opAdd, func() {
		if i := m.cart.FindLine(item.ID); i >= 0 {
			m.cart.Lines[i].Quantity++
			m.notifyLocked("Added another unit of " + m.cart.Lines[i].Item.Name)
		} else {
			m.cart.Lines = append(m.cart.Lines, domain.CartLine{Item: item, Quantity: 1})
			m.notifyLocked(item.Name + " added to cart")
		}
		cartItemsAdded.Inc()
	})
}

// RemoveItem deletes the line for itemID. Unknown ids leave the cart as is.
func (m *CartManager) RemoveItem(ctx context.Context, itemID string) {
	m.mutate(ctx, opRemove, func() {
		m.removeLocked(itemID)
	})
}

// SetQuantity sets the quantity of an existing line. Zero or less removes it.
func (m *CartManager) SetQuantity(ctx context.Context, itemID string, quantity int) {
	m.mutate(ctx, opSetQuantity, func() {
		if quantity <= 0 {
			m.removeLocked(itemID)
			return
		}
		if i := m.cart.FindLine(itemID); i >= 0 {
			m.cart.Lines[i].Quantity = quantity
		}
	})
}

// Clear empties the cart.
func (m *CartManager) Clear(ctx context.Context) {
	m.mutate(ctx, opClear, func() {
		m.cart.Lines = nil
	})
}

func (m *CartManager) removeLocked(itemID string) {
	if i := m.cart.FindLine(itemID); i >= 0 {
		m.cart.Lines = slices.Delete(m.cart.Lines, i, i+1)
	}
}

// mutate applies fn, persists the result and notifies subscribers.
func (m *CartManager) mutate(ctx context.Context, op string, fn func()) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	fn()
	cartMutations.WithLabelValues(op).Inc()
	m.persistLocked(ctx)
	snap := m.snapshotLocked()
	subs := slices.Collect(maps.Values(m.subs))
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (m *CartManager) persistLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	cart := domain.Cart{Lines: slices.Clone(m.cart.Lines)}
	if err := m.store.Save(ctx, m.sessionID, &cart); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist cart",
			slog.String("session_id", m.sessionID),
			slog.String("error", err.Error()),
		)
	}
}

func (m *CartManager) notifyLocked(message string) {
	n := &domain.Notification{
		Message:   message,
		Kind:      domain.NotificationSuccess,
		ExpiresAt: m.now().Add(m.notifyTTL),
	}
	m.notification = n
	if m.dismiss != nil {
		m.dismiss.Stop()
	}
	m.dismiss = time.AfterFunc(m.notifyTTL, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.notification == n {
			m.notification = nil
		}
	})
}

// Notification returns the current notification if it has not expired.
func (m *CartManager) Notification() (domain.Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notification == nil || !m.now().Before(m.notification.ExpiresAt) {
		return domain.Notification{}, false
	}
	return *m.notification, true
}

// Total returns the sum of all line subtotals.
func (m *CartManager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Total()
}

// ItemCount returns the sum of all quantities.
func (m *CartManager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.ItemCount()
}

// Lines returns a copy of the lines in insertion order.
func (m *CartManager) Lines() []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.cart.Lines)
}

// Snapshot returns lines, totals and panel visibility together.
func (m *CartManager) Snapshot() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *CartManager) snapshotLocked() domain.Snapshot {
	lines := slices.Clone(m.cart.Lines)
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return domain.Snapshot{
		Lines:     lines,
		Total:     m.cart.Total(),
		ItemCount: m.cart.ItemCount(),
		Visible:   m.visible,
	}
}

// ToggleVisible flips the cart panel and returns the new state.
func (m *CartManager) ToggleVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = !m.visible
	return m.visible
}

// SetVisible opens or closes the cart panel.
func (m *CartManager) SetVisible(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = v
}

// Visible reports whether the cart panel is open.
func (m *CartManager) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// Subscribe registers fn to receive a snapshot after every mutation. The
// returned func removes the subscription.
func (m *CartManager) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Close stops the notification timer and drops subscribers. Mutations after
// Close are ignored.
func (m *CartManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.dismiss != nil {
		m.dismiss.Stop()
		m.dismiss = nil
	}
	m.notification = nil
	clear(m.subs)
}

// CartService hands out one CartManager per session, rehydrating it from the
// store on first use.
type CartService struct {
	mu        sync.Mutex
	managers  map[string]*CartManager
	store     repository.CartRepository
	products  repository.ProductRepository
	notifyTTL time.Duration
	logger    *slog.Logger

	lastSeen map[string]time.Time
	now      func() time.Time
	sweeper  *idleSweeper
}

// NewCartService creates a new cart service.
func NewCartService(store repository.CartRepository, products repository.ProductRepository, notifyTTL time.Duration, logger *slog.Logger) *CartService {
	if notifyTTL <= 0 {
		notifyTTL = DefaultNotificationTTL
	}
	return &CartService{
		managers:  make(map[string]*CartManager),
		store:     store,
		products:  products,
		notifyTTL: notifyTTL,
		logger:    logger,
		lastSeen:  make(map[string]time.Time),
		now:       time.Now,
	}
}

// StartIdleEviction evicts managers that have not been requested for ttl.
// Their stored carts are kept and rehydrated on the next request. Close
// stops the sweep.
func (s *CartService) StartIdleEviction(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultSessionIdleTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweeper != nil {
		return
	}
	s.sweeper = startIdleSweeper(sweepInterval(ttl), func(now time.Time) {
		s.evictIdle(now.Add(-ttl))
	})
}

// evictIdle closes every manager last requested before cutoff.
func (s *CartService) evictIdle(cutoff time.Time) int {
	s.mu.Lock()
	var idle []*CartManager
	for sid, seen := range s.lastSeen {
		if seen.Before(cutoff) {
			if m, ok := s.managers[sid]; ok {
				idle = append(idle, m)
			}
			delete(s.managers, sid)
			delete(s.lastSeen, sid)
		}
	}
	s.mu.Unlock()

	for _, m := range idle {
		m.Close()
	}
	if len(idle) > 0 {
		s.logger.Debug("evicted idle carts", slog.Int("count", len(idle)))
	}
	return len(idle)
}

func (s *CartService) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.managers)
}

// Session returns the manager for sessionID. Missing or unreadable stored
// carts start empty.
func (s *CartService) Session(ctx context.Context, sessionID string) *CartManager {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen[sessionID] = s.now()
	if m, ok := s.managers[sessionID]; ok {
		return m
	}

	var stored *domain.Cart
	if s.store != nil {
		cart, found, err := s.store.Load(ctx, sessionID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "failed to load stored cart, starting empty",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		case found:
			stored = cart
			stored.Normalize()
		}
	}

	m := newCartManager(sessionID, stored, s.store, s.notifyTTL, s.logger)
	s.managers[sessionID] = m
	return m
}

// AddProduct looks up itemID in the catalog and adds one unit of it to the
// session's cart.
func (s *CartService) AddProduct(ctx context.Context, sessionID, itemID string) (*CartManager, error) {
	if itemID == "" {
		return nil, apperrors.InvalidInput("item id is required")
	}
	item, err := s.products.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	m := s.Session(ctx, sessionID)
	m.AddItem(ctx, *item)
	return m, nil
}

// Evict closes and forgets the manager for sessionID. The stored cart is kept.
func (s *CartService) Evict(sessionID string) {
	s.mu.Lock()
	m, ok := s.managers[sessionID]
	delete(s.managers, sessionID)
	delete(s.lastSeen, sessionID)
	s.mu.Unlock()

	if ok {
		m.Close()
	}
}

// Discard evicts sessionID and deletes its stored cart.
func (s *CartService) Discard(ctx context.Context, sessionID string) error {
	s.Evict(sessionID)
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// Close stops idle eviction and closes every manager.
func (s *CartService) Close() {
	s.mu.Lock()
	sweeper := s.sweeper
	s.sweeper = nil
	s.mu.Unlock()
	sweeper.Stop()

	s.mu.Lock()
	managers := s.managers
	s.managers = make(map[string]*CartManager)
	clear(s.lastSeen)
	s.mu.Unlock()

	for _, m := range managers {
		m.Close()
	}
}
