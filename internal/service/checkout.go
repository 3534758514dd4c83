package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/event"
	"github.com/utafrali/quecomemoshoy/internal/order"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
)

// Handoff is the result of a checkout: the link that opens the messaging app
// with the order pre-filled.
type Handoff struct {
	URL       string          `json:"url"`
	Message   string          `json:"message"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// CheckoutService turns a session's cart into a messaging hand-off link.
type CheckoutService struct {
	carts     *CartService
	producer  *event.Producer
	recipient string
	contact   string
	logger    *slog.Logger
}

// NewCheckoutService creates a new checkout service. contact defaults to
// recipient when empty.
func NewCheckoutService(carts *CartService, producer *event.Producer, recipient, contact string, logger *slog.Logger) *CheckoutService {
	if contact == "" {
		contact = recipient
	}
	return &CheckoutService{
		carts:     carts,
		producer:  producer,
		recipient: recipient,
		contact:   contact,
		logger:    logger,
	}
}

// Checkout builds the hand-off link for the session's cart and closes the
// cart panel. The cart itself is left untouched.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string) (*Handoff, error) {
	m := s.carts.Session(ctx, sessionID)
	lines := m.Lines()
	if len(lines) == 0 {
		return nil, apperrors.EmptyCart()
	}

	cart := domain.Cart{Lines: lines}
	h := &Handoff{
		URL:       order.Link(s.recipient, order.FormatOrder(lines)),
		Message:   order.BuildMessage(lines),
		Total:     cart.Total(),
		ItemCount: cart.ItemCount(),
	}
	m.SetVisible(false)
	ordersHandedOff.Inc()

	if err := s.producer.PublishOrderHandedOff(ctx, sessionID, s.recipient, &cart); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order handed off event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order handed off",
		slog.String("session_id", sessionID),
		slog.Int("item_count", h.ItemCount),
		slog.String("total", h.Total.String()),
	)
	return h, nil
}

// ContactURL returns the link used by the general contact buttons.
func (s *CheckoutService) ContactURL() string {
	return order.ContactLink(s.contact)
}
