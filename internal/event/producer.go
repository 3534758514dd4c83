package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	pkgkafka "github.com/utafrali/quecomemoshoy/pkg/kafka"
	"github.com/utafrali/quecomemoshoy/pkg/logger"
)

// Kafka topics for events published by this service.
var (
	TopicOrderHandedOff = pkgkafka.Topic("order", "handed_off")
	TopicProductCreated = pkgkafka.Topic("catalog", "product.created")
	TopicProductUpdated = pkgkafka.Topic("catalog", "product.updated")
	TopicProductDeleted = pkgkafka.Topic("catalog", "product.deleted")
)

// Aggregate types and source identifier.
const (
	AggregateTypeCart    = "cart"
	AggregateTypeProduct = "product"
	Source               = "quecomemoshoy"
)

// Actors, sent as the "actor" metadata entry and Kafka header.
const (
	ActorStorefront = "storefront"
	ActorAdmin      = "admin"
)

// OrderHandedOffData is the payload for an order.handed_off event.
type OrderHandedOffData struct {
	SessionID string          `json:"session_id"`
	Recipient string          `json:"recipient"`
	Lines     []OrderLineData `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// OrderLineData is one line of a handed-off order.
type OrderLineData struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// ProductData is the payload for product.created and product.updated events.
type ProductData struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CategoryID string          `json:"category_id"`
	ImageURL   string          `json:"image_url"`
	Status     string          `json:"status"`
	InStock    bool            `json:"in_stock"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// Publisher is implemented by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes domain events. A Producer built with a nil Publisher
// drops every event, which is how the service runs without a broker.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, actor, aggregateID, aggregateType string, data any) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithMetadata("actor", actor)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishOrderHandedOff publishes an order.handed_off event.
func (p *Producer) PublishOrderHandedOff(ctx context.Context, sessionID, recipient string, cart *domain.Cart) error {
	lines := make([]OrderLineData, len(cart.Lines))
	for i, l := range cart.Lines {
		lines[i] = OrderLineData{
			ItemID:    l.Item.ID,
			Name:      l.Item.Name,
			UnitPrice: l.Item.UnitPrice,
			Quantity:  l.Quantity,
		}
	}

	return p.publish(ctx, TopicOrderHandedOff, ActorStorefront, sessionID, AggregateTypeCart, OrderHandedOffData{
		SessionID: sessionID,
		Recipient: recipient,
		Lines:     lines,
		ItemCount: cart.ItemCount(),
		Total:     cart.Total(),
	})
}

func productData(item *domain.CatalogItem) ProductData {
	return ProductData{
		ID:         item.ID,
		Name:       item.Name,
		UnitPrice:  item.UnitPrice,
		CategoryID: item.CategoryID,
		ImageURL:   item.ImageURL,
		Status:     item.Status,
		InStock:    item.InStock,
	}
}

// PublishProductCreated publishes a catalog.product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, item *domain.CatalogItem) error {
	return p.publish(ctx, TopicProductCreated, ActorAdmin, item.ID, AggregateTypeProduct, productData(item))
}

// PublishProductUpdated publishes a catalog.product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, item *domain.CatalogItem) error {
	return p.publish(ctx, TopicProductUpdated, ActorAdmin, item.ID, AggregateTypeProduct, productData(item))
}

// PublishProductDeleted publishes a catalog.product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicProductDeleted, ActorAdmin, id, AggregateTypeProduct, ProductDeletedData{ID: id})
}
