package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/quecomemoshoy/internal/event"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
	pkgkafka "github.com/utafrali/quecomemoshoy/pkg/kafka"
)

type recordingPublisher struct {
	topics []string
	events []*pkgkafka.Event
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, e)
	return nil
}

func TestCheckout_EmptyCart(t *testing.T) {
	carts, _, _ := newTestCartService(t)
	pub := &recordingPublisher{}
	svc := NewCheckoutService(carts, event.NewProducer(pub, newTestLogger()), "5493364188464", "", newTestLogger())

	h, err := svc.Checkout(context.Background(), "s1")
	assert.Nil(t, h)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
	assert.Empty(t, pub.topics)
}

func TestCheckout_BuildsLinkAndHidesPanel(t *testing.T) {
	carts, _, _ := newTestCartService(t)
	pub := &recordingPublisher{}
	svc := NewCheckoutService(carts, event.NewProducer(pub, newTestLogger()), "5493364188464", "", newTestLogger())

	ctx := context.Background()
	m := carts.Session(ctx, "s1")
	m.AddItem(ctx, item("a", "Pizza Muzza", 100))
	m.AddItem(ctx, item("a", "Pizza Muzza", 100))
	m.AddItem(ctx, item("b", "Fainá", 50))
	m.SetVisible(true)

	before := counterValue(t, ordersHandedOff)
	h, err := svc.Checkout(ctx, "s1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(h.URL, "https://wa.me/5493364188464?text="))
	assert.NotContains(t, h.URL, " ")
	assert.NotContains(t, h.URL, "+")
	assert.Contains(t, h.Message, "Pizza Muzza")
	assert.Contains(t, h.Message, "$250")
	assert.Equal(t, "250", h.Total.String())
	assert.Equal(t, 3, h.ItemCount)

	assert.False(t, m.Visible())
	assert.Len(t, m.Lines(), 2, "cart is kept after hand-off")
	assert.Equal(t, before+1, counterValue(t, ordersHandedOff))

	require.Equal(t, []string{event.TopicOrderHandedOff}, pub.topics)
	var data event.OrderHandedOffData
	require.NoError(t, json.Unmarshal(pub.events[0].Data, &data))
	assert.Equal(t, "s1", data.SessionID)
	assert.Equal(t, 3, data.ItemCount)
}

func TestCheckout_NilProducer(t *testing.T) {
	carts, _, _ := newTestCartService(t)
	svc := NewCheckoutService(carts, nil, "123", "", newTestLogger())

	ctx := context.Background()
	carts.Session(ctx, "s1").AddItem(ctx, item("a", "A", 1))

	_, err := svc.Checkout(ctx, "s1")
	assert.NoError(t, err)
}

func TestContactURL(t *testing.T) {
	carts, _, _ := newTestCartService(t)

	svc := NewCheckoutService(carts, nil, "111", "", newTestLogger())
	assert.Equal(t, "https://wa.me/111?text=Hi!%20I%20would%20like%20to%20place%20an%20order.", svc.ContactURL())

	svc = NewCheckoutService(carts, nil, "111", "222", newTestLogger())
	assert.True(t, strings.HasPrefix(svc.ContactURL(), "https://wa.me/222?"))
}
