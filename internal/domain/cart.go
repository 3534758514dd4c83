package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one item in the cart. Item is the catalog snapshot taken when
// the line was first added.
type CartLine struct {
	Item     CatalogItem `json:"item"`
	Quantity int         `json:"quantity"`
}

// Subtotal returns unit price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Item.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered list of lines, one per item id, in insertion order.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Total is the sum of every line subtotal.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the sum of all quantities.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// FindLine returns the index of the line for itemID, or -1.
func (c *Cart) FindLine(itemID string) int {
	for i := range c.Lines {
		if c.Lines[i].Item.ID == itemID {
			return i
		}
	}
	return -1
}

// Normalize drops lines that cannot be displayed: quantity below one or a
// missing item id. Duplicate ids are merged into the first occurrence.
func (c *Cart) Normalize() {
	out := c.Lines[:0]
	seen := make(map[string]int, len(c.Lines))
	for _, l := range c.Lines {
		if l.Quantity < 1 || l.Item.ID == "" {
			continue
		}
		if i, ok := seen[l.Item.ID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		seen[l.Item.ID] = len(out)
		out = append(out, l)
	}
	c.Lines = out
}

// Snapshot is the view of a cart handed to subscribers and API clients.
type Snapshot struct {
	Lines     []CartLine      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	Visible   bool            `json:"visible"`
}

// Notification kinds.
const (
	NotificationSuccess = "success"
	NotificationError   = "error"
)

// Notification is a transient message shown after a cart mutation.
type Notification struct {
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}
