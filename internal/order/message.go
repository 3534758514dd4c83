// Package order renders a cart as a chat message and builds the WhatsApp
// links that hand it to the restaurant.
package order

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/quecomemoshoy/internal/domain"
)

const separator = "━━━━━━━━━━━━━━━━━━"

// Money formats an amount the way the menu shows it: "$1500", "$12.5".
func Money(d decimal.Decimal) string {
	return "$" + d.String()
}

func units(n int) string {
	if n == 1 {
		return "1 unit"
	}
	return fmt.Sprintf("%d units", n)
}

// BuildMessage renders the order summary. Lines appear in insertion order and
// the grand total equals Cart.Total. An empty cart yields "".
func BuildMessage(lines []domain.CartLine) string {
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("🍽️ *QUE COMEMOS HOY?* 🍽️\n\n")
	b.WriteString("✨ *New order!* ✨\n")
	b.WriteString(separator + "\n\n")
	b.WriteString("📦 *Order details:*\n\n")

	total := decimal.Zero
	for i, l := range lines {
		sub := l.Subtotal()
		total = total.Add(sub)

		fmt.Fprintf(&b, "🍴 *%s*\n", l.Item.Name)
		fmt.Fprintf(&b, "   📊 Quantity: %s\n", units(l.Quantity))
		fmt.Fprintf(&b, "   💵 Unit price: %s\n", Money(l.Item.UnitPrice))
		fmt.Fprintf(&b, "   💳 Subtotal: %s\n", Money(sub))
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + separator + "\n")
	fmt.Fprintf(&b, "💰 *TOTAL: %s*\n", Money(total))
	b.WriteString(separator + "\n\n")
	b.WriteString("🙏 Thanks for your order!\n")
	b.WriteString("⏰ We will contact you shortly to confirm.")

	return b.String()
}

// componentFixups turns url.QueryEscape output into encodeURIComponent output:
// spaces as %20 and the marks !'()* left as-is.
var componentFixups = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// Encode percent-encodes text for a URL query value the way browsers'
// encodeURIComponent does.
func Encode(text string) string {
	return componentFixups.Replace(url.QueryEscape(text))
}

// FormatOrder returns BuildMessage encoded for a query parameter. An empty
// cart yields "".
func FormatOrder(lines []domain.CartLine) string {
	return Encode(BuildMessage(lines))
}
