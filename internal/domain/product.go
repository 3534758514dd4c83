package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Catalog item status constants.
const (
	ItemStatusActive   = "active"
	ItemStatusInactive = "inactive"
)

// CatalogItem is a product on the menu. Prices are exact decimals so they
// print the way they were entered.
type CatalogItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"image_url"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Status       string          `json:"status"`
	InStock      bool            `json:"in_stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MenuSection groups catalog items under one category heading.
type MenuSection struct {
	Category string        `json:"category"`
	Items    []CatalogItem `json:"items"`
}

// GroupByCategory splits items into sections keyed by category name. Section
// order is the order in which each category is first seen, and items keep
// their relative order, so a price-sorted input yields price-sorted sections.
func GroupByCategory(items []CatalogItem) []MenuSection {
	sections := make([]MenuSection, 0)
	index := make(map[string]int)
	for _, it := range items {
		i, ok := index[it.CategoryName]
		if !ok {
			i = len(sections)
			index[it.CategoryName] = i
			sections = append(sections, MenuSection{Category: it.CategoryName})
		}
		sections[i].Items = append(sections[i].Items, it)
	}
	return sections
}
