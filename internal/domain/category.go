package domain

import "time"

// Category is a menu heading such as "Pizzas" or "Empanadas".
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
