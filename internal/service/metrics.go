package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartItemsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_added_total",
		Help: "Total number of units added to carts",
	})

	cartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		},
		[]string{"op"},
	)

	ordersHandedOff = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_handed_off_total",
		Help: "Total number of orders handed off to the messaging app",
	})
)

// Cart mutation labels.
const (
	opAdd         = "add"
	opRemove      = "remove"
	opSetQuantity = "set_quantity"
	opClear       = "clear"
)
