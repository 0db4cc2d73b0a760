// Package model defines domain types and domain errors used by the service.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is the only field that changes after
// creation, and only through the catalog's debit and refund operations.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int64           `json:"stock"`
	Category  string          `json:"category"`
}

// OrderItem is one requested (product, quantity) pair in an order request.
type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// OrderLine is a resolved line of a committed order. Name and UnitPrice
// are snapshots taken at reservation time; later catalog changes do not
// alter historical orders.
type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is a committed order, immutable once created.
type Order struct {
	ID        int64           `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Lines     []OrderLine     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
}

// Snapshot is the persisted state layout: both collections in insertion
// order. An empty snapshot is the valid first-use state.
type Snapshot struct {
	Products []Product `json:"products"`
	Orders   []Order   `json:"orders"`
}
