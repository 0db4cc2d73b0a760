package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyOrder rejects order requests with no line items.
var ErrEmptyOrder = errors.New("order must contain at least one line item")

// ValidationError reports every invalid field of a product-creation
// request, not just the first.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid product: " + strings.Join(e.Fields, "; ")
}

// InvalidQuantityError rejects order lines whose quantity is not positive.
type InvalidQuantityError struct {
	ProductID int64
	Quantity  int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity for product %d must be positive, got %d", e.ProductID, e.Quantity)
}

// ProductNotFoundError reports an order line referencing a product that
// does not exist in the catalog.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InsufficientStockError reports a requested quantity exceeding the
// product's current stock.
type InsufficientStockError struct {
	ProductID int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

// ConcurrentModificationError is surfaced when a reservation keeps losing
// the race against concurrent debits and its retry budget runs out.
type ConcurrentModificationError struct {
	Attempts int
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("reservation aborted after %d attempts due to concurrent stock changes", e.Attempts)
}
