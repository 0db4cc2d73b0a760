// Package fulfill implements the order-fulfillment transaction engine:
// all-or-nothing stock reservation and the service that assembles,
// commits, and persists orders.
package fulfill

import (
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/order-fulfillment-service/internal/model"
)

// Catalog is the slice of the catalog store the engine needs: snapshot
// reads, the atomic single-product debit, and its compensating credit.
type Catalog interface {
	Get(id int64) (model.Product, bool)
	TryDebit(id, qty int64) error
	Refund(id, qty int64)
}

// Engine reserves stock for an order's line items as a single unit:
// either every line is debited or none are.
type Engine struct {
	catalog    Catalog
	maxRetries int
}

// NewEngine wires the engine to its catalog. maxRetries bounds how often
// a reservation is revalidated after losing a race to a concurrent debit.
func NewEngine(cat Catalog, maxRetries int) *Engine {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Engine{catalog: cat, maxRetries: maxRetries}
}

// Reserve validates every requested line against current stock and only
// then applies the debits. A debit can still fail if a concurrent
// reservation drained stock between validation and apply; the debits of
// that attempt are then refunded and validation re-runs against the new
// state, up to the retry bound.
func (e *Engine) Reserve(items []model.OrderItem) ([]model.OrderLine, error) {
	if len(items) == 0 {
		return nil, model.ErrEmptyOrder
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, &model.InvalidQuantityError{ProductID: it.ProductID, Quantity: it.Quantity}
		}
	}
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		lines, err := e.validate(items)
		if err != nil {
			return nil, err
		}
		if e.apply(items) {
			return lines, nil
		}
	}
	return nil, &model.ConcurrentModificationError{Attempts: e.maxRetries + 1}
}

// validate resolves every line against the catalog without mutating
// anything. Quantities are accumulated per product so duplicate lines
// must be jointly covered by current stock.
func (e *Engine) validate(items []model.OrderItem) ([]model.OrderLine, error) {
	lines := make([]model.OrderLine, 0, len(items))
	requested := make(map[int64]int64, len(items))
	for _, it := range items {
		p, ok := e.catalog.Get(it.ProductID)
		if !ok {
			return nil, &model.ProductNotFoundError{ProductID: it.ProductID}
		}
		requested[p.ID] += it.Quantity
		if requested[p.ID] > p.Stock {
			return nil, &model.InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: requested[p.ID]}
		}
		lines = append(lines, model.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  p.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)),
		})
	}
	return lines, nil
}

// apply debits every line, undoing earlier debits of this attempt if a
// later one fails. A false return means the attempt raced a concurrent
// reservation and the catalog is back in its pre-attempt state.
func (e *Engine) apply(items []model.OrderItem) bool {
	for i, it := range items {
		if err := e.catalog.TryDebit(it.ProductID, it.Quantity); err != nil {
			for _, done := range items[:i] {
				e.catalog.Refund(done.ProductID, done.Quantity)
			}
			return false
		}
	}
	return true
}
