// Package catalog implements the authoritative product store.
package catalog

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/order-fulfillment-service/internal/model"
)

// Store holds the catalog: products in insertion order plus an id index.
// All access goes through the mutex; reads return copies.
type Store struct {
	mu       sync.RWMutex
	products []model.Product
	index    map[int64]int
	lastID   int64
}

// New returns an empty catalog.
func New() *Store {
	return &Store{index: make(map[int64]int)}
}

// NewFromProducts restores a catalog from a persisted snapshot. The id
// counter resumes from the highest existing id.
func NewFromProducts(products []model.Product) *Store {
	s := New()
	for _, p := range products {
		s.index[p.ID] = len(s.products)
		s.products = append(s.products, p)
		if p.ID > s.lastID {
			s.lastID = p.ID
		}
	}
	return s
}

// Get returns the current state of a single product.
func (s *Store) Get(id int64) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Product{}, false
	}
	return s.products[i], true
}

// List returns all products in insertion order.
func (s *Store) List() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Add validates the product fields, reporting every violation at once,
// and appends the product under the next unused id. The id counter only
// advances after validation has passed, so rejected adds assign nothing.
func (s *Store) Add(name string, unitPrice decimal.Decimal, stock int64, category string) (model.Product, error) {
	var fields []string
	if name == "" {
		fields = append(fields, "name must not be empty")
	}
	if unitPrice.IsNegative() {
		fields = append(fields, "unit_price must not be negative")
	}
	if stock < 0 {
		fields = append(fields, "stock must not be negative")
	}
	if category == "" {
		fields = append(fields, "category must not be empty")
	}
	if len(fields) > 0 {
		return model.Product{}, &model.ValidationError{Fields: fields}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	p := model.Product{ID: s.lastID, Name: name, UnitPrice: unitPrice, Stock: stock, Category: category}
	s.index[p.ID] = len(s.products)
	s.products = append(s.products, p)
	return p, nil
}

// TryDebit reduces the product's stock by qty only if qty <= current
// stock. On failure the stock is untouched and the failure kind is
// returned.
func (s *Store) TryDebit(id, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return &model.ProductNotFoundError{ProductID: id}
	}
	p := &s.products[i]
	if qty > p.Stock {
		return &model.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: qty}
	}
	p.Stock -= qty
	return nil
}

// Refund credits qty back to a product. It exists solely so the
// reservation engine can undo debits when an attempt is rolled back;
// unknown ids are ignored because refunds only follow successful debits.
func (s *Store) Refund(id, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[id]; ok {
		s.products[i].Stock += qty
	}
}

// Rollback retracts the most recent Add when its durable write failed.
// The id is released for reuse so a failed request assigns nothing.
func (s *Store) Rollback(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.products)
	if n == 0 || s.products[n-1].ID != id {
		return
	}
	delete(s.index, id)
	s.products = s.products[:n-1]
	if s.lastID == id {
		s.lastID--
	}
}

// Snapshot returns the persistable view of the catalog.
func (s *Store) Snapshot() []model.Product { return s.List() }
