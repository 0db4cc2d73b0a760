// Package orders implements the authoritative store of committed orders.
package orders

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/order-fulfillment-service/internal/model"
)

// Store holds committed orders in commit order. Orders are immutable once
// committed and are never deleted in normal operation.
type Store struct {
	mu     sync.RWMutex
	orders []model.Order
	lastID int64
	now    func() time.Time
}

// New returns an empty order store.
func New() *Store {
	return &Store{now: time.Now}
}

// NewFromOrders restores a store from a persisted snapshot. The id
// counter resumes from the highest existing id.
func NewFromOrders(existing []model.Order) *Store {
	s := New()
	for _, o := range existing {
		s.orders = append(s.orders, o)
		if o.ID > s.lastID {
			s.lastID = o.ID
		}
	}
	return s
}

// List returns all orders in insertion order.
func (s *Store) List() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Commit assigns the next order id, stamps the current time, and appends
// the order. Callers invoke it only after reservation fully succeeded.
func (s *Store) Commit(lines []model.OrderLine, total decimal.Decimal) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	o := model.Order{
		ID:        s.lastID,
		CreatedAt: s.now().UTC(),
		Lines:     append([]model.OrderLine(nil), lines...),
		Total:     total,
	}
	s.orders = append(s.orders, o)
	return o
}

// Rollback retracts the most recent Commit when its durable write failed,
// releasing the id so the failed attempt is not observable as a gap.
func (s *Store) Rollback(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.orders)
	if n == 0 || s.orders[n-1].ID != id {
		return
	}
	s.orders = s.orders[:n-1]
	if s.lastID == id {
		s.lastID--
	}
}

// Snapshot returns the persistable view of the order log.
func (s *Store) Snapshot() []model.Order { return s.List() }
