package fulfill

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fairyhunter13/order-fulfillment-service/internal/catalog"
	"github.com/fairyhunter13/order-fulfillment-service/internal/model"
	"github.com/fairyhunter13/order-fulfillment-service/internal/obs"
	"github.com/fairyhunter13/order-fulfillment-service/internal/orders"
)

// Flusher persists a snapshot of both stores. A flush failure aborts the
// surrounding operation.
type Flusher interface {
	Flush(model.Snapshot) error
}

// Service is the externally invoked surface of the core: catalog reads
// and writes plus order placement.
type Service struct {
	catalog *catalog.Store
	orders  *orders.Store
	engine  *Engine
	flusher Flusher

	// commitMu serializes the visibility write (store commit plus durable
	// flush) so a failed flush can retract the commit without another
	// commit interleaving.
	commitMu sync.Mutex
}

// NewService wires the stores, the reservation engine, and the persister.
// A nil flusher keeps state in memory only.
func NewService(cat *catalog.Store, ord *orders.Store, engine *Engine, flusher Flusher) *Service {
	return &Service{catalog: cat, orders: ord, engine: engine, flusher: flusher}
}

// ListProducts returns the catalog in insertion order.
func (s *Service) ListProducts() []model.Product { return s.catalog.List() }

// ListOrders returns all committed orders in insertion order.
func (s *Service) ListOrders() []model.Order { return s.orders.List() }

// AddProduct validates, stores, and persists a new product. A flush
// failure retracts the in-memory add, id included.
func (s *Service) AddProduct(name string, unitPrice decimal.Decimal, stock int64, category string) (model.Product, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	p, err := s.catalog.Add(name, unitPrice, stock, category)
	if err != nil {
		return model.Product{}, err
	}
	if err := s.flush(); err != nil {
		s.catalog.Rollback(p.ID)
		return model.Product{}, fmt.Errorf("persist product: %w", err)
	}
	obs.Logger.Info("product_added",
		zap.Int64("product_id", p.ID),
		zap.String("name", p.Name),
		zap.Int64("stock", p.Stock),
	)
	return p, nil
}

// PlaceOrder reserves stock for every requested line, then commits and
// persists the order. Any failure leaves stock and the order log exactly
// as they were.
func (s *Service) PlaceOrder(items []model.OrderItem) (model.Order, error) {
	lines, err := s.engine.Reserve(items)
	if err != nil {
		obs.Logger.Info("order_rejected", zap.String("reason", err.Error()))
		return model.Order{}, err
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	o := s.orders.Commit(lines, total)
	if err := s.flush(); err != nil {
		s.orders.Rollback(o.ID)
		for _, l := range lines {
			s.catalog.Refund(l.ProductID, l.Quantity)
		}
		return model.Order{}, fmt.Errorf("persist order: %w", err)
	}
	obs.Logger.Info("order_placed",
		zap.Int64("order_id", o.ID),
		zap.Int("line_count", len(o.Lines)),
		zap.String("total", o.Total.String()),
	)
	return o, nil
}

// flush writes the current state of both stores through to storage.
// Callers hold commitMu.
func (s *Service) flush() error {
	if s.flusher == nil {
		return nil
	}
	return s.flusher.Flush(model.Snapshot{
		Products: s.catalog.Snapshot(),
		Orders:   s.orders.Snapshot(),
	})
}
