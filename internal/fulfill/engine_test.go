package fulfill

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fairyhunter13/order-fulfillment-service/internal/catalog"
	"github.com/fairyhunter13/order-fulfillment-service/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func seedCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	cat := catalog.New()
	_, err := cat.Add("Widget", decimal.RequireFromString("9.99"), 10, "Hardware")
	require.NoError(t, err)
	_, err = cat.Add("Gadget", decimal.RequireFromString("4.50"), 5, "Hardware")
	require.NoError(t, err)
	return cat
}

func stockOf(t *testing.T, cat *catalog.Store, id int64) int64 {
	t.Helper()
	p, ok := cat.Get(id)
	require.True(t, ok)
	return p.Stock
}

func TestReserveEmptyOrder(t *testing.T) {
	e := NewEngine(seedCatalog(t), 3)
	_, err := e.Reserve(nil)
	require.ErrorIs(t, err, model.ErrEmptyOrder)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	cat := seedCatalog(t)
	e := NewEngine(cat, 3)
	_, err := e.Reserve([]model.OrderItem{{ProductID: 1, Quantity: 0}})
	var qe *model.InvalidQuantityError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, int64(1), qe.ProductID)
	assert.Equal(t, int64(10), stockOf(t, cat, 1))
}

func TestReserveUnknownProduct(t *testing.T) {
	cat := seedCatalog(t)
	e := NewEngine(cat, 3)
	_, err := e.Reserve([]model.OrderItem{{ProductID: 99, Quantity: 1}})
	var nf *model.ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(99), nf.ProductID)
}

func TestReserveInsufficientStock(t *testing.T) {
	cat := seedCatalog(t)
	e := NewEngine(cat, 3)
	_, err := e.Reserve([]model.OrderItem{{ProductID: 1, Quantity: 100}})
	var ise *model.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(1), ise.ProductID)
	assert.Equal(t, int64(10), ise.Available)
	assert.Equal(t, int64(100), ise.Requested)
	assert.Equal(t, int64(10), stockOf(t, cat, 1))
}

// A later invalid line must leave earlier valid lines untouched:
// validation runs for the whole order before any debit happens.
func TestReserveValidationPrecedesAnyDebit(t *testing.T) {
	cat := seedCatalog(t)
	e := NewEngine(cat, 3)
	_, err := e.Reserve([]model.OrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 99, Quantity: 1},
	})
	var nf *model.ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(10), stockOf(t, cat, 1))
}

func TestReserveResolvesSnapshotLines(t *testing.T) {
	cat := seedCatalog(t)
	e := NewEngine(cat, 3)
	lines, err := e.Reserve([]model.OrderItem{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Widget", lines[0].Name)
	assert.True(t, lines[0].Subtotal.Equal(decimal.RequireFromString("29.97")), "subtotal %s", lines[0].Subtotal)
	assert.True(t, lines[1].Subtotal.Equal(decimal.RequireFromString("9.00")), "subtotal %s", lines[1].Subtotal)
	assert.Equal(t, int64(7), stockOf(t, cat, 1))
	assert.Equal(t, int64(3), stockOf(t, cat, 2))
}

// Duplicate lines for one product must be covered jointly by current
// stock, otherwise validation would pass on state the debit pass can
// never satisfy.
func TestReserveDuplicateLinesAccumulate(t *testing.T) {
	cat := seedCatalog(t)
	e := NewEngine(cat, 3)
	_, err := e.Reserve([]model.OrderItem{
		{ProductID: 2, Quantity: 3},
		{ProductID: 2, Quantity: 3},
	})
	var ise *model.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(5), ise.Available)
	assert.Equal(t, int64(6), ise.Requested)
	assert.Equal(t, int64(5), stockOf(t, cat, 2))

	lines, err := e.Reserve([]model.OrderItem{
		{ProductID: 2, Quantity: 3},
		{ProductID: 2, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(0), stockOf(t, cat, 2))
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	cat := catalog.New()
	_, err := cat.Add("Widget", decimal.RequireFromString("9.99"), 7, "Hardware")
	require.NoError(t, err)
	e := NewEngine(cat, 3)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Reserve([]model.OrderItem{{ProductID: 1, Quantity: 5}})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var failures, successes int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		failures++
		var ise *model.InsufficientStockError
		require.ErrorAs(t, err, &ise)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
	assert.Equal(t, int64(2), stockOf(t, cat, 1))
}

func TestConcurrentReserveNonNegativity(t *testing.T) {
	cat := catalog.New()
	_, err := cat.Add("Widget", decimal.NewFromInt(1), 50, "Hardware")
	require.NoError(t, err)
	e := NewEngine(cat, 3)

	const callers = 100
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Reserve([]model.OrderItem{{ProductID: 1, Quantity: 1}})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 50, successes)
	assert.Equal(t, int64(0), stockOf(t, cat, 1))
}

// contestedCatalog validates fine but loses the debit race a fixed number
// of times, standing in for a concurrent caller that keeps winning.
type contestedCatalog struct {
	product model.Product
	losses  int
	debits  int
	refunds int
}

func (c *contestedCatalog) Get(id int64) (model.Product, bool) {
	if id != c.product.ID {
		return model.Product{}, false
	}
	return c.product, true
}

func (c *contestedCatalog) TryDebit(id, qty int64) error {
	c.debits++
	if c.losses > 0 {
		c.losses--
		return &model.InsufficientStockError{ProductID: id, Available: 0, Requested: qty}
	}
	c.product.Stock -= qty
	return nil
}

func (c *contestedCatalog) Refund(id, qty int64) {
	c.refunds++
	c.product.Stock += qty
}

func TestReserveRetriesAfterLostRace(t *testing.T) {
	cat := &contestedCatalog{product: model.Product{ID: 1, Name: "Widget", UnitPrice: decimal.NewFromInt(2), Stock: 4}, losses: 2}
	e := NewEngine(cat, 3)
	lines, err := e.Reserve([]model.OrderItem{{ProductID: 1, Quantity: 4}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(0), cat.product.Stock)
	assert.Equal(t, 3, cat.debits)
}

func TestReserveSurfacesConcurrentModification(t *testing.T) {
	cat := &contestedCatalog{product: model.Product{ID: 1, Name: "Widget", UnitPrice: decimal.NewFromInt(2), Stock: 4}, losses: 1 << 30}
	e := NewEngine(cat, 2)
	_, err := e.Reserve([]model.OrderItem{{ProductID: 1, Quantity: 4}})
	var cme *model.ConcurrentModificationError
	require.ErrorAs(t, err, &cme)
	assert.Equal(t, 3, cme.Attempts)
	assert.Equal(t, int64(4), cat.product.Stock)
}

// A mid-apply loss must refund the debits already taken in that attempt.
func TestReserveRollsBackPartialDebits(t *testing.T) {
	cat := seedCatalog(t)
	e := NewEngine(&firstLineOnly{Store: cat}, 0)
	_, err := e.Reserve([]model.OrderItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 2},
	})
	var cme *model.ConcurrentModificationError
	require.ErrorAs(t, err, &cme)
	assert.Equal(t, int64(10), stockOf(t, cat, 1))
	assert.Equal(t, int64(5), stockOf(t, cat, 2))
}

// firstLineOnly lets debits against product 1 through and fails the rest,
// forcing the partial-rollback path.
type firstLineOnly struct {
	*catalog.Store
}

func (f *firstLineOnly) TryDebit(id, qty int64) error {
	if id != 1 {
		return &model.InsufficientStockError{ProductID: id, Available: 0, Requested: qty}
	}
	return f.Store.TryDebit(id, qty)
}
