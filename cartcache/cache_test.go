package cartcache

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2gi-davilori/ecom/models"
	"github.com/m2gi-davilori/ecom/pricing"
)

type stubRemote struct {
	calls []string

	cart     *models.Cart
	fetchErr error

	addResp *models.ProductCart
	addErr  error

	setErr    error
	removeErr error
}

func (s *stubRemote) FetchCart(_ context.Context, filter string) (*models.Cart, error) {
	s.calls = append(s.calls, "fetch")
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	cp := *s.cart
	cp.Lines = append([]models.ProductCart(nil), s.cart.Lines...)
	return &cp, nil
}

func (s *stubRemote) AddProduct(_ context.Context, productID uint) (*models.ProductCart, error) {
	s.calls = append(s.calls, fmt.Sprintf("add %d", productID))
	if s.addErr != nil {
		return nil, s.addErr
	}
	return s.addResp, nil
}

func (s *stubRemote) SetQuantity(_ context.Context, lineID uint, quantity int) (*models.ProductCart, error) {
	s.calls = append(s.calls, fmt.Sprintf("set %d=%d", lineID, quantity))
	if s.setErr != nil {
		return nil, s.setErr
	}
	return &models.ProductCart{ID: lineID, Quantity: quantity}, nil
}

func (s *stubRemote) RemoveLine(_ context.Context, lineID uint) error {
	s.calls = append(s.calls, fmt.Sprintf("remove %d", lineID))
	return s.removeErr
}

var (
	productA = models.Product{ID: 1, Name: "Comté", Price: decimal.NewFromInt(50), Weight: 1, WeightUnit: models.WeightUnitKG}
	productB = models.Product{ID: 2, Name: "Lait", Price: decimal.NewFromInt(30), Weight: 1, WeightUnit: models.WeightUnitL}
)

// activeCache returns a cache refreshed from a cart holding product A at
// quantity 2 (line ID 10).
func activeCache(t *testing.T, remote *stubRemote, opts ...Option) *Cache {
	t.Helper()
	remote.cart = &models.Cart{
		ID: 7,
		Lines: []models.ProductCart{
			{ID: 10, CartID: 7, Product: productA, Quantity: 2},
		},
	}
	c := New(remote, opts...)
	require.NoError(t, c.Refresh(context.Background(), ""))
	return c
}

func TestRefreshBuildsDerivedState(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)

	assert.True(t, c.Active())
	assert.Equal(t, 2, c.NbItems())
	assert.Equal(t, "100", c.Total())
	assert.Equal(t, 1, c.Len())

	line, ok := c.Lookup(productA)
	require.True(t, ok)
	assert.Equal(t, uint(10), line.ID)
	assert.Equal(t, productA.ID, line.Product.ID)
}

func TestAddProductRequiresActiveCart(t *testing.T) {
	remote := &stubRemote{}
	c := New(remote)

	err := c.AddProduct(context.Background(), productA)
	assert.ErrorIs(t, err, ErrNoActiveCart)
	assert.Empty(t, remote.calls, "no request without an active cart")
}

func TestAddProductAppendsAndRecomputes(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)
	remote.addResp = &models.ProductCart{ID: 11, CartID: 7, Product: productB, Quantity: 1}

	require.NoError(t, c.AddProduct(context.Background(), productB))

	// 50*2 + 30
	assert.Equal(t, 3, c.NbItems())
	assert.Equal(t, "130", c.Total())
	assert.Equal(t, 2, c.Len())
	assert.Len(t, c.byProduct, c.Len(), "index covers every line")

	line, ok := c.Lookup(productB)
	require.True(t, ok)
	assert.Equal(t, productB.ID, line.Product.ID)
}

func TestAddProductServerIncrementedExistingLine(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)
	// Same line ID as the one already mirrored: the server bumped it.
	remote.addResp = &models.ProductCart{ID: 10, CartID: 7, Product: productA, Quantity: 3}

	require.NoError(t, c.AddProduct(context.Background(), productA))

	assert.Equal(t, 1, c.Len(), "no duplicate line")
	assert.Equal(t, 3, c.NbItems())
	assert.Equal(t, "150", c.Total())
}

func TestChangeQuantityUpdatesInPlace(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)
	remote.addResp = &models.ProductCart{ID: 11, CartID: 7, Product: productB, Quantity: 1}
	require.NoError(t, c.AddProduct(context.Background(), productB))

	require.NoError(t, c.ChangeQuantity(context.Background(), productA, 5))

	assert.Equal(t, []string{"fetch", "add 2", "set 10=5"}, remote.calls)
	line, ok := c.Lookup(productA)
	require.True(t, ok)
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, 2, c.Len(), "index size unchanged by a quantity edit")
	assert.Equal(t, 6, c.NbItems())
	// 50*5 + 30
	assert.Equal(t, "280", c.Total())
}

func TestChangeQuantityZeroRemoves(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)

	require.NoError(t, c.ChangeQuantity(context.Background(), productA, 0))

	assert.Equal(t, []string{"fetch", "remove 10"}, remote.calls)
	_, ok := c.Lookup(productA)
	assert.False(t, ok, "line gone from the index")
	assert.Equal(t, 0, c.Len(), "line gone from the order")
	assert.Equal(t, 0, c.NbItems())
	assert.Equal(t, "0", c.Total())
}

func TestChangeQuantityUnknownProduct(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)

	err := c.ChangeQuantity(context.Background(), productB, 3)
	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.Equal(t, []string{"fetch"}, remote.calls, "no request for a product without a line")
}

func TestRemoteFailureLeavesCacheUntouched(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)
	remote.addErr = fmt.Errorf("boom")
	remote.setErr = fmt.Errorf("boom")
	remote.removeErr = fmt.Errorf("boom")

	assert.Error(t, c.AddProduct(context.Background(), productB))
	assert.Error(t, c.ChangeQuantity(context.Background(), productA, 5))
	assert.Error(t, c.ChangeQuantity(context.Background(), productA, 0))

	assert.Equal(t, 2, c.NbItems())
	assert.Equal(t, "100", c.Total())
	assert.Equal(t, 1, c.Len())
	line, ok := c.Lookup(productA)
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
}

func TestRebuildIndexIdempotent(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)
	remote.addResp = &models.ProductCart{ID: 11, CartID: 7, Product: productB, Quantity: 1}
	require.NoError(t, c.AddProduct(context.Background(), productB))

	c.mu.Lock()
	c.rebuildIndexLocked()
	first := make(map[uint]uint, len(c.byProduct))
	for k, v := range c.byProduct {
		first[k] = v
	}
	c.rebuildIndexLocked()
	second := c.byProduct
	c.mu.Unlock()

	assert.Equal(t, first, second)
}

func TestNbItemsInvariantAcrossSequence(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)
	remote.addResp = &models.ProductCart{ID: 11, CartID: 7, Product: productB, Quantity: 1}

	require.NoError(t, c.AddProduct(context.Background(), productB))
	require.NoError(t, c.ChangeQuantity(context.Background(), productB, 4))
	require.NoError(t, c.ChangeQuantity(context.Background(), productA, 0))

	sum := 0
	for _, ln := range c.Lines() {
		sum += ln.Quantity
	}
	assert.Equal(t, sum, c.NbItems())
	assert.Equal(t, 4, c.NbItems())
}

func TestPromotionAffectsTotal(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote, WithPromotions(pricing.TokenTable{productA.ID: "(10%)"}))

	// 45*2 with 10% off 50
	assert.Equal(t, "90", c.Total())
}

func TestMalformedPromotionFallsBackToBasePrice(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote, WithPromotions(pricing.TokenTable{productA.ID: "10%"}))

	assert.Equal(t, "100", c.Total())
}

func TestUsePromotionsRecomputes(t *testing.T) {
	remote := &stubRemote{}
	c := activeCache(t, remote)
	assert.Equal(t, "100", c.Total())

	c.UsePromotions(pricing.TokenTable{productA.ID: "(15)"})
	// (50-15)*2
	assert.Equal(t, "70", c.Total())
}
