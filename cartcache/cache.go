// Package cartcache keeps an in-memory mirror of the authoritative
// remote cart. The mirror only changes in response to a successful
// remote operation: no optimistic updates, so a failed request never
// needs a rollback. Derived fields (total, item count, product index)
// are recomputed synchronously inside the same critical section as the
// change that invalidated them.
package cartcache

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/m2gi-davilori/ecom/models"
	"github.com/m2gi-davilori/ecom/pricing"
)

var (
	// ErrNoActiveCart is returned by mutations that require a fetched
	// cart. Adding to a cart that does not exist is rejected, not
	// deferred.
	ErrNoActiveCart = errors.New("cartcache: no active cart")

	// ErrLineNotFound is returned when a quantity change targets a
	// product that has no line in the cart. No remote call is made.
	ErrLineNotFound = errors.New("cartcache: product has no line in the cart")
)

// Remote is the subset of cart operations the cache drives. Satisfied
// by *cartclient.Client.
type Remote interface {
	FetchCart(ctx context.Context, filter string) (*models.Cart, error)
	AddProduct(ctx context.Context, productID uint) (*models.ProductCart, error)
	SetQuantity(ctx context.Context, lineID uint, quantity int) (*models.ProductCart, error)
	RemoveLine(ctx context.Context, lineID uint) error
}

// Cache mirrors the remote cart. Line storage is an arena keyed by the
// server-assigned line ID; the ordered sequence and the product index
// hold IDs, never pointers into each other, so an in-place update is
// always "update the arena entry".
//
// All state sits behind one mutex. The remote call itself happens
// outside the lock and the apply step inside it, which preserves
// last-write-wins-by-completion-order when callers race.
type Cache struct {
	remote Remote
	promos pricing.PromotionLookup
	log    *logrus.Logger

	mu        sync.Mutex
	cart      *models.Cart                 // nil until Refresh succeeds; lines live in the arena
	lines     map[uint]*models.ProductCart // arena, keyed by line ID
	order     []uint                       // server-assigned line order
	byProduct map[uint]uint                // product ID -> line ID
	total     string
	nbItems   int
}

type Option func(*Cache)

// WithPromotions sets the promotion lookup used when totals are
// computed.
func WithPromotions(l pricing.PromotionLookup) Option {
	return func(c *Cache) { c.promos = l }
}

// WithLogger replaces the default logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Cache) { c.log = log }
}

func New(remote Remote, opts ...Option) *Cache {
	c := &Cache{
		remote:    remote,
		log:       logrus.StandardLogger(),
		lines:     make(map[uint]*models.ProductCart),
		byProduct: make(map[uint]uint),
		total:     "0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh fetches the cart and replaces the mirror wholesale. This is
// the only way the cache becomes active, and the way to resync after
// racing mutations have drifted from server truth.
func (c *Cache) Refresh(ctx context.Context, filter string) error {
	cart, err := c.remote.FetchCart(ctx, filter)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[uint]*models.ProductCart, len(cart.Lines))
	c.order = c.order[:0]
	for i := range cart.Lines {
		ln := cart.Lines[i]
		c.lines[ln.ID] = &ln
		c.order = append(c.order, ln.ID)
	}
	cart.Lines = nil // the arena is the only line storage
	c.cart = cart
	c.rebuildIndexLocked()
	c.recomputeLocked()
	return nil
}

// UsePromotions swaps the promotion lookup and recomputes the total
// under it.
func (c *Cache) UsePromotions(l pricing.PromotionLookup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promos = l
	c.recomputeLocked()
}

// AddProduct adds one unit of a product to the cart. Without an active
// cart the call is rejected before any request is made.
func (c *Cache) AddProduct(ctx context.Context, product models.Product) error {
	c.mu.Lock()
	active := c.cart != nil
	c.mu.Unlock()
	if !active {
		return ErrNoActiveCart
	}

	line, err := c.remote.AddProduct(ctx, product.ID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ln := *line
	if _, exists := c.lines[ln.ID]; !exists {
		// The server may have incremented an existing line instead of
		// creating one; only unseen IDs extend the order.
		c.order = append(c.order, ln.ID)
	}
	c.lines[ln.ID] = &ln
	c.rebuildIndexLocked()
	c.recomputeLocked()
	return nil
}

// ChangeQuantity sets the quantity of the product's line. A quantity of
// zero (or less) removes the line instead of keeping it at zero.
func (c *Cache) ChangeQuantity(ctx context.Context, product models.Product, quantity int) error {
	if quantity > 0 {
		return c.updateQuantity(ctx, product, quantity)
	}
	return c.removeProduct(ctx, product)
}

func (c *Cache) updateQuantity(ctx context.Context, product models.Product, quantity int) error {
	c.mu.Lock()
	lineID, ok := c.byProduct[product.ID]
	c.mu.Unlock()
	if !ok {
		return ErrLineNotFound
	}

	updated, err := c.remote.SetQuantity(ctx, lineID, quantity)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ln, ok := c.lines[lineID]; ok {
		ln.Quantity = updated.Quantity
		// Line set shape unchanged, the index stays valid.
		c.recomputeLocked()
	}
	return nil
}

func (c *Cache) removeProduct(ctx context.Context, product models.Product) error {
	c.mu.Lock()
	lineID, ok := c.byProduct[product.ID]
	c.mu.Unlock()
	if !ok {
		return ErrLineNotFound
	}

	if err := c.remote.RemoveLine(ctx, lineID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, lineID)
	for i, id := range c.order {
		if id == lineID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.rebuildIndexLocked()
	c.recomputeLocked()
	return nil
}

// Lookup returns a copy of the product's cart line, if it has one.
func (c *Cache) Lookup(product models.Product) (models.ProductCart, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lineID, ok := c.byProduct[product.ID]
	if !ok {
		return models.ProductCart{}, false
	}
	return *c.lines[lineID], true
}

// Lines returns copies of the cart lines in server order.
func (c *Cache) Lines() []models.ProductCart {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ProductCart, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Total is the locale-formatted sum of effective line prices times
// quantities, as of the last applied mutation.
func (c *Cache) Total() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// NbItems is the sum of quantities across lines.
func (c *Cache) NbItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nbItems
}

// Len is the number of lines in the cart.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Active reports whether a cart has been fetched.
func (c *Cache) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart != nil
}

// rebuildIndexLocked repopulates the product index wholesale. Never
// patched incrementally: a full rebuild cannot drift from the arena.
func (c *Cache) rebuildIndexLocked() {
	c.byProduct = make(map[uint]uint, len(c.order))
	for _, id := range c.order {
		c.byProduct[c.lines[id].Product.ID] = id
	}
}

func (c *Cache) recomputeLocked() {
	total := decimal.Zero
	items := 0
	for _, id := range c.order {
		ln := c.lines[id]
		price := ln.Product.Price
		if c.promos != nil && c.promos.InPromotion(ln.Product) {
			token := c.promos.Promotion(ln.Product)
			effective, err := pricing.EffectivePrice(price, token)
			if err != nil {
				// A broken token must not corrupt the total; charge the
				// base price and say so.
				c.log.Warnf("promotion token %q for product %d ignored: %v", token, ln.Product.ID, err)
			} else {
				price = effective
			}
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(ln.Quantity))))
		items += ln.Quantity
	}
	c.total = pricing.FormatTotal(total)
	c.nbItems = items
}
