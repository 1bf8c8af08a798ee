// Package cartclient is a thin HTTP wrapper around the remote cart
// resource. Every operation is a single round trip; there is no retry
// and no idempotency key. Failures surface as errors, the cache decides
// what to do with them.
package cartclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/m2gi-davilori/ecom/models"
)

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	log     *logrus.Logger
}

type Option func(*Client)

// WithToken sets the session token sent in the Authorization header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithLogger replaces the default logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a client for the cart resource rooted at baseURL
// (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCart retrieves the full cart for the current session. The filter,
// when non-empty, is passed through as the "filter" query parameter.
func (c *Client) FetchCart(ctx context.Context, filter string) (*models.Cart, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	var cart models.Cart
	if err := c.do(ctx, http.MethodGet, "/api/cart", q, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddProduct asks the server to create or increment the cart line for a
// product and returns the resulting line.
func (c *Client) AddProduct(ctx context.Context, productID uint) (*models.ProductCart, error) {
	var line models.ProductCart
	path := fmt.Sprintf("/api/cart/products/%d", productID)
	if err := c.do(ctx, http.MethodPost, path, nil, &line); err != nil {
		return nil, err
	}
	return &line, nil
}

// SetQuantity sets the quantity of an existing cart line and returns the
// updated line.
func (c *Client) SetQuantity(ctx context.Context, lineID uint, quantity int) (*models.ProductCart, error) {
	q := url.Values{}
	q.Set("quantity", strconv.Itoa(quantity))
	var line models.ProductCart
	path := fmt.Sprintf("/api/cart/products/%d", lineID)
	if err := c.do(ctx, http.MethodPatch, path, q, &line); err != nil {
		return nil, err
	}
	return &line, nil
}

// RemoveLine deletes a cart line.
func (c *Client) RemoveLine(ctx context.Context, lineID uint) error {
	path := fmt.Sprintf("/api/cart/products/%d", lineID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// FetchPromotions retrieves the promotions currently active.
func (c *Client) FetchPromotions(ctx context.Context) ([]models.Promotion, error) {
	var promos []models.Promotion
	if err := c.do(ctx, http.MethodGet, "/api/promotions", nil, &promos); err != nil {
		return nil, err
	}
	return promos, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return errors.Wrapf(err, "%s %s: build request", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		c.log.Warnf("cart request %s %s returned status %d", method, path, res.StatusCode)
		return errors.Errorf("%s %s: unexpected status %d", method, path, res.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s %s: decode response", method, path)
	}
	return nil
}
