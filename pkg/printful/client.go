package printful

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/praytees/storefront/pkg/errors"
)

const (
	DefaultBaseURL = "https://api.printful.com"
	// PageLimit is the largest page the store products endpoint serves.
	PageLimit = 100

	defaultTimeout             = 15 * time.Second
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("printful api key is required")

// Client talks to the Printful REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	storeID    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at another API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithStoreID scopes requests to one store for account-level tokens.
func WithStoreID(storeID string) Option {
	return func(c *Client) {
		c.storeID = strings.TrimSpace(storeID)
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a Printful client for the given private token.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// File is a print or mockup file attached to a sync variant.
type File struct {
	Type         string `json:"type"`
	PreviewURL   string `json:"preview_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// SyncProduct is a store product as listed by /store/products.
type SyncProduct struct {
	ID           int64  `json:"id"`
	ExternalID   string `json:"external_id"`
	Name         string `json:"name"`
	Variants     int    `json:"variants"`
	Synced       int    `json:"synced"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsIgnored    bool   `json:"is_ignored"`
}

// SyncVariant is one purchasable variant of a store product.
type SyncVariant struct {
	ID            int64  `json:"id"`
	ExternalID    string `json:"external_id"`
	SyncProductID int64  `json:"sync_product_id"`
	Name          string `json:"name"`
	Synced        bool   `json:"synced"`
	VariantID     int64  `json:"variant_id"`
	RetailPrice   string `json:"retail_price"`
	Currency      string `json:"currency"`
	IsIgnored     bool   `json:"is_ignored"`
	SKU           string `json:"sku"`
	Size          string `json:"size"`
	Color         string `json:"color"`
	Files         []File `json:"files"`
}

// ProductDetail is the /store/products/{id} result.
type ProductDetail struct {
	SyncProduct  SyncProduct   `json:"sync_product"`
	SyncVariants []SyncVariant `json:"sync_variants"`
}

// Recipient is a shipping destination.
type Recipient struct {
	Name        string `json:"name,omitempty"`
	Address1    string `json:"address1"`
	City        string `json:"city"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// ItemQuantity names a variant and how many of it ship.
type ItemQuantity struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// ShippingRatesRequest is the /shipping/rates payload.
type ShippingRatesRequest struct {
	Recipient Recipient      `json:"recipient"`
	Items     []ItemQuantity `json:"items"`
	Currency  string         `json:"currency,omitempty"`
}

// ShippingRate is one carrier option. Rate is a decimal string.
type ShippingRate struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Rate            string `json:"rate"`
	Currency        string `json:"currency"`
	MinDeliveryDays int    `json:"minDeliveryDays"`
	MaxDeliveryDays int    `json:"maxDeliveryDays"`
}

// OrderItem is one line of a fulfillment order.
type OrderItem struct {
	VariantID   int64  `json:"variant_id"`
	Quantity    int    `json:"quantity"`
	Name        string `json:"name,omitempty"`
	RetailPrice string `json:"retail_price,omitempty"`
}

// CreateOrderRequest is the /orders payload. Orders are created as drafts.
type CreateOrderRequest struct {
	ExternalID string      `json:"external_id"`
	Shipping   string      `json:"shipping,omitempty"`
	Recipient  Recipient   `json:"recipient"`
	Items      []OrderItem `json:"items"`
}

// Order is the created order as echoed back by the API.
type Order struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

type envelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ListStoreProducts reads one page of store products.
func (c *Client) ListStoreProducts(ctx context.Context, offset, limit int) ([]SyncProduct, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "printful client not configured")
	}
	if limit <= 0 || limit > PageLimit {
		limit = PageLimit
	}
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var products []SyncProduct
	if err := c.do(ctx, http.MethodGet, "store/products?"+query.Encode(), nil, &products, "list store products"); err != nil {
		return nil, err
	}
	return products, nil
}

// ListAllStoreProducts pages through the store until a short page.
func (c *Client) ListAllStoreProducts(ctx context.Context) ([]SyncProduct, error) {
	var all []SyncProduct
	for offset := 0; ; offset += PageLimit {
		page, err := c.ListStoreProducts(ctx, offset, PageLimit)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < PageLimit {
			return all, nil
		}
	}
}

// GetStoreProduct reads one product with its sync variants.
func (c *Client) GetStoreProduct(ctx context.Context, id string) (*ProductDetail, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "printful client not configured")
	}
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var detail ProductDetail
	if err := c.do(ctx, http.MethodGet, "store/products/"+url.PathEscape(trimmed), nil, &detail, "get store product"); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ShippingRates quotes carrier options for a recipient and item list.
func (c *Client) ShippingRates(ctx context.Context, req ShippingRatesRequest) ([]ShippingRate, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "printful client not configured")
	}
	if strings.TrimSpace(req.Recipient.CountryCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient country code is required")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	var rates []ShippingRate
	if err := c.do(ctx, http.MethodPost, "shipping/rates", req, &rates, "shipping rates"); err != nil {
		return nil, err
	}
	return rates, nil
}

// CreateOrder submits a draft order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "printful client not configured")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires items")
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "orders", req, &order, "create order"); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, op string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+op+" request")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+op+" request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.storeID != "" {
		httpReq.Header.Set("X-PF-Store-Id", c.storeID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if rejected(resp.StatusCode) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, op+" request rejected")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, op+" request failed")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+op+" response")
	}
	if env.Code != http.StatusOK || len(env.Result) == 0 {
		reason := "missing result"
		if env.Error != nil && env.Error.Message != "" {
			reason = env.Error.Message
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("code %d: %s", env.Code, reason), "invalid "+op+" response")
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+op+" result")
	}
	return nil
}

// rejected reports client errors that will not succeed on retry.
func rejected(status int) bool {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return false
	}
	return status >= 400 && status < 500
}

func (c *Client) buildURL(path string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
