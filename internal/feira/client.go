package feira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/httpclient"
	"github.com/letsgobuy/storefront/internal/rate"
	"github.com/letsgobuy/storefront/pkg/model"
)

// Backend paths.
const (
	PathSuppliers = "/suppliers/"
	PathStalls    = "/bancas/"
	PathProducts  = "/produtos/"
	PathSearch    = "/pesquisa/"
	PathLogin     = "/auth/login"
	PathUsers     = "/users/"
)

// Config holds the connection settings for the marketplace backend.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ReadRetryMax int
}

// Client wraps HTTP communication with the marketplace backend.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
}

// NewClient constructs a backend client. Writes are never retried; reads are retried
// cfg.ReadRetryMax times on transport errors and 5xx responses.
func NewClient(logger *zap.Logger, rateMgr *rate.Manager, cfg Config) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	exec := httpclient.New(logger, rateMgr, httpClient, cfg.ReadRetryMax, "feira", func(status int, body []byte) error {
		detail := parseDetail(body)
		logger.Info("feira.client_error",
			zap.Int("status", status),
			zap.String("detail", detail),
			zap.String("body", string(body)))
		return &APIError{Status: status, Detail: detail}
	})
	return &Client{
		logger:  logger,
		exec:    exec,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// BaseURL returns the backend origin this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// ListSuppliers fetches every supplier.
// GET /suppliers/
func (c *Client) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	var out []model.Supplier
	if err := c.getJSON(ctx, PathSuppliers, nil, "suppliers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStalls fetches every stall.
// GET /bancas/
func (c *Client) ListStalls(ctx context.Context) ([]model.Stall, error) {
	var out []model.Stall
	if err := c.getJSON(ctx, PathStalls, nil, "bancas", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProducts fetches every product.
// GET /produtos/
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	if err := c.getJSON(ctx, PathProducts, nil, "produtos", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search runs the aggregate product/stall search.
// GET /pesquisa/
func (c *Client) Search(ctx context.Context, p SearchParams) (*model.SearchResult, error) {
	var out model.SearchResult
	if err := c.getJSON(ctx, PathSearch, p.Query(), "pesquisa", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser fetches a user by identifier.
// GET /users/{id}
func (c *Client) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	var out UserResponse
	if err := c.getJSON(ctx, PathUsers+url.PathEscape(id), nil, "users", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSupplier registers a supplier.
// POST /suppliers/
func (c *Client) CreateSupplier(ctx context.Context, p *SupplierPayload) (*model.Supplier, error) {
	var out model.Supplier
	if err := c.sendJSON(ctx, http.MethodPost, PathSuppliers, "suppliers", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStall registers a stall with its address.
// POST /bancas/
func (c *Client) CreateStall(ctx context.Context, p *StallPayload) (*model.Stall, error) {
	var out model.Stall
	if err := c.sendJSON(ctx, http.MethodPost, PathStalls, "bancas", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct registers a product.
// POST /produtos/
func (c *Client) CreateProduct(ctx context.Context, p *ProductPayload) (*model.Product, error) {
	var out model.Product
	if err := c.sendJSON(ctx, http.MethodPost, PathProducts, "produtos", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates by email and password.
// POST /auth/login
func (c *Client) Login(ctx context.Context, email, password string) (*UserResponse, error) {
	var out UserResponse
	req := &loginRequest{Email: email, Password: password}
	if err := c.sendJSON(ctx, http.MethodPost, PathLogin, "auth_login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a user account.
// POST /users/
func (c *Client) Register(ctx context.Context, r *RegisterRequest) (*UserResponse, error) {
	var out UserResponse
	if err := c.sendJSON(ctx, http.MethodPost, PathUsers, "users", r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEmail changes a user's email.
// PUT /users/{id}
func (c *Client) UpdateEmail(ctx context.Context, id, email string) (*UserResponse, error) {
	var out UserResponse
	req := &updateEmailRequest{Email: email}
	if err := c.sendJSON(ctx, http.MethodPut, PathUsers+url.PathEscape(id), "users", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, endpoint string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	setHeaders(req)
	return c.exec.DoJSON(ctx, req, endpoint, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	setHeaders(req)
	return c.exec.DoJSON(ctx, req, endpoint, out)
}

func setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
