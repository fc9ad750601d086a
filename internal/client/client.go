package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tokoadmin/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Paths of the catalog API, relative to the base URL.
const (
	ListPath       = "/api/v1/product-list"
	CreatePath     = "/api/v1/product-create"
	UpdatePath     = "/api/v1/product-update"
	SoftDeletePath = "/api/v1/product-soft-delete"
	RestorePath    = "/api/v1/product-restore"
	HardDeletePath = "/api/v1/product-hard-delete"
)

// RequestError reports a catalog API call that completed with a non-2xx status.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, strings.TrimSpace(e.Body))
}

// Config holds catalog API connection details.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the remote catalog API.
type Client struct {
	baseURL string
	timeout time.Duration
}

// New creates a new catalog API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
	}
}

// List fetches every product.
func (c *Client) List(ctx context.Context) ([]models.Product, error) {
	var resp models.ProductListResponse
	if err := c.do(ctx, fiber.MethodGet, ListPath, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []models.Product{}, nil
	}
	return resp.Data, nil
}

// Create creates a product and returns the server's message.
func (c *Client) Create(ctx context.Context, form models.ProductForm) (string, error) {
	return c.post(ctx, CreatePath, form)
}

// Update replaces the editable fields of product id.
func (c *Client) Update(ctx context.Context, id string, form models.ProductForm) (string, error) {
	return c.post(ctx, UpdatePath, models.ProductUpdate{ID: id, ProductForm: form})
}

// SoftDelete deactivates product id.
func (c *Client) SoftDelete(ctx context.Context, id string) (string, error) {
	return c.post(ctx, SoftDeletePath, models.ProductRef{ID: id})
}

// Restore reactivates product id.
func (c *Client) Restore(ctx context.Context, id string) (string, error) {
	return c.post(ctx, RestorePath, models.ProductRef{ID: id})
}

// HardDelete permanently removes product id.
func (c *Client) HardDelete(ctx context.Context, id string) (string, error) {
	return c.post(ctx, HardDeletePath, models.ProductRef{ID: id})
}

func (c *Client) post(ctx context.Context, path string, body any) (string, error) {
	var resp models.MessageResponse
	if err := c.do(ctx, fiber.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

type result struct {
	status int
	body   []byte
	err    error
}

// do sends one request. The underlying agent has no notion of a context, so
// a cancelled ctx abandons the request and its response is dropped.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var a *fiber.Agent
	if method == fiber.MethodGet {
		a = fiber.Get(c.baseURL + path)
	} else {
		a = fiber.Post(c.baseURL + path)
	}
	a.Timeout(c.timeout)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if in != nil {
		a.JSON(in)
	}

	done := make(chan result, 1)
	go func() {
		status, body, errs := a.Bytes()
		done <- result{status: status, body: body, err: errors.Join(errs...)}
	}()

	var res result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		return fmt.Errorf("%s %s: %w", method, path, res.err)
	}
	if res.status < fiber.StatusOK || res.status >= fiber.StatusMultipleChoices {
		return &RequestError{Method: method, Path: path, Status: res.status, Body: string(res.body)}
	}
	if out == nil || len(res.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
