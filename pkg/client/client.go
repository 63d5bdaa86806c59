// Package client provides a Go HTTP client for the shoplist API.
//
// [Client] has one method per route of
// [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/shoplist.App.Router] and uses the
// same [github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models] entities as the server.
//
// # Errors
//
// Answers with a status of 400 or above are returned as [*APIError] carrying the status and
// the server's message. Use [IsNotFound] and friends, or errors.As, to inspect them.
//
// # Usage
//
//	c := client.NewClient("http://localhost:8080")
//
//	owner, err := c.CreateUser(ctx, "ada@example.com", "Ada")
//	milk, err := c.CreateItem(ctx, owner.ID, models.NewItem{Name: "Milk", Quantity: models.Ptr(2)})
//	items, err := c.ListItems(ctx, owner.ID)
//
//	// Drag the first pending item to the end of the pending list.
//	items, err = c.MovePending(ctx, owner.ID, 0, 2)
//
//	// Follow changes made by other clients.
//	events, err := c.Subscribe(ctx, owner.ID)
//	for ev := range events {
//		...
//	}
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
)

// Client provides typed access to the shoplist REST API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// NewClient creates a client for the server at baseURL, e.g. "http://localhost:8080",
// without a trailing slash. Requests time out after 30 seconds.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		dialer: websocket.DefaultDialer,
	}
}

// APIError is a non-2xx answer of the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status=%d, message=%s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsForbidden reports whether err is a 403 answer.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsReadOnly reports whether err is a 503 answer from a server in read-only mode.
func IsReadOnly(err error) bool {
	return hasStatus(err, http.StatusServiceUnavailable)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// doRequest performs an HTTP request with a JSON body
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into target, or returns an *APIError
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}

// Health is the answer of the health route.
type Health struct {
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	ReadOnly bool   `json:"read_only"`
	Time     int64  `json:"time"`
}

// Health checks the health status of the server
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var result Health
	if err := c.call(ctx, http.MethodGet, "/api/health", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// User management

// CreateUser registers an owner
func (c *Client) CreateUser(ctx context.Context, email, name string) (*models.User, error) {
	body := map[string]string{"email": email, "name": name}
	var result models.User
	if err := c.call(ctx, http.MethodPost, "/api/users", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUser retrieves an owner by ID
func (c *Client) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var result models.User
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/users/%s", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Item management

// CreateItem appends an item to the owner's list
func (c *Client) CreateItem(ctx context.Context, owner models.UserID, in models.NewItem) (*models.Item, error) {
	var result models.Item
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/api/users/%s/items", owner), in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetItem retrieves an item by ID
func (c *Client) GetItem(ctx context.Context, id models.ItemID) (*models.Item, error) {
	var result models.Item
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/items/%s", id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListItems lists the owner's items ascending by order index
func (c *Client) ListItems(ctx context.Context, owner models.UserID) ([]*models.Item, error) {
	result := []*models.Item{}
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/users/%s/items", owner), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateItem applies a partial update to an item of owner. Items of other owners are
// reported as not found.
func (c *Client) UpdateItem(ctx context.Context, owner models.UserID, id models.ItemID, upd models.ItemUpdate) (*models.Item, error) {
	path := fmt.Sprintf("/api/items/%s?user_id=%s", id, url.QueryEscape(owner.String()))
	var result models.Item
	if err := c.call(ctx, http.MethodPatch, path, upd, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteItem deletes an item of owner; later items move up by one position
func (c *Client) DeleteItem(ctx context.Context, owner models.UserID, id models.ItemID) error {
	var result struct {
		Success bool `json:"success"`
	}
	if err := c.call(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%s/items/%s", owner, id), nil, &result); err != nil {
		return err
	}
	if !result.Success {
		return errors.New("delete was not acknowledged")
	}
	return nil
}

// ReorderItems writes new positions in one batch and returns the owner's full list
func (c *Client) ReorderItems(ctx context.Context, owner models.UserID, orders []models.ItemOrder) ([]*models.Item, error) {
	body := models.ReorderRequest{ItemOrders: orders}
	if body.ItemOrders == nil {
		body.ItemOrders = []models.ItemOrder{}
	}
	result := []*models.Item{}
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/api/users/%s/items/order", owner), body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MovePending moves the pending item at position from to position to, counting pending
// items only, and stores the new order. Completed items are placed after the pending
// ones, keeping their relative order.
func (c *Client) MovePending(ctx context.Context, owner models.UserID, from, to int) ([]*models.Item, error) {
	items, err := c.ListItems(ctx, owner)
	if err != nil {
		return nil, err
	}
	orders, err := models.MovePending(items, from, to)
	if err != nil {
		return nil, err
	}
	return c.ReorderItems(ctx, owner, orders)
}

// Administration

// ReadOnly reports whether the server rejects writes
func (c *Client) ReadOnly(ctx context.Context) (bool, error) {
	var result models.ReadOnlyState
	if err := c.call(ctx, http.MethodGet, "/api/admin/read-only", nil, &result); err != nil {
		return false, err
	}
	return result.ReadOnly, nil
}

// SetReadOnly switches the server's read-only mode
func (c *Client) SetReadOnly(ctx context.Context, readOnly bool) error {
	var result models.ReadOnlyState
	return c.call(ctx, http.MethodPost, "/api/admin/read-only", models.ReadOnlyState{ReadOnly: readOnly}, &result)
}

// Change feed

// Subscribe opens the owner's change feed. Events arrive on the returned channel until
// ctx is cancelled or the server closes the connection; the channel is then closed.
func (c *Client) Subscribe(ctx context.Context, owner models.UserID) (<-chan models.Event, error) {
	wsURL, err := c.websocketURL(fmt.Sprintf("/api/users/%s/items/events", owner))
	if err != nil {
		return nil, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return nil, decodeResponse(resp, nil)
		}
		return nil, fmt.Errorf("failed to open change feed: %w", err)
	}

	events := make(chan models.Event)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()
	go func() {
		defer close(events)
		defer close(done)
		for {
			var ev models.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (c *Client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}
