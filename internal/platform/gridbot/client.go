// Package gridbot is the HTTP and WebSocket client for the grid-trading bot
// backend. The REST client covers the status snapshot, strategy and order
// reads, and the strategy lifecycle commands; Stream is one live push-channel
// connection.
package gridbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quantflow/gridmon/internal/domain"
)

// APIError is a non-2xx backend response. Message carries the server-supplied
// detail when the body had one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gridbot: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gridbot: status %d", e.StatusCode)
}

// Detail returns the server-supplied rejection message, satisfying
// domain.DetailError.
func (e *APIError) Detail() string {
	return e.Message
}

// Busy reports whether the response signals "server busy, retry shortly"
// rather than a real rejection.
func (e *APIError) Busy() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

// Unwrap maps well-known status codes onto domain sentinels so callers can
// use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Busy():
		return domain.ErrBusy
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return nil
	}
}

// Client is the REST client for the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend REST client.
//
// baseURL is the API root, e.g. "http://127.0.0.1:8000/api".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Status fetches the full bot status snapshot.
func (c *Client) Status(ctx context.Context) (domain.StatusSnapshot, error) {
	body, err := c.do(ctx, http.MethodGet, "/bot/status", nil)
	if err != nil {
		return domain.StatusSnapshot{}, fmt.Errorf("gridbot: get status: %w", err)
	}

	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.StatusSnapshot{}, fmt.Errorf("gridbot: decode status: %w", err)
	}

	return domain.StatusSnapshot{
		Running:  resp.Running,
		LoggedIn: resp.LoggedIn,
		Price:    string(resp.CurrentPrice),
		HasPrice: resp.CurrentPrice != "",
	}, nil
}

// ListStrategies returns all strategies, optionally filtered by status.
func (c *Client) ListStrategies(ctx context.Context, status string) ([]domain.Strategy, error) {
	path := "/strategies"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("gridbot: list strategies: %w", err)
	}

	var resp strategiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("gridbot: decode strategies: %w", err)
	}
	return resp.Items, nil
}

// GetStrategy returns a single strategy by id.
func (c *Client) GetStrategy(ctx context.Context, id int64) (domain.Strategy, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/strategies/%d", id), nil)
	if err != nil {
		return domain.Strategy{}, fmt.Errorf("gridbot: get strategy %d: %w", id, err)
	}

	var s domain.Strategy
	if err := json.Unmarshal(body, &s); err != nil {
		return domain.Strategy{}, fmt.Errorf("gridbot: decode strategy: %w", err)
	}
	return s, nil
}

// CreateStrategy creates a new grid strategy. The price bounds are checked
// here as well so an inverted range fails before a round trip.
func (c *Client) CreateStrategy(ctx context.Context, req NewStrategy) (domain.Strategy, error) {
	if req.UpperPrice <= req.LowerPrice {
		return domain.Strategy{}, fmt.Errorf("gridbot: upper price must exceed lower price")
	}

	body, err := c.do(ctx, http.MethodPost, "/strategies", req)
	if err != nil {
		return domain.Strategy{}, fmt.Errorf("gridbot: create strategy: %w", err)
	}

	var s domain.Strategy
	if err := json.Unmarshal(body, &s); err != nil {
		return domain.Strategy{}, fmt.Errorf("gridbot: decode strategy: %w", err)
	}
	return s, nil
}

// UpdateStrategy updates strategy parameters; the backend only allows this in
// CREATED or PAUSED state.
func (c *Client) UpdateStrategy(ctx context.Context, id int64, upd StrategyUpdate) (domain.Strategy, error) {
	body, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/strategies/%d", id), upd)
	if err != nil {
		return domain.Strategy{}, fmt.Errorf("gridbot: update strategy %d: %w", id, err)
	}

	var s domain.Strategy
	if err := json.Unmarshal(body, &s); err != nil {
		return domain.Strategy{}, fmt.Errorf("gridbot: decode strategy: %w", err)
	}
	return s, nil
}

// StrategyOrders returns the orders belonging to a strategy, optionally
// filtered by order status.
func (c *Client) StrategyOrders(ctx context.Context, id int64, status string) ([]domain.Order, error) {
	path := fmt.Sprintf("/strategies/%d/orders", id)
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("gridbot: strategy %d orders: %w", id, err)
	}

	var orders []domain.Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("gridbot: decode orders: %w", err)
	}
	return orders, nil
}

// ListOrders returns all orders matching the filter.
func (c *Client) ListOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	if filter.Symbol != "" {
		params.Set("symbol", filter.Symbol)
	}
	if filter.StrategyID != 0 {
		params.Set("strategy_id", strconv.FormatInt(filter.StrategyID, 10))
	}

	path := "/orders"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("gridbot: list orders: %w", err)
	}

	var resp ordersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("gridbot: decode orders: %w", err)
	}
	return resp.Items, nil
}

// StartStrategy asks the backend to start the strategy. The backend responds
// before grid placement finishes; completion arrives on the push channel.
func (c *Client) StartStrategy(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/strategies/%d/start", id), nil)
	if err != nil {
		return fmt.Errorf("gridbot: start strategy %d: %w", id, err)
	}
	return nil
}

// PauseStrategy asks the backend to pause a running strategy.
func (c *Client) PauseStrategy(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/strategies/%d/pause", id), nil)
	if err != nil {
		return fmt.Errorf("gridbot: pause strategy %d: %w", id, err)
	}
	return nil
}

// StopStrategy asks the backend to stop a strategy and cancel its open
// orders.
func (c *Client) StopStrategy(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/strategies/%d/stop", id), nil)
	if err != nil {
		return fmt.Errorf("gridbot: stop strategy %d: %w", id, err)
	}
	return nil
}

// DeleteStrategy removes a stopped or never-started strategy together with
// its orders and trade history.
func (c *Client) DeleteStrategy(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/strategies/%d", id), nil)
	if err != nil {
		return fmt.Errorf("gridbot: delete strategy %d: %w", id, err)
	}
	return nil
}

// do performs one request against the backend. Non-2xx responses are returned
// as *APIError with the server detail message extracted when present.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody errorResponse
		if json.Unmarshal(body, &errBody) == nil {
			apiErr.Message = errBody.Detail
		}
		return nil, apiErr
	}

	return body, nil
}
