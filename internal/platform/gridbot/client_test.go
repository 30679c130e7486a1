package gridbot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quantflow/gridmon/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestStatusDecodesNumericPrice(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"running":true,"logged_in":true,"current_price":65000.5}`))
	}))

	snap, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !snap.Running || !snap.LoggedIn {
		t.Fatalf("flags not decoded: %+v", snap)
	}
	if !snap.HasPrice || snap.Price != "65000.5" {
		t.Fatalf("expected price 65000.5, got %+v", snap)
	}
}

func TestStatusDecodesStringPrice(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"running":true,"logged_in":false,"current_price":"65,000.5"}`))
	}))

	snap, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !snap.HasPrice || snap.Price != "65,000.5" {
		t.Fatalf("expected raw string price preserved, got %+v", snap)
	}
}

func TestStatusNullPriceMeansAbsent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"running":false,"logged_in":false,"current_price":null}`))
	}))

	snap, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if snap.HasPrice || snap.Price != "" {
		t.Fatalf("null price should be absent, got %+v", snap)
	}
}

func TestListStrategiesSendsStatusFilter(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "RUNNING" {
			t.Errorf("expected status filter RUNNING, got %q", got)
		}
		w.Write([]byte(`{"items":[{"id":3,"name":"btc-grid","status":"RUNNING","grid_count":12}]}`))
	}))

	strategies, err := c.ListStrategies(context.Background(), "RUNNING")
	if err != nil {
		t.Fatalf("ListStrategies: %v", err)
	}
	if len(strategies) != 1 {
		t.Fatalf("expected 1 strategy, got %d", len(strategies))
	}
	s := strategies[0]
	if s.ID != 3 || s.Name != "btc-grid" || s.Status != domain.StrategyRunning || s.GridCount != 12 {
		t.Fatalf("strategy not decoded: %+v", s)
	}
}

func TestBusyResponseMapsToErrBusy(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"Database is busy, please try again"}`))
	}))

	err := c.StopStrategy(context.Background(), 9)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if got := domain.ErrorDetail(err); got != "Database is busy, please try again" {
		t.Fatalf("expected server detail, got %q", got)
	}
}

func TestNotFoundMapsToErrNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Strategy not found"}`))
	}))

	_, err := c.GetStrategy(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBadRequestCarriesDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Cannot start strategy in status RUNNING"}`))
	}))

	err := c.StartStrategy(context.Background(), 5)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrBusy) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("400 must not map to a sentinel: %v", err)
	}
	if got := domain.ErrorDetail(err); got != "Cannot start strategy in status RUNNING" {
		t.Fatalf("expected server detail, got %q", got)
	}
}

func TestCreateStrategyRejectsInvertedRange(t *testing.T) {
	called := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := c.CreateStrategy(context.Background(), NewStrategy{
		Name:       "bad",
		Symbol:     "BTCUSDT",
		UpperPrice: 100,
		LowerPrice: 200,
		GridCount:  10,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if called {
		t.Fatal("inverted range must fail before the request is sent")
	}
}

func TestCreateStrategyPostsPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/strategies" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		var req NewStrategy
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if req.Symbol != "BTCUSDT" || req.GridCount != 20 {
			t.Errorf("payload not round-tripped: %+v", req)
		}
		w.Write([]byte(`{"id":11,"name":"btc-grid","status":"CREATED","grid_count":20}`))
	}))

	s, err := c.CreateStrategy(context.Background(), NewStrategy{
		Name:              "btc-grid",
		Symbol:            "BTCUSDT",
		UpperPrice:        70000,
		LowerPrice:        60000,
		GridCount:         20,
		InvestmentPerGrid: 50,
	})
	if err != nil {
		t.Fatalf("CreateStrategy: %v", err)
	}
	if s.ID != 11 || s.Status != domain.StrategyCreated {
		t.Fatalf("created strategy not decoded: %+v", s)
	}
}

func TestStrategyOrdersDecodesBareList(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/strategies/7/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id":1,"strategy_id":7,"side":"BUY","status":"FILLED"},{"id":2,"strategy_id":7,"side":"SELL","status":"OPEN"}]`))
	}))

	orders, err := c.StrategyOrders(context.Background(), 7, "")
	if err != nil {
		t.Fatalf("StrategyOrders: %v", err)
	}
	if len(orders) != 2 || orders[0].Side != "BUY" || orders[1].Status != "OPEN" {
		t.Fatalf("orders not decoded: %+v", orders)
	}
}

func TestDeleteStrategyUsesDeleteMethod(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/strategies/4" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"message":"Strategy deleted"}`))
	}))

	if err := c.DeleteStrategy(context.Background(), 4); err != nil {
		t.Fatalf("DeleteStrategy: %v", err)
	}
}
