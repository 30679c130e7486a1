package domain

import (
	"errors"
	"testing"
)

func TestDecodeEventPriceUpdate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"string price", `{"type":"price_update","data":{"price":"65000.5"}}`, "65000.5"},
		{"numeric price", `{"type":"price_update","data":{"price":65000.5}}`, "65000.5"},
		{"thousands separators", `{"type":"price_update","data":{"price":"65,000.5"}}`, "65,000.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tc.raw))
			if err != nil {
				t.Fatalf("DecodeEvent returned error: %v", err)
			}
			if ev.Type != EventPriceUpdate {
				t.Fatalf("expected type price_update, got %s", ev.Type)
			}
			if ev.Price != tc.want {
				t.Fatalf("expected price %q, got %q", tc.want, ev.Price)
			}
		})
	}
}

func TestDecodeEventOrderCreated(t *testing.T) {
	raw := `{"type":"order_created","data":{"strategy_id":7,"order_id":42,"side":"BUY","price":64000,"qty":100,"status":"PENDING"}}`

	ev, err := DecodeEvent([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	if ev.Type != EventOrderCreated {
		t.Fatalf("expected type order_created, got %s", ev.Type)
	}
	if ev.StrategyID != 7 {
		t.Fatalf("expected strategy id 7, got %d", ev.StrategyID)
	}
	if ev.OrderID != 42 {
		t.Fatalf("expected order id 42, got %d", ev.OrderID)
	}
	if ev.Side != "BUY" {
		t.Fatalf("expected side BUY, got %q", ev.Side)
	}
}

func TestDecodeEventStrategyStarted(t *testing.T) {
	raw := `{"type":"strategy_started","data":{"strategy_id":7,"orders_count":9}}`

	ev, err := DecodeEvent([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	if ev.StrategyID != 7 || ev.OrdersCount != 9 {
		t.Fatalf("unexpected payload: %+v", ev)
	}
}

func TestDecodeEventSignal(t *testing.T) {
	raw := `{"type":"signal_created","data":{"id":3,"symbol":"BTCUSDT","side":"SELL","price":66000,"status":"NEW"}}`

	ev, err := DecodeEvent([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	if ev.Signal == nil {
		t.Fatal("expected signal payload")
	}
	if ev.Signal.ID != 3 || ev.Signal.Side != "SELL" {
		t.Fatalf("unexpected signal: %+v", ev.Signal)
	}
}

func TestDecodeEventRejectsUnknownType(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"heartbeat","data":{}}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestDecodeEventRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"price_update"`))
	if err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"65000.5", 65000.5, true},
		{"65,000.5", 65000.5, true},
		{" 1,234,567 ", 1234567, true},
		{"", 0, false},
		{"null", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParsePrice(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParsePrice(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
