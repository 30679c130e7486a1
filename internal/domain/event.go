package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventType identifies a push-channel frame variant.
type EventType string

const (
	EventPriceUpdate     EventType = "price_update"
	EventSignalCreated   EventType = "signal_created"
	EventSignalUpdated   EventType = "signal_updated"
	EventOrderCreated    EventType = "order_created"
	EventOrderFilled     EventType = "order_filled"
	EventStrategyStarted EventType = "strategy_started"
)

// Event is a decoded push-channel frame. Only the fields belonging to the
// variant named by Type are populated. Events are transient: they trigger one
// merge step and are retained only as BotStatus.LastEvent.
type Event struct {
	Type EventType

	// price_update. The raw wire value; price normalization happens at the
	// merge boundary so a bad sample is rejected without dropping the frame.
	Price string

	// order_created, order_filled, strategy_started.
	StrategyID  int64
	OrderID     int64
	Side        string
	OrdersCount int
	Profit      float64

	// signal_created, signal_updated.
	Signal *Signal
}

// wirePrice accepts a JSON number or string so both `{"price": 65000}` and
// `{"price": "65,000.5"}` decode.
type wirePrice string

func (p *wirePrice) UnmarshalJSON(b []byte) error {
	*p = wirePrice(strings.Trim(string(b), `"`))
	return nil
}

// DecodeEvent parses a raw push-channel frame into a typed Event. Frames with
// malformed JSON fail outright; frames with a type outside the recognized set
// fail with ErrUnknownEvent so the feed can drop them without guessing at
// payload fields.
func DecodeEvent(raw []byte) (Event, error) {
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Event{}, fmt.Errorf("domain: decode event envelope: %w", err)
	}

	ev := Event{Type: EventType(envelope.Type)}

	switch ev.Type {
	case EventPriceUpdate:
		var data struct {
			Price wirePrice `json:"price"`
		}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return Event{}, fmt.Errorf("domain: decode price_update: %w", err)
		}
		ev.Price = string(data.Price)

	case EventOrderCreated, EventOrderFilled:
		var data struct {
			StrategyID int64     `json:"strategy_id"`
			OrderID    int64     `json:"order_id"`
			Side       string    `json:"side"`
			Price      wirePrice `json:"price"`
			Profit     float64   `json:"profit"`
		}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return Event{}, fmt.Errorf("domain: decode %s: %w", ev.Type, err)
		}
		ev.StrategyID = data.StrategyID
		ev.OrderID = data.OrderID
		ev.Side = data.Side
		ev.Price = string(data.Price)
		ev.Profit = data.Profit

	case EventStrategyStarted:
		var data struct {
			StrategyID  int64 `json:"strategy_id"`
			OrdersCount int   `json:"orders_count"`
		}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return Event{}, fmt.Errorf("domain: decode strategy_started: %w", err)
		}
		ev.StrategyID = data.StrategyID
		ev.OrdersCount = data.OrdersCount

	case EventSignalCreated, EventSignalUpdated:
		var sig Signal
		if err := json.Unmarshal(envelope.Data, &sig); err != nil {
			return Event{}, fmt.Errorf("domain: decode %s: %w", ev.Type, err)
		}
		ev.Signal = &sig

	default:
		return Event{}, fmt.Errorf("domain: %q: %w", envelope.Type, ErrUnknownEvent)
	}

	return ev, nil
}
