package domain

import "time"

// StrategyStatus is the backend-owned lifecycle state of a grid strategy.
type StrategyStatus string

const (
	StrategyCreated StrategyStatus = "CREATED"
	StrategyRunning StrategyStatus = "RUNNING"
	StrategyPaused  StrategyStatus = "PAUSED"
	StrategyStopped StrategyStatus = "STOPPED"
)

// CanStart reports whether a start command is valid from this state.
func (s StrategyStatus) CanStart() bool {
	return s == StrategyCreated || s == StrategyPaused
}

// CanPause reports whether a pause command is valid from this state.
func (s StrategyStatus) CanPause() bool {
	return s == StrategyRunning
}

// CanStop reports whether a stop command is valid from this state.
func (s StrategyStatus) CanStop() bool {
	return s == StrategyRunning || s == StrategyPaused
}

// CanDelete reports whether a delete command is valid from this state.
func (s StrategyStatus) CanDelete() bool {
	return s == StrategyCreated || s == StrategyStopped
}

// Strategy is the client-side read-through copy of a backend grid strategy.
// The backend owns every field; the console only refreshes it from canonical
// reloads and never mutates it beyond the pending-action overlay kept by the
// state loop.
type Strategy struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Symbol            string         `json:"symbol"`
	Type              string         `json:"type"`
	Status            StrategyStatus `json:"status"`
	UpperPrice        float64        `json:"upper_price"`
	LowerPrice        float64        `json:"lower_price"`
	GridCount         int            `json:"grid_count"`
	InvestmentPerGrid float64        `json:"investment_per_grid"`
	StopLoss          *float64       `json:"stop_loss,omitempty"`
	TakeProfit        *float64       `json:"take_profit,omitempty"`
	MaxOrders         int            `json:"max_orders"`
	TotalProfit       float64        `json:"total_profit"`
	TotalTrades       int            `json:"total_trades"`
	CreatedAt         time.Time      `json:"created_at"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	StoppedAt         *time.Time     `json:"stopped_at,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Order is a single grid order as reported by the backend.
type Order struct {
	ID              int64     `json:"id"`
	StrategyID      int64     `json:"strategy_id"`
	Symbol          string    `json:"symbol"`
	Side            string    `json:"side"`
	Price           float64   `json:"price"`
	Qty             float64   `json:"qty"`
	OrderType       string    `json:"order_type"`
	Status          string    `json:"status"`
	GridLevel       *int      `json:"grid_level,omitempty"`
	ExchangeOrderID string    `json:"exchange_order_id,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Signal is a full signal record pushed on the signals stream. Records are
// matched by ID; a signal_updated frame replaces the whole record.
type Signal struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	Qty       float64   `json:"qty"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StartupProgress tracks grid placement while a start command is in flight.
// At most one exists per strategy id; it is created when the start command is
// issued and destroyed when the matching strategy_started event arrives or
// the command fails.
type StartupProgress struct {
	StrategyID int64
	Current    int
	Total      int
}
