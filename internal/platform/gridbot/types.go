package gridbot

import (
	"strings"

	"github.com/quantflow/gridmon/internal/domain"
)

// wireString accepts a JSON number, string, or null and stores the raw text.
// The backend reports the live price as whichever the scraper produced.
type wireString string

func (w *wireString) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*w = wireString(s)
	return nil
}

// statusResponse is the GET /bot/status body.
type statusResponse struct {
	Running      bool       `json:"running"`
	LoggedIn     bool       `json:"logged_in"`
	CurrentPrice wireString `json:"current_price"`
}

// strategiesResponse is the GET /strategies body.
type strategiesResponse struct {
	Items []domain.Strategy `json:"items"`
}

// ordersResponse is the GET /orders body.
type ordersResponse struct {
	Items []domain.Order `json:"items"`
}

// commandResponse is the body returned by lifecycle commands.
type commandResponse struct {
	Message    string `json:"message"`
	Status     string `json:"status"`
	StrategyID int64  `json:"strategy_id"`
}

// errorResponse is the backend's error body shape.
type errorResponse struct {
	Detail string `json:"detail"`
}

// NewStrategy is the create-strategy request payload.
type NewStrategy struct {
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	UpperPrice        float64  `json:"upper_price"`
	LowerPrice        float64  `json:"lower_price"`
	GridCount         int      `json:"grid_count"`
	InvestmentPerGrid float64  `json:"investment_per_grid"`
	StopLoss          *float64 `json:"stop_loss,omitempty"`
	TakeProfit        *float64 `json:"take_profit,omitempty"`
	MaxOrders         int      `json:"max_orders,omitempty"`
}

// StrategyUpdate is the update-strategy request payload; nil fields are left
// unchanged by the backend.
type StrategyUpdate struct {
	Name              *string  `json:"name,omitempty"`
	UpperPrice        *float64 `json:"upper_price,omitempty"`
	LowerPrice        *float64 `json:"lower_price,omitempty"`
	GridCount         *int     `json:"grid_count,omitempty"`
	InvestmentPerGrid *float64 `json:"investment_per_grid,omitempty"`
	StopLoss          *float64 `json:"stop_loss,omitempty"`
	TakeProfit        *float64 `json:"take_profit,omitempty"`
	MaxOrders         *int     `json:"max_orders,omitempty"`
}

// OrderFilter narrows ListOrders results. Zero values mean "no filter".
type OrderFilter struct {
	Status     string
	Symbol     string
	StrategyID int64
}
