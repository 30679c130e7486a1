// Package domain defines the core types shared across the gridmon console:
// the reconciled bot status, strategy and order records, the push-event
// union, and the sentinel errors used throughout the synchronization layer.
package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Trend classifies the direction of the live price over the sampling window.
type Trend int

const (
	TrendUnknown Trend = iota
	TrendUp
	TrendDown
	TrendFlat
)

// String returns a human-readable trend label.
func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	case TrendFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// PriceSample is a single accepted price observation.
type PriceSample struct {
	Price      float64
	ObservedAt time.Time
}

// BotStatus is the reconciled view of the backend bot. There is exactly one
// BotStatus per process; it is owned by the state loop and every read returns
// a copy. CurrentPrice is only meaningful when HasPrice is true, and once
// HasPrice turns true it never turns false again.
type BotStatus struct {
	Running      bool
	LoggedIn     bool
	CurrentPrice float64
	HasPrice     bool
	Trend        Trend
	LastEvent    *Event
}

// StatusSnapshot is one full-state poll result as reported by the backend.
// Price carries the raw wire value, which may be a number, a numeric string
// with thousands separators, or absent.
type StatusSnapshot struct {
	Running  bool
	LoggedIn bool
	Price    string
	HasPrice bool
}

// ParsePrice normalizes a wire price into a float64. It strips thousands
// separators and surrounding whitespace and rejects anything that does not
// parse to a finite number.
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
