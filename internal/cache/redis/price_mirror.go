package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantflow/gridmon/internal/domain"
)

// mirrorTTL caps how long a mirrored price outlives its last update, so a
// dead console does not leave a stale price behind for sibling tooling.
const mirrorTTL = time.Minute

// PriceMirror mirrors every price sample the console accepts into a Redis
// hash at "price:{symbol}" with fields "price" and "ts" (Unix nanoseconds),
// so other tools can read the console's reconciled view without talking to
// the backend.
type PriceMirror struct {
	rdb *redis.Client
}

// NewPriceMirror creates a PriceMirror backed by the given Client.
func NewPriceMirror(c *Client) *PriceMirror {
	return &PriceMirror{rdb: c.rdb}
}

func priceKey(symbol string) string {
	return "price:" + symbol
}

// Publish stores the latest accepted price and its observation time.
func (m *PriceMirror) Publish(ctx context.Context, symbol string, price float64, ts time.Time) error {
	key := priceKey(symbol)
	fields := map[string]interface{}{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	}
	pipe := m.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, mirrorTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: mirror price %s: %w", symbol, err)
	}
	return nil
}

// Last reads back the mirrored price for a symbol. It returns
// domain.ErrNotFound when nothing has been mirrored yet.
func (m *PriceMirror) Last(ctx context.Context, symbol string) (float64, time.Time, error) {
	vals, err := m.rdb.HGetAll(ctx, priceKey(symbol)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: read price %s: %w", symbol, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse price %s: %w", symbol, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", symbol, err)
	}

	return price, time.Unix(0, tsNano), nil
}
