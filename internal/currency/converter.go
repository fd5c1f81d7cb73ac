// Package currency implements the exchange-rate collaborator. The engine
// never computes rates itself; it hands amounts to a Converter and treats
// any failure here as fatal to the operation in flight.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bedehampo/banking-transaction-api/internal/money"
)

var ErrExchangeUnavailable = errors.New("exchange rate service unavailable")

const rateScale = 6

// Converter fetches spot rates from an exchange-rate HTTP API and caches
// them in Redis so repeated operations within the TTL reuse one quote.
type Converter struct {
	baseURL  string
	client   *http.Client
	cache    redis.Cmdable
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewConverter(baseURL string, cache redis.Cmdable, cacheTTL time.Duration, logger *zap.Logger) *Converter {
	return &Converter{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

type ratesResponse struct {
	Result string                     `json:"result"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

// Convert exchanges amount from one currency to another at the current
// rate and re-quantizes the result to a storable Money.
func (c *Converter) Convert(ctx context.Context, amount money.Money, from, to string) (money.Money, error) {
	if from == to {
		return amount, nil
	}
	rate, err := c.rate(ctx, from, to)
	if err != nil {
		return money.Zero, err
	}
	converted := money.FromDecimal(amount.Decimal().Mul(rate))
	c.logger.Info("converted amount",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", amount.String()),
		zap.String("rate", rate.String()),
		zap.String("converted", converted.String()))
	return converted, nil
}

// Rate returns the spot rate for one unit of from in units of to.
func (c *Converter) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	return c.rate(ctx, from, to)
}

func (c *Converter) rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	key := fmt.Sprintf("fxrate:%s:%s", from, to)
	if cached, err := c.cache.Get(ctx, key).Result(); err == nil {
		if rate, parseErr := decimal.NewFromString(cached); parseErr == nil {
			return rate, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("rate cache read failed", zap.Error(err))
	}

	rate, err := c.fetchRate(ctx, from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if err := c.cache.Set(ctx, key, rate.StringFixedBank(rateScale), c.cacheTTL).Err(); err != nil {
		c.logger.Warn("rate cache write failed", zap.Error(err))
	}
	return rate, nil
}

func (c *Converter) fetchRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, from)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrExchangeUnavailable, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrExchangeUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("%w: status %d", ErrExchangeUnavailable, resp.StatusCode)
	}
	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrExchangeUnavailable, err)
	}
	rate, ok := payload.Rates[to]
	if !ok || rate.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate for %s/%s", ErrExchangeUnavailable, from, to)
	}
	return rate.RoundBank(rateScale), nil
}
