package rates

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"zenithmedia_bot/internal/cryptopay"
	"zenithmedia_bot/internal/logger"

	"github.com/redis/go-redis/v9"
)

var ErrRateUnavailable = errors.New("exchange rate unavailable")

const cacheKey = "rates:usdt_per_rub"

// Provider supplies quotes; satisfied by *cryptopay.Client.
type Provider interface {
	ExchangeRates(ctx context.Context) ([]cryptopay.ExchangeRate, error)
}

// Gateway converts RUB to USDT. It is constructed once at bootstrap and
// injected into the dispatcher; there is no package-level client state.
// Fixed mode (fixed > 0) never touches the provider. Provider mode inverts
// the rail's USDT->RUB quote and keeps it in an optional Redis cache so a
// burst of approvals does not hammer the rail.
type Gateway struct {
	provider Provider
	fixed    float64
	cache    *redis.Client
	ttl      time.Duration
	log      *slog.Logger
}

func New(provider Provider, fixed float64, cache *redis.Client, ttl time.Duration) *Gateway {
	return &Gateway{
		provider: provider,
		fixed:    fixed,
		cache:    cache,
		ttl:      ttl,
		log:      logger.With("component", "rates"),
	}
}

// Rate returns how many USDT one RUB buys.
func (g *Gateway) Rate(ctx context.Context) (float64, error) {
	if g.fixed > 0 {
		return g.fixed, nil
	}

	if g.cache != nil {
		if v, err := g.cache.Get(ctx, cacheKey).Result(); err == nil {
			if rate, err := strconv.ParseFloat(v, 64); err == nil && rate > 0 {
				return rate, nil
			}
		}
	}

	quotes, err := g.provider.ExchangeRates(ctx)
	if err != nil {
		g.log.Error("failed to fetch exchange rates", "error", err)
		return 0, ErrRateUnavailable
	}

	for _, q := range quotes {
		if q.Source == "USDT" && q.Target == "RUB" && q.Rate > 0 {
			usdtPerRub := 1.0 / q.Rate
			if g.cache != nil {
				if err := g.cache.Set(ctx, cacheKey, strconv.FormatFloat(usdtPerRub, 'f', -1, 64), g.ttl).Err(); err != nil {
					g.log.Warn("failed to cache rate", "error", err)
				}
			}
			return usdtPerRub, nil
		}
	}

	g.log.Error("USDT/RUB quote not found")
	return 0, ErrRateUnavailable
}
