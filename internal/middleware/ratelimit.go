package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const limiterPrefix = "visit-service:limiter"

var limiterOptions = limiter.StoreOptions{
	Prefix:          limiterPrefix,
	MaxRetry:        limiter.DefaultMaxRetry,
	CleanUpInterval: limiter.DefaultCleanUpInterval,
}

// NewLimiterStore keeps rate counters in redis when a client is given, otherwise in memory
func NewLimiterStore(client *redis.Client) (limiter.Store, error) {
	if client == nil {
		return memory.NewStoreWithOptions(limiterOptions), nil
	}

	store, err := sredis.NewStoreWithOptions(client, limiterOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}
	return store, nil
}

// RateLimit limits requests per client IP. formatted uses the limiter notation, e.g. "10-M".
func RateLimit(store limiter.Store, formatted string, rs *api.Responder) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", formatted, err)
	}

	mw := stdlib.NewMiddleware(
		limiter.New(store, rate),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			rs.JSON(w, http.StatusTooManyRequests, api.Envelope{Success: false, Message: "Too many requests, try again later"})
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			rs.Error(w, r, api.Internal("Rate limiter unavailable", err))
		}),
	)
	return mw.Handler, nil
}
