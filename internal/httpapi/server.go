package httpapi

import (
	"net/http"
	"time"

	"lollipop-server/internal/config"
)

// NewServer wraps handler with rate limiting and request logging.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	limiter := newClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(rateLimit(limiter, handler)),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
