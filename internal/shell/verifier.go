package shell

import (
	"context"
	"io"
	"time"

	"github.com/R3E-Network/miniapp_admin/internal/config"
	"github.com/R3E-Network/miniapp_admin/internal/httputil"
	"github.com/R3E-Network/miniapp_admin/internal/logging"
	"github.com/R3E-Network/miniapp_admin/internal/webapp"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewVerifier builds the session verifier described by cfg: a ForwardingVerifier to the
// trusted backend behind a CachingVerifier. It returns a nil verifier when no backend is
// configured. The returned closer releases the cache connection.
func NewVerifier(cfg config.VerifierConfig, logger *logging.Logger) (webapp.Verifier, io.Closer, error) {
	if !cfg.Enabled() {
		logger.Warn("ADMIN_VERIFIER_URL not set; session verification disabled")
		return nil, nopCloser{}, nil
	}

	client := httputil.NewServiceClient(httputil.ServiceClientConfig{
		BaseURL:    cfg.URL,
		ServiceKey: cfg.ServiceKey,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	})
	forwarding := webapp.NewForwardingVerifier(client, cfg.Path)

	if cfg.RedisURL == "" {
		return webapp.NewCachingVerifier(forwarding, webapp.NewMemoryCache(), cfg.CacheTTL), nopCloser{}, nil
	}

	cache, err := webapp.NewRedisCacheFromURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		// The cache is optional; CachingVerifier falls through on cache errors.
		logger.WithError(err).Warn("redis verification cache unreachable at startup")
	}
	return webapp.NewCachingVerifier(forwarding, cache, cfg.CacheTTL), cache, nil
}
