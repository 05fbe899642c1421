package client

import (
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/retry"
)

// BackendName is the registry name of the remote backend.
const BackendName = "http"

var _ backend.Manager = (*Client)(nil)

// Register registers the HTTP backend with the backend registry.
func Register() {
	backend.Register(BackendName, func(cfg *config.Config, log *zap.Logger) (backend.Manager, error) {
		opts := []Option{WithLogger(log.Named("client"))}
		if cfg.HTTPRetries > 0 {
			p := retry.DefaultPolicy()
			p.Attempts = cfg.HTTPRetries + 1
			opts = append(opts, WithRetry(p))
		}
		return New(cfg.ServerURLOrDefault(), opts...)
	})
}
