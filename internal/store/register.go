package store

import (
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/config"
)

// BackendName is the registry name of the local SQLite backend.
const BackendName = "sqlite"

var _ backend.Manager = (*SQLiteStore)(nil)

// Register registers the SQLite backend with the backend registry. The
// database path comes from the database-path setting when present.
func Register() {
	backend.Register(BackendName, func(cfg *config.Config, log *zap.Logger) (backend.Manager, error) {
		opts := []Option{WithLogger(log.Named("store"))}
		if cfg.DatabasePath != "" {
			return OpenAt(cfg.DatabasePath, opts...)
		}
		return Open(opts...)
	})
}
