package serve

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/config"
)

type stubManager struct {
	backend.Manager
}

func (stubManager) Close() error { return nil }

func TestServe_RejectsRemoteBackend(t *testing.T) {
	config.SetPath(filepath.Join(t.TempDir(), "config.json"))
	t.Cleanup(config.ResetPath)
	backend.Reset()
	t.Cleanup(backend.Reset)
	backend.Register("http", func(*config.Config, *zap.Logger) (backend.Manager, error) {
		return stubManager{}, nil
	})

	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs([]string{"--backend", "http"})

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "needs the sqlite backend") {
		t.Fatalf("Execute err = %v, want sqlite backend error", err)
	}
}
