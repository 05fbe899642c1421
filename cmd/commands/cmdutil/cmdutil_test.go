package cmdutil

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

type stubManager struct {
	backend.Manager
	closed bool
}

func (s *stubManager) Close() error {
	s.closed = true
	return nil
}

func TestParseIDList(t *testing.T) {
	got, err := ParseIDList("3, 1,,2")
	if err != nil {
		t.Fatalf("ParseIDList: %v", err)
	}
	if diff := cmp.Diff([]int64{3, 1, 2}, got); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"1,x", "0", "-4"} {
		if _, err := ParseIDList(bad); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("ParseIDList(%q) err = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestParseIntList(t *testing.T) {
	got, err := ParseIntList("10, 20")
	if err != nil {
		t.Fatalf("ParseIntList: %v", err)
	}
	if diff := cmp.Diff([]int{10, 20}, got); diff != "" {
		t.Errorf("pids (-want +got):\n%s", diff)
	}

	empty, err := ParseIntList("")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty list = %v, %v; want non-nil empty", empty, err)
	}
}

func TestFormatDelta(t *testing.T) {
	pos, neg, zero := 2.5, -1.25, 0.0
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "-"},
		{&pos, "+2.50"},
		{&neg, "-1.25"},
		{&zero, "0.00"},
	}
	for _, tt := range tests {
		if got := FormatDelta(tt.in, 2); got != tt.want {
			t.Errorf("FormatDelta = %q, want %q", got, tt.want)
		}
	}
}

func TestOpen_FlagOverridesConfiguredBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	if err := (&config.Config{Backend: "sqlite"}).SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	stub := &stubManager{}
	backend.Reset()
	t.Cleanup(backend.Reset)
	backend.Register("http", func(*config.Config, *zap.Logger) (backend.Manager, error) {
		return stub, nil
	})

	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	AddBackendFlags(cmd)
	cmd.SetArgs([]string{"--backend", "http"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	env, err := Open(cmd)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if env.BackendName != "http" || env.Backend != stub {
		t.Errorf("backend = %q %v", env.BackendName, env.Backend)
	}
	env.Close()
	if !stub.closed {
		t.Error("Close should close the backend")
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	config.SetPath(filepath.Join(t.TempDir(), "config.json"))
	t.Cleanup(config.ResetPath)
	backend.Reset()
	t.Cleanup(backend.Reset)

	cmd := &cobra.Command{Use: "test"}
	AddBackendFlags(cmd)
	if _, err := Open(cmd); err == nil {
		t.Fatal("expected error for unregistered backend")
	}
}
