package tags

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/store"

	"github.com/google/go-cmp/cmp"
)

func setupBackend(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "perfsight.db")
	cfgPath := filepath.Join(dir, "config.json")
	config.SetPath(cfgPath)
	t.Cleanup(config.ResetPath)
	if err := (&config.Config{DatabasePath: dbPath}).SaveTo(cfgPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	backend.Reset()
	t.Cleanup(backend.Reset)
	store.Register()
	return dbPath
}

func execTags(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestTags(t *testing.T) {
	db := setupBackend(t)
	s, err := store.OpenAt(db)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	for _, tags := range [][]string{{"main", "linux"}, {"main"}, {"feature"}} {
		if _, err := s.SaveReport(context.Background(), &domain.Report{Title: "r", Tags: tags}); err != nil {
			t.Fatalf("SaveReport: %v", err)
		}
	}
	s.Close()

	stdout, stderr := execTags(t, "-o", "json")
	if stderr != "" {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	var got []domain.TagStat
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	want := []domain.TagStat{{Tag: "main", Count: 2}, {Tag: "feature", Count: 1}, {Tag: "linux", Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}

	stdout, _ = execTags(t)
	for _, want := range []string{"TAG", "REPORTS", "main", "feature"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestTags_Empty(t *testing.T) {
	setupBackend(t)

	stdout, _ := execTags(t)
	if !strings.Contains(stdout, "No tags found.") {
		t.Errorf("expected empty message, got: %s", stdout)
	}
}
