package tui

import (
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/perfsight/internal/config"

	tea "github.com/charmbracelet/bubbletea"
)

func setupConfigPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	return path
}

func focusKey(t *testing.T, cfg *config.Config, name string) configModel {
	t.Helper()
	m := newConfigModel(cfg)
	for i, k := range m.keys {
		if k.Name == name {
			m.cursor = i
			return m
		}
	}
	t.Fatalf("unknown key %q", name)
	return m
}

func pressKey(m configModel, msg tea.KeyMsg) (configModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(configModel), cmd
}

func typeInto(m configModel, text string) configModel {
	for _, r := range text {
		m, _ = pressKey(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// settle runs a save command and feeds its result back into the model.
func settle(t *testing.T, m configModel, cmd tea.Cmd) configModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected save command")
	}
	next, _ := m.Update(cmd())
	return next.(configModel)
}

func TestConfigView_EditFreeFormKey(t *testing.T) {
	path := setupConfigPath(t)

	m, _ := pressKey(focusKey(t, &config.Config{}, "server-url"), tea.KeyMsg{Type: tea.KeyEnter})
	if !m.editing {
		t.Fatal("enter should open the editor")
	}
	m = typeInto(m, "http://perf.local:9000")
	m, cmd := pressKey(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	if m.isError || m.status != "Saved server-url = http://perf.local:9000" {
		t.Fatalf("status = %q", m.status)
	}
	loaded, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.ServerURL != "http://perf.local:9000" {
		t.Errorf("ServerURL = %q", loaded.ServerURL)
	}
}

func TestConfigView_CyclesChoices(t *testing.T) {
	path := setupConfigPath(t)

	// Unset log level starts from the default "info".
	m, cmd := pressKey(focusKey(t, &config.Config{}, "log-level"), tea.KeyMsg{Type: tea.KeyRight})
	m = settle(t, m, cmd)
	if m.cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", m.cfg.LogLevel)
	}

	m, cmd = pressKey(m, tea.KeyMsg{Type: tea.KeyLeft})
	m, cmd = pressKey(settle(t, m, cmd), tea.KeyMsg{Type: tea.KeyLeft})
	m = settle(t, m, cmd)
	if m.cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", m.cfg.LogLevel)
	}
	if m.editing {
		t.Error("enumerated keys must not open the editor")
	}

	loaded, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("saved LogLevel = %q", loaded.LogLevel)
	}
}

func TestConfigView_ResetClearsValue(t *testing.T) {
	setupConfigPath(t)

	m, cmd := pressKey(focusKey(t, &config.Config{Backend: "http"}, "backend"),
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = settle(t, m, cmd)

	if m.cfg.Backend != "" || m.status != "Cleared backend" {
		t.Errorf("backend = %q status = %q", m.cfg.Backend, m.status)
	}
}

func TestConfigView_RejectsInvalidValue(t *testing.T) {
	setupConfigPath(t)

	m, _ := pressKey(focusKey(t, &config.Config{}, "http-retries"), tea.KeyMsg{Type: tea.KeyEnter})
	m = typeInto(m, "50")
	m, cmd := pressKey(m, tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		t.Error("invalid value must not be saved")
	}
	if !m.isError || !strings.Contains(m.status, "Error:") {
		t.Errorf("status = %q", m.status)
	}
	if m.cfg.HTTPRetries != 0 {
		t.Errorf("HTTPRetries = %d, want unchanged", m.cfg.HTTPRetries)
	}
}

func TestConfigView_ViewShowsDefaults(t *testing.T) {
	m := newConfigModel(&config.Config{Backend: "http"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	view := next.(configModel).View()

	for _, want := range []string{"KEY", "DEFAULT", "backend", "http", config.DefaultServerURL, "sqlite|http"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
