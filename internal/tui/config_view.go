package tui

import (
	"fmt"
	"slices"
	"strings"

	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/tui/components"
	"nathanbeddoewebdev/perfsight/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type configSavedMsg struct {
	key   string
	value string
}

type configSaveErrorMsg struct {
	err error
}

// configModel lists every config key with its stored and effective value.
// Enumerated keys cycle through their choices; free-form keys open an
// inline editor. Every accepted change is validated and written at once.
type configModel struct {
	cfg  *config.Config
	keys []config.KeySpec

	cursor  int
	editing bool
	input   textinput.Model

	width  int
	height int

	status  string
	isError bool
}

// RunConfigView starts the interactive config editor.
func RunConfigView() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, err = tea.NewProgram(newConfigModel(cfg), tea.WithAltScreen()).Run()
	return err
}

func newConfigModel(cfg *config.Config) configModel {
	return configModel{cfg: cfg, keys: config.Keys}
}

func (m configModel) Init() tea.Cmd { return nil }

func (m configModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditor(msg)
		}
		return m.updateList(msg)

	case configSavedMsg:
		m.editing = false
		m.isError = false
		if msg.value == "" {
			m.status = fmt.Sprintf("Cleared %s", msg.key)
		} else {
			m.status = fmt.Sprintf("Saved %s = %s", msg.key, msg.value)
		}
		return m, nil

	case configSaveErrorMsg:
		m.status = "Error: " + msg.err.Error()
		m.isError = true
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m configModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	spec := m.keys[m.cursor]

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, len(m.keys)-1)
	case "right", "l", " ":
		if len(spec.Choices) > 0 {
			return m.apply(spec, m.cycle(spec, 1))
		}
	case "left", "h":
		if len(spec.Choices) > 0 {
			return m.apply(spec, m.cycle(spec, -1))
		}
	case "x", "delete", "backspace":
		if spec.Get(m.cfg) != "" {
			return m.apply(spec, "")
		}
	case "enter", "e":
		if len(spec.Choices) > 0 {
			return m.apply(spec, m.cycle(spec, 1))
		}
		ti := textinput.New()
		ti.Placeholder = spec.Default
		ti.SetValue(spec.Get(m.cfg))
		ti.Width = max(m.width-30, 20)
		ti.Focus()
		m.input = ti
		m.editing = true
		m.status = ""
		return m, textinput.Blink
	}
	return m, nil
}

func (m configModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		return m, nil
	case "enter":
		return m.apply(m.keys[m.cursor], strings.TrimSpace(m.input.Value()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// cycle returns the choice step positions away from the effective value.
func (m configModel) cycle(spec config.KeySpec, step int) string {
	current := spec.Get(m.cfg)
	if current == "" {
		current = spec.Default
	}
	i := slices.Index(spec.Choices, current)
	if i < 0 {
		return spec.Choices[0]
	}
	n := len(spec.Choices)
	return spec.Choices[((i+step)%n+n)%n]
}

// apply validates value on a copy of the config and only then stores and
// saves it, so a rejected value leaves the config untouched.
func (m configModel) apply(spec config.KeySpec, value string) (tea.Model, tea.Cmd) {
	next := *m.cfg
	err := spec.Set(&next, value)
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		m.status = "Error: " + err.Error()
		m.isError = true
		return m, nil
	}

	*m.cfg = next
	cfg := m.cfg
	return m, func() tea.Msg {
		if err := cfg.Save(); err != nil {
			return configSaveErrorMsg{err: err}
		}
		return configSavedMsg{key: spec.Name, value: value}
	}
}

func (m configModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	keys := []components.KeyBinding{
		{Key: "enter", Desc: "save"},
		{Key: "esc", Desc: "cancel"},
	}
	if !m.editing {
		keys = []components.KeyBinding{
			{Key: "j/k", Desc: "move"},
			{Key: "e", Desc: "edit"},
			{Key: "h/l", Desc: "cycle"},
			{Key: "x", Desc: "reset"},
			{Key: "q", Desc: "quit"},
		}
	}

	chrome := components.Chrome{
		Breadcrumb: "config",
		Status:     m.status,
		IsError:    m.isError,
		Keys:       keys,
	}
	return chrome.Render(m.width, m.height, m.renderKeys)
}

func (m configModel) renderKeys(height int) string {
	nameWidth := 0
	for _, k := range m.keys {
		nameWidth = max(nameWidth, len(k.Name))
	}
	nameWidth += 3
	valueWidth := max(m.width-nameWidth-24, 16)

	var b strings.Builder
	b.WriteString(styles.TableHeader.Render(
		fmt.Sprintf("  %-*s%-*s%s", nameWidth, "KEY", valueWidth, "VALUE", "DEFAULT")))
	b.WriteString("\n")

	for i, spec := range m.keys {
		selected := i == m.cursor

		value := spec.Get(m.cfg)
		valueCell := value
		if value == "" {
			valueCell = "-"
		}
		if len(spec.Choices) > 0 && selected && !m.editing {
			valueCell = "< " + valueCell + " >"
		}

		prefix := "  "
		if selected {
			prefix = styles.AccentText.Render("> ")
		}

		var row string
		switch {
		case selected && m.editing:
			row = fmt.Sprintf("%-*s", nameWidth, spec.Name) + m.input.View()
		case selected:
			row = styles.TableSelectedRow.Render(fmt.Sprintf("%-*s%-*s", nameWidth, spec.Name, valueWidth, valueCell)) +
				styles.MutedText.Render(spec.Default)
		case value == "":
			row = styles.MutedText.Render(fmt.Sprintf("%-*s%-*s%s", nameWidth, spec.Name, valueWidth, valueCell, spec.Default))
		default:
			row = styles.TableCell.Render(fmt.Sprintf("%-*s%-*s", nameWidth, spec.Name, valueWidth, valueCell)) +
				styles.MutedText.Render(spec.Default)
		}
		b.WriteString(prefix + row + "\n")
	}

	desc := m.keys[m.cursor].Description
	if choices := m.keys[m.cursor].Choices; len(choices) > 0 {
		desc += " [" + strings.Join(choices, "|") + "]"
	}
	b.WriteString("\n  " + styles.MutedText.Italic(true).Render(desc))

	return lipgloss.NewStyle().Height(height).MaxHeight(height).Render(b.String())
}
