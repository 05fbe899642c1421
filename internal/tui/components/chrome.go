// Package components holds render-only building blocks shared by the
// perfsight terminal views.
package components

import (
	"strings"

	"nathanbeddoewebdev/perfsight/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// KeyBinding is one hint in the key bar.
type KeyBinding struct {
	Key  string
	Desc string
}

// Chrome is the frame around a full-screen view: a title bar naming the
// current screen and backend, an optional status line and the key bar.
type Chrome struct {
	Breadcrumb string
	Backend    string
	Status     string
	IsError    bool
	Keys       []KeyBinding
}

// Render lays out the frame at the given size. body receives the height
// left between the bars and must not render taller than that.
func (c Chrome) Render(width, height int, body func(height int) string) string {
	if width < 10 || height < 3 {
		return ""
	}

	top := c.titleBar(width)
	bottom := c.keyBar(width)
	sections := []string{top}

	used := lipgloss.Height(top) + lipgloss.Height(bottom)
	status := c.statusLine(width)
	if status != "" {
		used += lipgloss.Height(status)
	}

	sections = append(sections, body(max(height-used, 1)))
	if status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, bottom)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

//	perfsight > compare 3 checkout                 sqlite
func (c Chrome) titleBar(width int) string {
	left := styles.Title.Foreground(styles.Blue).Render("perfsight")
	for part := range strings.SplitSeq(c.Breadcrumb, " > ") {
		if part != "" {
			left += styles.MutedText.Render(" > ") + styles.Title.Render(part)
		}
	}
	right := styles.Subtitle.Render(c.Backend)

	gap := max(width-4-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderBottom(true).
		BorderForeground(styles.DimGray).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (c Chrome) statusLine(width int) string {
	if c.Status == "" {
		return ""
	}
	style := styles.MutedText
	if c.IsError {
		style = styles.ErrorText
	}
	return lipgloss.NewStyle().Width(width).Padding(0, 2).Render(style.Render(c.Status))
}

func (c Chrome) keyBar(width int) string {
	parts := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		parts[i] = styles.FormatKeyBinding(k.Key, k.Desc)
	}
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderTop(true).
		BorderForeground(styles.DimGray).
		Render(strings.Join(parts, styles.KeySepStyle.Render("  ")))
}
