package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/services/comparison"
	"nathanbeddoewebdev/perfsight/internal/tui/components"
	"nathanbeddoewebdev/perfsight/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// comparisonSession is the part of *comparison.Session the view drives.
type comparisonSession interface {
	Title() string
	Reports() []*domain.Report
	Selections() analytics.Selections
	Baseline() *int64
	Toggle(reportID int64, kind analytics.Kind, pid int) error
	SetBaseline(id *int64) error
	Reload(ctx context.Context) error
	Alignment() (analytics.Alignment, error)
	Drivers() ([]analytics.DriverReport, error)
	Close(ctx context.Context) error
}

// sessionOpener opens the session and registers the autosave error callback.
type sessionOpener func(ctx context.Context, onSaveError func(error)) (comparisonSession, error)

// --- Compare view messages ---

type sessionOpenedMsg struct {
	session comparisonSession
}

type sessionErrorMsg struct {
	err error
}

type sessionReloadedMsg struct {
	err error
}

type sessionClosedMsg struct {
	err error
}

type autosaveFailedMsg struct {
	err error
}

// --- Compare view model ---

type processRow struct {
	reportID int64
	report   string
	score    int // -1 without an analysis
	pid      int
	label    string
}

type compareViewModel struct {
	ctx         context.Context
	id          int64
	backendName string
	open        sessionOpener
	saveErrs    chan error

	session comparisonSession
	rows    []processRow
	kind    analytics.Kind
	cursor  int

	width  int
	height int

	loading  bool
	spinner  spinner.Model
	status   string
	isError  bool
	quitting bool

	openErr  error
	closeErr error
}

// RunCompareView starts the interactive comparison editor. Selection and
// baseline changes are autosaved; quitting flushes any pending save.
func RunCompareView(ctx context.Context, svc *comparison.Service, id int64, backendName string) error {
	open := func(ctx context.Context, onSaveError func(error)) (comparisonSession, error) {
		return svc.Open(ctx, id, comparison.OnSaveError(onSaveError))
	}
	m := newCompareViewModel(ctx, id, backendName, open)

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to run comparison view: %w", err)
	}

	final := result.(compareViewModel)
	if final.openErr != nil {
		return final.openErr
	}
	return final.closeErr
}

func newCompareViewModel(ctx context.Context, id int64, backendName string, open sessionOpener) compareViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	return compareViewModel{
		ctx:         ctx,
		id:          id,
		backendName: backendName,
		open:        open,
		saveErrs:    make(chan error, 1),
		kind:        analytics.KindCPU,
		loading:     true,
		spinner:     s,
	}
}

func (m compareViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.openSession(),
		waitForSaveError(m.saveErrs),
	)
}

func (m compareViewModel) openSession() tea.Cmd {
	return func() tea.Msg {
		session, err := m.open(m.ctx, func(err error) {
			select {
			case m.saveErrs <- err:
			default:
			}
		})
		if err != nil {
			return sessionErrorMsg{err: err}
		}
		return sessionOpenedMsg{session: session}
	}
}

func waitForSaveError(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		return autosaveFailedMsg{err: <-ch}
	}
}

func (m compareViewModel) reload() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return sessionReloadedMsg{err: session.Reload(m.ctx)}
	}
}

func (m compareViewModel) closeSession() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return sessionClosedMsg{err: session.Close(m.ctx)}
	}
}

// --- Update ---

func (m compareViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionOpenedMsg:
		m.loading = false
		m.session = msg.session
		m.rows = buildProcessRows(m.session.Reports())
		m.status = fmt.Sprintf("%d report(s), %d process(es)", len(m.session.Reports()), len(m.rows))
		m.isError = false
		return m, nil

	case sessionErrorMsg:
		m.loading = false
		m.openErr = msg.err
		m.status = "Error: " + msg.err.Error()
		m.isError = true
		return m, nil

	case sessionReloadedMsg:
		m.loading = false
		switch {
		case errors.Is(msg.err, comparison.ErrStale):
			return m, nil
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
			m.isError = true
		default:
			m.rows = buildProcessRows(m.session.Reports())
			m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
			m.status = "Reloaded"
			m.isError = false
		}
		return m, nil

	case autosaveFailedMsg:
		m.status = "Autosave failed: " + msg.err.Error()
		m.isError = true
		return m, waitForSaveError(m.saveErrs)

	case sessionClosedMsg:
		m.closeErr = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		if m.loading || m.quitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m compareViewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if m.session == nil {
			return m, tea.Quit
		}
		m.quitting = true
		m.status = "Saving…"
		m.isError = false
		return m, tea.Batch(m.spinner.Tick, m.closeSession())
	}

	if m.session == nil || m.loading {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "tab":
		if m.kind == analytics.KindCPU {
			m.kind = analytics.KindMemory
		} else {
			m.kind = analytics.KindCPU
		}
	case " ", "space", "x":
		row, ok := m.focused()
		if !ok {
			return m, nil
		}
		if err := m.session.Toggle(row.reportID, m.kind, row.pid); err != nil {
			m.status = "Error: " + err.Error()
			m.isError = true
			return m, nil
		}
		m.status = fmt.Sprintf("Toggled %s PID %d", m.kind, row.pid)
		m.isError = false
	case "b":
		row, ok := m.focused()
		if !ok {
			return m, nil
		}
		next := &row.reportID
		if current := m.session.Baseline(); current != nil && *current == row.reportID {
			next = nil
		}
		if err := m.session.SetBaseline(next); err != nil {
			m.status = "Error: " + err.Error()
			m.isError = true
			return m, nil
		}
		if next == nil {
			m.status = "Baseline cleared"
		} else {
			m.status = "Baseline: " + row.report
		}
		m.isError = false
	case "r":
		m.loading = true
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, m.reload())
	}

	return m, nil
}

func (m compareViewModel) focused() (processRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return processRow{}, false
	}
	return m.rows[m.cursor], true
}

// buildProcessRows lists every discovered PID of every report in report
// order.
func buildProcessRows(reports []*domain.Report) []processRow {
	var rows []processRow
	for _, r := range reports {
		title := reportLabel(r)
		score := -1
		if r.Analysis != nil {
			score = r.Analysis.Score
		}
		for _, pid := range analytics.DiscoverPIDs(r.Metrics) {
			rows = append(rows, processRow{
				reportID: r.ID,
				report:   title,
				score:    score,
				pid:      pid,
				label:    analytics.Describe(r, pid).Label,
			})
		}
	}
	return rows
}

func reportLabel(r *domain.Report) string {
	if r.Title != "" {
		return r.Title
	}
	return "Report " + strconv.FormatInt(r.ID, 10)
}

// --- View ---

func (m compareViewModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	breadcrumb := fmt.Sprintf("compare %d", m.id)
	if m.session != nil && m.session.Title() != "" {
		breadcrumb += " > " + m.session.Title()
	}

	chrome := components.Chrome{
		Breadcrumb: breadcrumb,
		Backend:    m.backendName,
		Status:     m.status,
		IsError:    m.isError,
		Keys: []components.KeyBinding{
			{Key: "j/k", Desc: "navigate"},
			{Key: "space", Desc: "toggle"},
			{Key: "tab", Desc: "cpu/memory"},
			{Key: "b", Desc: "baseline"},
			{Key: "r", Desc: "reload"},
			{Key: "q", Desc: "save & quit"},
		},
	}
	return chrome.Render(m.width, m.height, m.renderContent)
}

func (m compareViewModel) renderContent(height int) string {
	if m.session == nil {
		text := styles.ErrorText.Render("Failed to open comparison")
		if m.loading {
			text = styles.MutedText.Render(m.spinner.View() + "  Loading comparison…")
		}
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, text)
	}

	chart := m.renderChart()
	drivers := m.renderDrivers()
	tableH := max(height-lipgloss.Height(chart)-lipgloss.Height(drivers)-2, 3)
	table := m.renderTable(tableH)

	return lipgloss.JoinVertical(lipgloss.Left, table, "", chart, "", drivers)
}

func (m compareViewModel) renderTable(height int) string {
	available := m.width - 4

	reportW := 24
	pidW := 9
	selW := 6
	scoreW := 7
	roleW := 10
	labelW := max(available-reportW-pidW-selW-scoreW-roleW, 12)

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.TableHeader.Width(selW).Render(strings.ToUpper(string(m.kind))),
		styles.TableHeader.Width(pidW).Render("PID"),
		styles.TableHeader.Width(labelW).Render("PROCESS"),
		styles.TableHeader.Width(reportW).Render("REPORT"),
		styles.TableHeader.Width(scoreW).Render("SCORE"),
		styles.TableHeader.Width(roleW).Render(""),
	)
	sep := styles.MutedText.Render(strings.Repeat("─", available))

	visibleRows := max(height-2, 1)
	startIdx := 0
	if m.cursor >= visibleRows {
		startIdx = m.cursor - visibleRows + 1
	}
	endIdx := min(startIdx+visibleRows, len(m.rows))

	sel := m.session.Selections()
	baseline := m.session.Baseline()

	rows := make([]string, 0, visibleRows)
	for i := startIdx; i < endIdx; i++ {
		r := m.rows[i]
		set, _ := sel.Get(r.reportID, m.kind)

		cellStyle := styles.TableCell
		if i == m.cursor {
			cellStyle = styles.TableSelectedRow
		}

		role := ""
		if baseline != nil && *baseline == r.reportID {
			role = "baseline"
		}
		score := "-"
		if r.score >= 0 {
			score = styles.ScoreStyle(r.score).Render(strconv.Itoa(r.score))
		}

		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			cellStyle.Width(selW).Render(styles.SelectionIndicator(set.Has(r.pid))),
			cellStyle.Width(pidW).Render(strconv.Itoa(r.pid)),
			cellStyle.Width(labelW).Render(ansi.Truncate(r.label, labelW-2, "…")),
			cellStyle.Width(reportW).Render(ansi.Truncate(r.report, reportW-2, "…")),
			cellStyle.Width(scoreW).Render(score),
			cellStyle.Width(roleW).Render(role),
		))
	}
	for len(rows) < visibleRows {
		rows = append(rows, "")
	}

	table := lipgloss.JoinVertical(lipgloss.Left, append([]string{headerRow, sep}, rows...)...)
	return lipgloss.NewStyle().Padding(0, 2).Render(table)
}

func (m compareViewModel) renderChart() string {
	label, suffix := "CPU usage (%)", "%"
	if m.kind == analytics.KindMemory {
		label, suffix = "Memory (MiB)", " MiB"
	}

	alignment, err := m.session.Alignment()
	if err != nil {
		return lipgloss.NewStyle().Padding(0, 2).Render(styles.ErrorText.Render(label + ": " + err.Error()))
	}

	series := make([]components.ChartSeries, 0, len(alignment.ReportIDs))
	for _, r := range m.session.Reports() {
		series = append(series, components.ChartSeries{
			Legend: ansi.Truncate(reportLabel(r), 24, "…"),
			Values: alignment.Series(r.ID, m.kind),
		})
	}
	chart := components.ComparisonChart(label, series, m.width-4, suffix)
	return lipgloss.NewStyle().Padding(0, 2).Render(chart)
}

// renderDrivers lists the top changed processes of every report for the
// current kind.
func (m compareViewModel) renderDrivers() string {
	reports, err := m.session.Drivers()
	if err != nil || len(reports) == 0 {
		return ""
	}

	unit := "%"
	if m.kind == analytics.KindMemory {
		unit = " MiB"
	}

	lines := []string{styles.Label.Render("Top drivers")}
	for _, dr := range reports {
		dr = dr.TopK(analytics.CollapsedTopK)
		drivers := dr.CPU
		if m.kind == analytics.KindMemory {
			drivers = dr.MemoryMiB
		}

		parts := []string{styles.Value.Render(ansi.Truncate(dr.Title, 24, "…")) + ":"}
		if len(drivers) == 0 {
			parts = append(parts, styles.MutedText.Render("no change"))
		}
		for _, d := range drivers {
			delta := strconv.FormatFloat(d.Delta, 'f', 1, 64) + unit
			if d.Delta > 0 {
				delta = "+" + delta
			}
			parts = append(parts, d.Label+" "+styles.DeltaStyle(d.Delta).Render(delta))
		}
		lines = append(lines, "  "+strings.Join(parts, "  "))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
