package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// ErrAborted is returned when a user cancels an interactive flow.
var ErrAborted = errors.New("aborted by user")

// WithSpinner runs action behind a spinner on stderr.
func WithSpinner(title string, action func(ctx context.Context) error) error {
	err := spinner.New().
		Title(title).
		Accessible(os.Getenv("ACCESSIBLE") != "").
		Output(os.Stderr).
		ActionWithErr(action).
		Run()
	if err != nil && (errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled)) {
		return ErrAborted
	}
	return err
}

// SelectProcessesForm lets the user pick the PIDs of r included in the kind
// selection. current is the preselected set.
func SelectProcessesForm(r *domain.Report, kind analytics.Kind, current analytics.PIDSet) ([]int, error) {
	options := buildProcessOptions(r, current)
	if len(options) == 0 {
		return nil, fmt.Errorf("report %d has no processes", r.ID)
	}

	selected := current.Sorted()
	field := huh.NewMultiSelect[int]().
		Title(fmt.Sprintf("%s processes of %q", kind, reportLabel(r))).
		Description("Unselected processes are excluded from the aligned series and drivers.").
		Options(options...).
		Value(&selected).
		Height(min(len(options)+2, 16))

	if err := runForm(os.Getenv("ACCESSIBLE") != "", huh.NewGroup(field)); err != nil {
		return nil, err
	}
	if selected == nil {
		selected = []int{}
	}
	return selected, nil
}

// runForm creates and runs a huh.Form, translating ErrUserAborted to ErrAborted.
func runForm(accessible bool, groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

func buildProcessOptions(r *domain.Report, current analytics.PIDSet) []huh.Option[int] {
	pids := analytics.DiscoverPIDs(r.Metrics)
	options := make([]huh.Option[int], 0, len(pids))
	for _, pid := range pids {
		d := analytics.Describe(r, pid)
		label := d.Label + " (" + strconv.Itoa(pid) + ")"
		if d.ProcType != "" {
			label += " " + d.ProcType
		}
		options = append(options, huh.NewOption(label, pid).Selected(current.Has(pid)))
	}
	return options
}
