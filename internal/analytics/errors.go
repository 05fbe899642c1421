package analytics

import "errors"

var (
	// ErrTooFewReports is returned when a comparison has fewer than two reports.
	ErrTooFewReports = errors.New("at least two reports are required")

	// ErrInsufficientMembers is returned when a tag group matches fewer than
	// two reports.
	ErrInsufficientMembers = errors.New("group must match at least two reports")

	// ErrUnknownBaseline is returned when the baseline group key names no group.
	ErrUnknownBaseline = errors.New("unknown baseline group")

	// ErrUnknownReport is returned when a report id is not part of the input.
	ErrUnknownReport = errors.New("unknown report")
)
