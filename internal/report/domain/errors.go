package domain

import "errors"

// Sentinel errors shared by every Backend implementation so the CLI and the
// HTTP API can classify failures without knowing which backend produced them.
//
//	return fmt.Errorf("store: report %d: %w", id, domain.ErrNotFound)
var (
	// ErrNotFound indicates the requested report or comparison does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates a request that failed validation before
	// anything was read or written.
	ErrInvalidInput = errors.New("invalid input")
)
