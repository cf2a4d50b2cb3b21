package domain

import "errors"

// ErrCommandNotFound is returned when a command name is not present in the registry.
var ErrCommandNotFound = errors.New("command not found")

// ErrUnknownPhase is returned when a system is added to a phase the schedule does not run.
var ErrUnknownPhase = errors.New("unknown phase")

// ErrSourceClosed is returned when a line is pushed to a source that was already closed.
var ErrSourceClosed = errors.New("line source closed")

// ErrSourceFull is returned when a line source cannot accept a line without blocking.
var ErrSourceFull = errors.New("line source buffer full")
