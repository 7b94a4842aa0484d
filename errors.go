package ownership

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrInputNotFound            = errors.New("input not found")
	ErrEmptyInput               = errors.New("empty input")
	ErrMalformedHierarchy       = errors.New("malformed hierarchy")
	ErrUnparseableParticipation = errors.New("unparseable participation")
	ErrUnknownFormat            = errors.New("unknown table format")
)

// InputNotFoundError reports a missing input table.
type InputNotFoundError struct {
	Path string
	Err  error
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("input %q not found", e.Path)
}

func (e *InputNotFoundError) Is(target error) bool {
	return target == ErrInputNotFound || target == fs.ErrNotExist
}

func (e *InputNotFoundError) Unwrap() error { return e.Err }

// MalformedHierarchyError reports a row that no transition of the parser
// could place in the hierarchy.
type MalformedHierarchyError struct {
	Row    int
	Name   string
	Reason string
}

func (e *MalformedHierarchyError) Error() string {
	return fmt.Sprintf("row %d %q: %s", e.Row, e.Name, e.Reason)
}

func (e *MalformedHierarchyError) Is(target error) bool { return target == ErrMalformedHierarchy }

// UnparseableParticipationError reports a participation cell that is not a
// number once percent signs and decimal commas are removed.
type UnparseableParticipationError struct {
	Row  int
	Cell string
}

func (e *UnparseableParticipationError) Error() string {
	return fmt.Sprintf("row %d: participation %q is not a number", e.Row, e.Cell)
}

func (e *UnparseableParticipationError) Is(target error) bool {
	return target == ErrUnparseableParticipation
}

// WarningKind classifies consistency warnings.
type WarningKind string

const (
	// WarnTotal is raised when beneficiaries of a root do not sum to 100%.
	WarnTotal WarningKind = "total"
	// WarnUnresolved is raised when a pass-through entity has no shareholder row.
	WarnUnresolved WarningKind = "unresolved"
	// WarnCycle is raised when an ownership chain loops back on itself.
	WarnCycle WarningKind = "cycle"
	// WarnOverAllocated is raised when the shareholders of one entity exceed 100%.
	WarnOverAllocated WarningKind = "over-allocated"
	// WarnRedeclared is raised when the same edge appears twice with different shares.
	WarnRedeclared WarningKind = "redeclared"
	// WarnUnknownRoot is raised when the requested root entity is not in the table.
	WarnUnknownRoot WarningKind = "unknown-root"
)

// ConsistencyWarning is a data problem that never blocks the output.
type ConsistencyWarning struct {
	Kind    WarningKind `json:"kind"`
	Entity  string      `json:"entity,omitempty"`
	Message string      `json:"message"`
}

func (w ConsistencyWarning) String() string {
	if w.Entity == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Entity, w.Message)
}
