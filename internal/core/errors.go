package core

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when no catalog source is registered for a kind.
var ErrUnknownKind = errors.New("unknown catalog source kind")

// FormatError is returned when a version string does not match its grammar.
type FormatError struct {
	Grammar string // "strict" or "packaging"
	Input   string
	Reason  string
}

func (e *FormatError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s version: %s", e.Grammar, e.Reason)
	}
	return fmt.Sprintf("%s version %q: %s", e.Grammar, e.Input, e.Reason)
}

// RecordError describes a single catalog entry that could not be turned into
// a Package. The rest of the response is still used.
type RecordError struct {
	Source   string
	Filename string
	Err      error
}

func (e *RecordError) Error() string {
	msg := "record"
	if e.Filename != "" {
		msg += " " + e.Filename
	}
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// SourceError is reported when a catalog answered but the answer was
// logically empty or carried an error message.
type SourceError struct {
	Source  string
	Message string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// TransportError is reported when a catalog could not be reached at all.
type TransportError struct {
	Source string
	Target string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: fetching %s: %v", e.Source, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
