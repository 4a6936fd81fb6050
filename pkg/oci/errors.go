// Package oci holds the error type and JSON helpers shared by the image,
// runtime and distribution document packages.
package oci

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindOther Kind = iota
	KindIO
	KindSerDe
	KindBuilder
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindSerDe:
		return "serde"
	case KindBuilder:
		return "builder"
	default:
		return "other"
	}
}

// Error is returned by every document operation in this module.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("oci %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("oci %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind when its Err is nil, so callers can
// write errors.Is(err, &oci.Error{Kind: oci.KindBuilder}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

func Other(format string, args ...any) error {
	return &Error{Kind: KindOther, Err: fmt.Errorf(format, args...)}
}

func IO(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

func SerDe(op string, err error) error {
	return &Error{Kind: KindSerDe, Op: op, Err: err}
}

// Builder reports a missing or invalid required field.
func Builder(format string, args ...any) error {
	return &Error{Kind: KindBuilder, Err: fmt.Errorf(format, args...)}
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
