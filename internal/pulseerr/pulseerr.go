// Package pulseerr defines the error kinds shared across the engine.
// Callers classify failures with errors.Is against the exported kinds.
package pulseerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks misconfiguration: missing credentials, unknown
	// provider variant, malformed threshold. Fatal before any fetch.
	ErrConfig = errors.New("configuration error")

	// ErrTransport marks network failures, non-2xx responses, and git
	// subprocess failures. The affected repository is skipped.
	ErrTransport = errors.New("transport error")

	// ErrData marks unparseable upstream payloads. The offending record
	// is skipped and aggregation continues with neutral values.
	ErrData = errors.New("data error")

	// ErrFilesystem marks an unwritable output location. Fatal.
	ErrFilesystem = errors.New("filesystem error")

	// ErrDeadline marks wall-clock cancellation. A partial report is
	// emitted with an incompleteness banner.
	ErrDeadline = errors.New("deadline exceeded")
)

// Wrap annotates err with a kind and a formatted message so that both
// errors.Is(err, kind) and the original cause survive unwrapping.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// WrapErr attaches a kind to an underlying error with context.
func WrapErr(kind, err error, context string) error {
	return fmt.Errorf("%w: %s: %w", kind, context, err)
}
