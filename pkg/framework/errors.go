package framework

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// AggregatedError aggregates multiple errors.
type AggregatedError struct {
	Errors []error
}

// Error implements error
func (e *AggregatedError) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}
	msg := make([]string, len(e.Errors)+1)
	msg[0] = "Multiple errors:"
	for n, err := range e.Errors {
		msg[n+1] = err.Error()
	}
	return strings.Join(msg, "\n")
}

// Add adds errors to be aggregated. nil will be skipped.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns aggregated error if any error happened.
// A single error is returned as is.
func (e *AggregatedError) Aggregate() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	}
	return e
}

// FaultKind classifies a task fault.
type FaultKind int

// Fault kinds
const (
	FaultUnknown FaultKind = iota
	// FaultHardwareIO is a failed transaction with a device.
	FaultHardwareIO
	// FaultValidation is a malformed or out-of-range input.
	FaultValidation
	// FaultLockTimeout is a bounded lock wait that expired.
	FaultLockTimeout
	// FaultPersistence is a failed durable write.
	FaultPersistence
	// FaultStartup is a failure before the loop starts, always fatal.
	FaultStartup
	// FaultPanic is a recovered panic inside a task body.
	FaultPanic
)

var faultKindNames = map[FaultKind]string{
	FaultUnknown:     "unknown",
	FaultHardwareIO:  "hardware-io",
	FaultValidation:  "validation",
	FaultLockTimeout: "lock-timeout",
	FaultPersistence: "persistence",
	FaultStartup:     "startup",
	FaultPanic:       "panic",
}

// String implements fmt.Stringer.
func (k FaultKind) String() string {
	if name, ok := faultKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// Fault is an error with a kind and the failing operation.
type Fault struct {
	Kind FaultKind
	Op   string
	Err  error
}

// NewFault creates a Fault.
func NewFault(kind FaultKind, op string, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Err: err}
}

// Faultf creates a Fault with a formatted message.
func Faultf(kind FaultKind, op string, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Error implements error.
func (f *Fault) Error() string {
	if f.Op == "" {
		return fmt.Sprintf("[%s] %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", f.Kind, f.Op, f.Err)
}

// Cause implements the causer interface of github.com/pkg/errors.
func (f *Fault) Cause() error { return f.Err }

// Unwrap supports errors.Is/As from the standard library.
func (f *Fault) Unwrap() error { return f.Err }

// KindOf extracts the kind of the first Fault in the error chain.
func KindOf(err error) FaultKind {
	for err != nil {
		if f, ok := err.(*Fault); ok {
			return f.Kind
		}
		causer, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = causer.Cause()
	}
	return FaultUnknown
}

// IsKind determines whether err is a Fault of the kind.
func IsKind(err error, kind FaultKind) bool {
	return KindOf(err) == kind
}

// FatalError stops the loop when returned from a task body.
type FatalError struct {
	Err error
}

// Fatal wraps err so that the loop stops and returns it.
func Fatal(err error) error {
	return &FatalError{Err: err}
}

// Error implements error.
func (e *FatalError) Error() string {
	return "fatal: " + e.Err.Error()
}

// Cause implements the causer interface of github.com/pkg/errors.
func (e *FatalError) Cause() error { return e.Err }

// Unwrap supports errors.Is/As from the standard library.
func (e *FatalError) Unwrap() error { return e.Err }
