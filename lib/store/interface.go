package store

import (
	"fmt"

	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the contract shared by every layer of the broker stack
// (cache, database and the broker itself).
// Write operations never fail, read operations return a *Error with code
// RetCNotFound if the key is absent at that layer.
type IStore interface {
	// Store inserts or overwrites a key–value pair.
	Store(key, val value.Value)
	// Fetch returns the value for a key.
	Fetch(key value.Value) (val value.Value, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("crusher error (code %s): %s", e.Code, e.Msg)
}

// Is makes errors.Is match any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// NotFound creates a RetCNotFound error for the given key.
func NotFound(key value.Value) *Error {
	return NewError(RetCNotFound, key.String())
}

// ConfigErrorf creates a RetCConfigError error.
func ConfigErrorf(format string, args ...interface{}) *Error {
	return NewError(RetCConfigError, fmt.Sprintf(format, args...))
}

// Sentinels for errors.Is
var (
	ErrNotFound        = &Error{Code: RetCNotFound}
	ErrConfig          = &Error{Code: RetCConfigError}
	ErrSnapshotMissing = &Error{Code: RetCSnapshotMissing}
)

// IsNotFound reports whether err is (or wraps) a RetCNotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConfigError reports whether err is (or wraps) a RetCConfigError error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: Command executed successfully.
	RetCInternalError                  // 1: Command failed due to an internal error.
	RetCNotFound                       // 2: Key is absent at the queried layer.
	RetCConfigError                    // 3: Malformed configuration command.
	RetCSnapshotMissing                // 4: No snapshot to load, the store starts empty.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCNotFound:
		return "NotFound"
	case RetCConfigError:
		return "ConfigError"
	case RetCSnapshotMissing:
		return "SnapshotMissing"
	default:
		return "Unknown"
	}
}
