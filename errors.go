package vdevcache

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrorCode is a high-level category for a cache error, independent of
// the underlying errno.
type ErrorCode string

const (
	// CodeNotEligible means the request falls outside the cache's policy
	// (DONT_CACHE set, too large, or straddling a line boundary). Cache
	// state is unchanged.
	CodeNotEligible ErrorCode = "not eligible for caching"

	// CodeStale means a write invalidated the line during its fill; the
	// caller should re-issue the read uncached.
	CodeStale ErrorCode = "stale entry"

	// CodeTransient means no line could be allocated right now (budget
	// full and the LRU front is pinned by a fill, or caching is
	// disabled). The caller should proceed uncached.
	CodeTransient ErrorCode = "transient allocation failure"

	// CodeDeviceError means the underlying device fill failed; delivered
	// to delegated I/Os via their Err field, never returned by Read
	// directly.
	CodeDeviceError ErrorCode = "device error"
)

// Error is a structured cache error carrying the failing operation, an
// errno where one applies, and a high-level category for errors.Is-style
// matching.
type Error struct {
	Op     string
	Offset int64
	Code   ErrorCode
	Errno  syscall.Errno
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Errno != 0 {
		return fmt.Sprintf("vdevcache: %s: %s (errno=%d, offset=%d)", e.Op, msg, e.Errno, e.Offset)
	}
	return fmt.Sprintf("vdevcache: %s: %s (offset=%d)", e.Op, msg, e.Offset)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison by error code.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

func newNotEligible(op string, offset int64, errno syscall.Errno, msg string) *Error {
	return &Error{Op: op, Offset: offset, Code: CodeNotEligible, Errno: errno, Msg: msg}
}

func newStale(op string, offset int64) *Error {
	return &Error{Op: op, Offset: offset, Code: CodeStale, Errno: syscall.ESTALE, Msg: "entry invalidated by a concurrent write while filling"}
}

func newTransient(op string, offset int64, msg string) *Error {
	return &Error{Op: op, Offset: offset, Code: CodeTransient, Errno: syscall.ENOMEM, Msg: msg}
}

func newDeviceError(op string, offset int64, inner error) *Error {
	return &Error{Op: op, Offset: offset, Code: CodeDeviceError, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
