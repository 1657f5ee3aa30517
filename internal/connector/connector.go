// Package connector retrieves configuration text from network devices.
// The transport is a small open/fetch/close contract; retry policy and
// failure classification live in Retrier so the engine never sees a
// raw transport error.
package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ilee165/network-device-backup/internal/model"
)

// Session is one open connection to a device.
type Session interface {
	// FetchConfig retrieves the device's running configuration.
	FetchConfig(ctx context.Context) (string, error)
	Close() error
}

// Connector opens sessions to devices.
type Connector interface {
	Open(ctx context.Context, device *model.Device) (Session, error)
}

// ErrEmptyConfig marks a fetch that returned nothing but whitespace.
// A device returning nothing is indistinguishable from a broken show
// command and must never be recorded as a valid snapshot.
var ErrEmptyConfig = errors.New("device returned an empty configuration")

// FailureKind classifies a connector failure for retry decisions.
type FailureKind int

const (
	// FailureTransient covers everything retryable that is not a
	// timeout: refused connections, resets, protocol errors.
	FailureTransient FailureKind = iota
	// FailureTimeout is a connect or fetch that exceeded the
	// per-attempt timeout. Retried like transient failures.
	FailureTimeout
	// FailureAuth is an authentication rejection. Never retried.
	FailureAuth
	// FailureEmpty is a fetch that produced no configuration text.
	// Not retried: repeating a broken show command does not fix it.
	FailureEmpty
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureAuth:
		return "authentication failed"
	case FailureEmpty:
		return "empty configuration"
	default:
		return "connection failed"
	}
}

// Error is a classified connector failure tagged with the number of
// attempts made before giving up.
type Error struct {
	Kind     FailureKind
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps an error onto the retry taxonomy.
func Classify(err error) FailureKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, ErrEmptyConfig) {
		return FailureEmpty
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	// x/crypto/ssh reports auth rejections as plain errors; the
	// "unable to authenticate" text is stable across releases.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unable to authenticate") || strings.Contains(msg, "permission denied") {
		return FailureAuth
	}
	return FailureTransient
}
