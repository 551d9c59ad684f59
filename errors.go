// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tcpstream

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

var (
	// ErrNoAddressesResolved is returned when a host resolved successfully but
	// to zero addresses. No socket is created in that case.
	ErrNoAddressesResolved = errors.New("no addresses resolved")

	// ErrConnectTimeout matches every *ConnectTimeoutError.
	ErrConnectTimeout = errors.New("connect timeout")

	// ErrOperationCancelled matches every *CancelledError.
	ErrOperationCancelled = errors.New("operation cancelled")

	// ErrInvalidTarget is returned before any work is done when a Target has
	// neither a host name nor a valid address.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrInvalidSettings is returned before any work is done when the
	// connection settings violate their invariants.
	ErrInvalidSettings = errors.New("invalid connection settings")
)

// ResolutionError reports that name resolution failed outright.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// AllAddressesFailedError reports that every candidate refused or failed the
// connect handshake. Last is the failure of the final candidate; the full
// ordered list is available through errors.Is/As via Unwrap.
type AllAddressesFailedError struct {
	Target string
	Last   error

	causes error
}

func newAllAddressesFailedError(target string, causes error) *AllAddressesFailedError {
	errs := multierr.Errors(causes)
	var last error
	if len(errs) > 0 {
		last = errs[len(errs)-1]
	}
	return &AllAddressesFailedError{Target: target, Last: last, causes: causes}
}

func (e *AllAddressesFailedError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Target, e.Last)
}

// Causes returns the failure of every attempted candidate, in attempt order.
func (e *AllAddressesFailedError) Causes() []error {
	return multierr.Errors(e.causes)
}

func (e *AllAddressesFailedError) Unwrap() []error { return e.Causes() }

// ConnectTimeoutError reports that the per-attempt deadline elapsed before
// the connection (or the name lookup preceding it) completed.
type ConnectTimeoutError struct {
	Address  string
	Deadline time.Duration
}

func (e *ConnectTimeoutError) Error() string {
	return fmt.Sprintf("timed out connecting to %s. Timeout was %s.", e.Address, e.Deadline)
}

// Timeout makes the error satisfy net.Error style checks.
func (e *ConnectTimeoutError) Timeout() bool { return true }

func (e *ConnectTimeoutError) Is(target error) bool { return target == ErrConnectTimeout }

// CancelledError reports that the caller's context settled the race before a
// connection was established. Cause is the context's cancellation cause.
type CancelledError struct {
	Address string
	Cause   error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("connecting to %s: %v: %v", e.Address, ErrOperationCancelled, e.Cause)
}

func (e *CancelledError) Is(target error) bool { return target == ErrOperationCancelled }

func (e *CancelledError) Unwrap() error { return e.Cause }

// SocketConfigurationError reports that a connected socket could not be
// configured. The connection is closed and no other candidate is tried.
type SocketConfigurationError struct {
	Address string
	Err     error
}

func (e *SocketConfigurationError) Error() string {
	return fmt.Sprintf("configuring socket to %s: %v", e.Address, e.Err)
}

func (e *SocketConfigurationError) Unwrap() error { return e.Err }
