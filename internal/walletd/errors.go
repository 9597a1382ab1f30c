// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package walletd

import (
	"errors"
	"fmt"
)

// ErrSessionRejected indicates the wallet daemon answered the login
// handshake but did not grant a session.
var ErrSessionRejected = errors.New("wallet daemon rejected the session")

// TransportError means the wallet daemon could not be reached.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("could not reach wallet daemon (%s): %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RPCError is a JSON-RPC error returned by the wallet daemon.
type RPCError struct {
	Method  string
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: RPC error %d: %s", e.Method, e.Code, e.Message)
}

// ProtocolError means the wallet daemon answered with something that is not
// a well-formed response to the request.
type ProtocolError struct {
	Method string
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: invalid response: %s: %v", e.Method, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: invalid response: %s", e.Method, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
