// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package walletd

import (
	"encoding/json"
	"fmt"
)

// Request represents a JSON-RPC request to the wallet daemon
type Request struct {
	Jsonrpc string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response represents a JSON-RPC response from the wallet daemon
type Response struct {
	Jsonrpc string           `json:"jsonrpc"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *Error           `json:"error,omitempty"`
	ID      interface{}      `json:"id"`
}

// Error represents a JSON-RPC error
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Wallet daemon methods used by tdeploy.
const (
	MethodAuthRequest           = "auth.request"
	MethodAuthAccept            = "auth.accept"
	MethodAccountBalances       = "accounts.get_balances"
	MethodPublishTemplate       = "transactions.publish_template"
	MethodWaitTransactionResult = "transactions.wait_result"
)

// NewRequest creates a new JSON-RPC request
func NewRequest(method string, params interface{}, id interface{}) *Request {
	return &Request{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// ParseResult unmarshals the result into the provided interface
func (r *Response) ParseResult(v interface{}) error {
	if r.Result == nil {
		return fmt.Errorf("no result in response")
	}

	if err := json.Unmarshal(*r.Result, v); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return nil
}

// HasError checks if the response contains an error
func (r *Response) HasError() bool {
	return r.Error != nil
}

// matchesID reports whether the response answers the request with the given id.
// JSON numbers decode as float64.
func (r *Response) matchesID(id uint64) bool {
	switch v := r.ID.(type) {
	case float64:
		return uint64(v) == id
	case string:
		return v == fmt.Sprint(id)
	default:
		return false
	}
}
