// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package testutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Default tokens handed out by the mock wallet daemon's auth handlers.
const (
	MockAuthToken        = "mock-auth-token"
	MockPermissionsToken = "mock-permissions-token"
)

// RPCHandler serves one JSON-RPC method of the mock wallet daemon.
// Returning a *MockRPCError produces a JSON-RPC error with that code.
type RPCHandler func(params json.RawMessage) (any, error)

// MockRPCError is a JSON-RPC error returned by an RPCHandler.
type MockRPCError struct {
	Code    int
	Message string
}

func (e *MockRPCError) Error() string { return e.Message }

// MockCall records one request received by the mock wallet daemon.
type MockCall struct {
	Method        string
	Authorization string
	Params        json.RawMessage
}

// MockWalletDaemon is an httptest JSON-RPC server standing in for a wallet daemon.
type MockWalletDaemon struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]RPCHandler
	calls    []MockCall
}

// NewMockWalletDaemon starts a mock wallet daemon with working auth.request
// and auth.accept handlers. The server is closed when the test completes.
func NewMockWalletDaemon(t *testing.T) *MockWalletDaemon {
	t.Helper()

	m := &MockWalletDaemon{handlers: make(map[string]RPCHandler)}

	m.Handle("auth.request", func(json.RawMessage) (any, error) {
		return map[string]any{"auth_token": MockAuthToken, "valid_for_secs": 60}, nil
	})
	m.Handle("auth.accept", func(params json.RawMessage) (any, error) {
		var p struct {
			AuthToken string `json:"auth_token"`
		}
		if err := json.Unmarshal(params, &p); err != nil || p.AuthToken != MockAuthToken {
			return nil, &MockRPCError{Code: 401, Message: "invalid auth token"}
		}
		return map[string]any{"permissions_token": MockPermissionsToken}, nil
	})

	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

// Handle registers (or replaces) the handler for method.
func (m *MockWalletDaemon) Handle(method string, h RPCHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = h
}

// Calls returns a copy of the requests received so far.
func (m *MockWalletDaemon) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Methods returns the method names received so far, in order.
func (m *MockWalletDaemon) Methods() []string {
	calls := m.Calls()
	methods := make([]string, len(calls))
	for i, c := range calls {
		methods[i] = c.Method
	}
	return methods
}

// URL returns the server URL
func (m *MockWalletDaemon) URL() string {
	return m.Server.URL
}

// Close shuts down the mock server
func (m *MockWalletDaemon) Close() {
	m.Server.Close()
}

type mockRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

func (m *MockWalletDaemon) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req mockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.calls = append(m.calls, MockCall{
		Method:        req.Method,
		Authorization: r.Header.Get("Authorization"),
		Params:        req.Params,
	})
	h, ok := m.handlers[req.Method]
	m.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = map[string]any{"code": -32601, "message": "method not found: " + req.Method}
	} else if result, err := h(req.Params); err != nil {
		var rpcErr *MockRPCError
		if errors.As(err, &rpcErr) {
			resp["error"] = map[string]any{"code": rpcErr.Code, "message": rpcErr.Message}
		} else {
			resp["error"] = map[string]any{"code": -32603, "message": err.Error()}
		}
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
