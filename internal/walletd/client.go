// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

// Package walletd is a JSON-RPC client for the wallet daemon. Every logical
// operation logs in afresh; sessions are never cached on the Client.
package walletd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Defaults for the login handshake.
const (
	DefaultSessionName = "default"
	AdminPermission    = "Admin"
)

// Client talks to one wallet daemon JSON-RPC endpoint.
// It is safe for concurrent use.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	sessionName string
	permissions []string
	logger      *slog.Logger

	requestID atomic.Uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSessionName sets the session label sent with auth.accept.
func WithSessionName(name string) ClientOption {
	return func(c *Client) {
		c.sessionName = name
	}
}

// WithPermissions sets the permission scope requested at login.
func WithPermissions(perms ...string) ClientOption {
	return func(c *Client) {
		c.permissions = perms
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the wallet daemon at endpoint
// (e.g. http://127.0.0.1:12009/json_rpc).
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		httpClient:  &http.Client{},
		sessionName: DefaultSessionName,
		permissions: []string{AdminPermission},
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the JSON-RPC URL this client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Login performs the auth.request / auth.accept handshake and returns a
// session bound to the granted permissions token.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	var challenge AuthLoginResponse
	err := c.call(ctx, "", MethodAuthRequest, AuthLoginRequest{
		Permissions: c.permissions,
	}, &challenge)
	if err != nil {
		return nil, sessionError(err)
	}
	if challenge.AuthToken == "" {
		return nil, sessionError(&ProtocolError{Method: MethodAuthRequest, Reason: "empty auth_token"})
	}

	var accepted AuthLoginAcceptResponse
	err = c.call(ctx, "", MethodAuthAccept, AuthLoginAcceptRequest{
		AuthToken: challenge.AuthToken,
		Name:      c.sessionName,
	}, &accepted)
	if err != nil {
		return nil, sessionError(err)
	}
	if accepted.PermissionsToken == "" {
		return nil, sessionError(&ProtocolError{Method: MethodAuthAccept, Reason: "empty permissions_token"})
	}

	c.logger.Debug("wallet daemon session established", "endpoint", c.endpoint, "session", c.sessionName)
	return &Session{client: c, token: accepted.PermissionsToken}, nil
}

// sessionError keeps transport failures distinguishable from a rejected login.
func sessionError(err error) error {
	if IsTransport(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSessionRejected, err)
}

// call posts one JSON-RPC request and decodes its result into result.
// An empty token sends no Authorization header.
func (c *Client) call(ctx context.Context, token, method string, params, result interface{}) error {
	id := c.requestID.Add(1)

	body, err := json.Marshal(NewRequest(method, params, id))
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	c.logger.Debug("wallet daemon call", "method", method, "status", resp.StatusCode, "duration", time.Since(start))

	var rpcResp Response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &ProtocolError{Method: method, Reason: fmt.Sprintf("unexpected HTTP status %d: %s", resp.StatusCode, truncate(data, 200))}
		}
		return &ProtocolError{Method: method, Reason: "malformed JSON", Err: err}
	}

	if rpcResp.HasError() {
		return &RPCError{Method: method, Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return &ProtocolError{Method: method, Reason: fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode)}
	}
	if !rpcResp.matchesID(id) {
		return &ProtocolError{Method: method, Reason: fmt.Sprintf("response id %v does not match request id %d", rpcResp.ID, id)}
	}
	if result == nil {
		return nil
	}
	if err := rpcResp.ParseResult(result); err != nil {
		return &ProtocolError{Method: method, Reason: "missing or malformed result", Err: err}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
