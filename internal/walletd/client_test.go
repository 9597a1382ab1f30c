// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package walletd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/tari-tools/tdeploy/internal/testutil"
)

func TestLogin_Handshake(t *testing.T) {
	daemon := testutil.NewMockWalletDaemon(t)
	client := NewClient(daemon.URL())

	session, err := client.Login(context.Background())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Token() != testutil.MockPermissionsToken {
		t.Errorf("Token() = %q, want %q", session.Token(), testutil.MockPermissionsToken)
	}

	calls := daemon.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %v", daemon.Methods())
	}

	var authReq map[string]json.RawMessage
	if err := json.Unmarshal(calls[0].Params, &authReq); err != nil {
		t.Fatal(err)
	}
	if calls[0].Method != MethodAuthRequest {
		t.Errorf("first call = %s, want %s", calls[0].Method, MethodAuthRequest)
	}
	if string(authReq["permissions"]) != `["Admin"]` {
		t.Errorf("permissions = %s, want [\"Admin\"]", authReq["permissions"])
	}
	if string(authReq["duration"]) != "null" {
		t.Errorf("duration = %s, want null", authReq["duration"])
	}

	var acceptReq AuthLoginAcceptRequest
	if err := json.Unmarshal(calls[1].Params, &acceptReq); err != nil {
		t.Fatal(err)
	}
	if acceptReq.AuthToken != testutil.MockAuthToken || acceptReq.Name != DefaultSessionName {
		t.Errorf("auth.accept params = %+v", acceptReq)
	}

	for _, c := range calls {
		if c.Authorization != "" {
			t.Errorf("%s should not carry an Authorization header, got %q", c.Method, c.Authorization)
		}
	}
}

func TestLogin_CustomSessionAndPermissions(t *testing.T) {
	daemon := testutil.NewMockWalletDaemon(t)
	client := NewClient(daemon.URL(), WithSessionName("ci"), WithPermissions("TransactionSend", "AccountInfo"))

	if _, err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	calls := daemon.Calls()
	var authReq AuthLoginRequest
	if err := json.Unmarshal(calls[0].Params, &authReq); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(authReq.Permissions, []string{"TransactionSend", "AccountInfo"}) {
		t.Errorf("permissions = %v", authReq.Permissions)
	}
	var acceptReq AuthLoginAcceptRequest
	if err := json.Unmarshal(calls[1].Params, &acceptReq); err != nil {
		t.Fatal(err)
	}
	if acceptReq.Name != "ci" {
		t.Errorf("session name = %q, want ci", acceptReq.Name)
	}
}

func TestLogin_Rejected(t *testing.T) {
	daemon := testutil.NewMockWalletDaemon(t)
	daemon.Handle(MethodAuthAccept, func(json.RawMessage) (any, error) {
		return nil, &testutil.MockRPCError{Code: 401, Message: "login denied"}
	})

	_, err := NewClient(daemon.URL()).Login(context.Background())
	if !errors.Is(err, ErrSessionRejected) {
		t.Fatalf("expected ErrSessionRejected, got %v", err)
	}
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError in chain, got %v", err)
	}
	if rpcErr.Code != 401 || rpcErr.Message != "login denied" || rpcErr.Method != MethodAuthAccept {
		t.Errorf("RPCError = %+v", rpcErr)
	}
	if IsTransport(err) {
		t.Error("rejected login must not look like a transport failure")
	}
}

func TestLogin_EmptyToken(t *testing.T) {
	daemon := testutil.NewMockWalletDaemon(t)
	daemon.Handle(MethodAuthAccept, func(json.RawMessage) (any, error) {
		return map[string]any{"permissions_token": ""}, nil
	})

	_, err := NewClient(daemon.URL()).Login(context.Background())
	if !errors.Is(err, ErrSessionRejected) {
		t.Fatalf("expected ErrSessionRejected, got %v", err)
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestLogin_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url).Login(context.Background())
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if !IsTransport(err) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if errors.Is(err, ErrSessionRejected) {
		t.Error("transport failure must not be reported as a rejected session")
	}
}

func TestSession_AttachesBearerToken(t *testing.T) {
	daemon := testutil.NewMockWalletDaemon(t)
	daemon.Handle(MethodAccountBalances, func(params json.RawMessage) (any, error) {
		return map[string]any{
			"address": "component_alice",
			"balances": []map[string]any{
				{"resource_address": NativeResourceAddress, "balance": "5000", "vault_address": "vault_1"},
			},
		}, nil
	})

	client := NewClient(daemon.URL())
	session, err := client.Login(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	account := ParseAccount("alice")
	resp, err := session.AccountBalances(context.Background(), AccountBalancesRequest{Account: &account})
	if err != nil {
		t.Fatalf("AccountBalances() error = %v", err)
	}
	if got := resp.BalanceOf(NativeResourceAddress); got != 5000 {
		t.Errorf("BalanceOf(native) = %d, want 5000", got)
	}

	calls := daemon.Calls()
	last := calls[len(calls)-1]
	if last.Authorization != "Bearer "+testutil.MockPermissionsToken {
		t.Errorf("Authorization = %q", last.Authorization)
	}
	if string(last.Params) != `{"account":{"Name":"alice"},"refresh":false}` {
		t.Errorf("params = %s", last.Params)
	}
}

func TestSession_PublishTemplateRequestShape(t *testing.T) {
	daemon := testutil.NewMockWalletDaemon(t)
	var got map[string]json.RawMessage
	daemon.Handle(MethodPublishTemplate, func(params json.RawMessage) (any, error) {
		if err := json.Unmarshal(params, &got); err != nil {
			return nil, err
		}
		return map[string]any{"transaction_id": "", "dry_run_fee": 1000}, nil
	})

	session, err := NewClient(daemon.URL()).Login(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	binary := []byte{0x00, 0x61, 0x73, 0x6d}
	account := ParseAccount("component_abc")
	resp, err := session.PublishTemplate(context.Background(), PublishTemplateRequest{
		Binary:       binary,
		FeeAccount:   &account,
		MaxFee:       1_000_000,
		DetectInputs: true,
		DryRun:       true,
	})
	if err != nil {
		t.Fatalf("PublishTemplate() error = %v", err)
	}
	if resp.DryRunFee == nil || *resp.DryRunFee != 1000 {
		t.Errorf("DryRunFee = %v, want 1000", resp.DryRunFee)
	}

	want := map[string]string{
		"binary":        fmt.Sprintf("%q", base64.StdEncoding.EncodeToString(binary)),
		"fee_account":   `{"ComponentAddress":"component_abc"}`,
		"max_fee":       "1000000",
		"detect_inputs": "true",
		"dry_run":       "true",
	}
	for key, value := range want {
		if string(got[key]) != value {
			t.Errorf("%s = %s, want %s", key, got[key], value)
		}
	}
}

func TestSession_WaitTransactionResult(t *testing.T) {
	daemon := testutil.NewMockWalletDaemon(t)
	daemon.Handle(MethodWaitTransactionResult, func(params json.RawMessage) (any, error) {
		var req WaitTransactionResultRequest
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, err
		}
		if req.TransactionID != "tx-1" || req.TimeoutSecs == nil || *req.TimeoutSecs != 120 {
			return nil, &testutil.MockRPCError{Code: InvalidParams, Message: "bad params"}
		}
		return json.RawMessage(`{
			"result": {"result": {"Accept": {"up_substates": [[{"Template": "tpl-addr-abc"}, {}]]}}},
			"status": "Accepted",
			"final_fee": 900,
			"timed_out": false
		}`), nil
	})

	session, err := NewClient(daemon.URL()).Login(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	timeout := uint64(120)
	resp, err := session.WaitTransactionResult(context.Background(), WaitTransactionResultRequest{
		TransactionID: "tx-1",
		TimeoutSecs:   &timeout,
	})
	if err != nil {
		t.Fatalf("WaitTransactionResult() error = %v", err)
	}
	if resp.TimedOut || resp.Status != "Accepted" || resp.FinalFee != 900 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Result == nil || resp.Result.Result.Kind != ResultAccept {
		t.Fatalf("expected Accept result, got %+v", resp.Result)
	}
	ups := resp.Result.Result.Diff.UpSubstates
	if len(ups) != 1 || ups[0].ID != (SubstateID{Kind: SubstateKindTemplate, Address: "tpl-addr-abc"}) {
		t.Errorf("up_substates = %+v", ups)
	}
}

func TestSession_WaitTransactionResultMalformedSubstateID(t *testing.T) {
	daemon := testutil.NewMockWalletDaemon(t)
	daemon.Handle(MethodWaitTransactionResult, func(params json.RawMessage) (any, error) {
		return json.RawMessage(`{
			"result": {"result": {"Accept": {"up_substates": [[{"Template": {"id": "x"}}, {}]]}}},
			"status": "Accepted",
			"final_fee": 900,
			"timed_out": false
		}`), nil
	})

	session, err := NewClient(daemon.URL()).Login(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	resp, err := session.WaitTransactionResult(context.Background(), WaitTransactionResultRequest{TransactionID: "tx-1"})
	if resp != nil {
		t.Errorf("expected no response, got %+v", resp)
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
}

func TestCall_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		msgContains string
	}{
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			msgContains: "malformed JSON",
		},
		{
			name: "unexpected status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
			msgContains: "unexpected HTTP status 502",
		},
		{
			name: "wrong id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":999,"result":{}}`))
			},
			msgContains: "does not match request id",
		},
		{
			name: "missing result",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1}`))
			},
			msgContains: "missing or malformed result",
		},
		{
			name: "result of wrong shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"balances":"lots"}}`))
			},
			msgContains: "missing or malformed result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			session := &Session{client: NewClient(server.URL), token: "t"}
			_, err := session.AccountBalances(context.Background(), AccountBalancesRequest{})

			var protoErr *ProtocolError
			if !errors.As(err, &protoErr) {
				t.Fatalf("expected ProtocolError, got %T: %v", err, err)
			}
			if protoErr.Method != MethodAccountBalances {
				t.Errorf("Method = %q", protoErr.Method)
			}
			if !strings.Contains(err.Error(), tt.msgContains) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.msgContains)
			}
		})
	}
}

func TestCall_RPCErrorWithHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32001,"message":"token expired"}}`))
	}))
	defer server.Close()

	session := &Session{client: NewClient(server.URL), token: "stale"}
	_, err := session.AccountBalances(context.Background(), AccountBalancesRequest{})

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != -32001 || rpcErr.Message != "token expired" {
		t.Errorf("RPCError = %+v", rpcErr)
	}
}

func TestCall_ContextDeadlineIsTransport(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := &Session{client: NewClient(server.URL), token: "t"}
	_, err := session.AccountBalances(ctx, AccountBalancesRequest{})
	if !IsTransport(err) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}
