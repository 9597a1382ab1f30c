// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/tari-tools/tdeploy/internal/deploy"
	"github.com/tari-tools/tdeploy/internal/testutil"
	"github.com/tari-tools/tdeploy/internal/walletd"
)

const acceptedTemplate = `{
	"result": {"result": {"Accept": {"up_substates": [["template_tpl-addr-abc", {}]]}}},
	"status": "Accepted",
	"final_fee": 900,
	"timed_out": false
}`

// publishes records the max fee of every real publish.
type publishes struct {
	mu      sync.Mutex
	maxFees []walletd.Amount
}

func (p *publishes) fees() []walletd.Amount {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]walletd.Amount(nil), p.maxFees...)
}

// daemonWith returns a mock wallet daemon holding balance and charging a
// dry-run fee of 1000.
func daemonWith(t *testing.T, balance walletd.Amount) (*testutil.MockWalletDaemon, *publishes) {
	t.Helper()
	daemon := testutil.NewMockWalletDaemon(t)
	published := &publishes{}

	daemon.Handle(walletd.MethodAccountBalances, func(json.RawMessage) (any, error) {
		return walletd.AccountBalancesResponse{
			Address:  "component_alice",
			Balances: []walletd.BalanceEntry{{ResourceAddress: walletd.NativeResourceAddress, Balance: balance}},
		}, nil
	})
	daemon.Handle(walletd.MethodPublishTemplate, func(params json.RawMessage) (any, error) {
		var p struct {
			DryRun bool           `json:"dry_run"`
			MaxFee walletd.Amount `json:"max_fee"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		if p.DryRun {
			return map[string]any{"transaction_id": "", "dry_run_fee": 1000}, nil
		}
		published.mu.Lock()
		published.maxFees = append(published.maxFees, p.MaxFee)
		published.mu.Unlock()
		return map[string]any{"transaction_id": "tx-1"}, nil
	})
	daemon.Handle(walletd.MethodWaitTransactionResult, func(json.RawMessage) (any, error) {
		return json.RawMessage(acceptedTemplate), nil
	})
	return daemon, published
}

type testRun struct {
	app    *app
	out    *bytes.Buffer
	errOut *bytes.Buffer
	dir    string
	wasm   string

	questions []string
}

func newTestRun(t *testing.T, daemonURL string) *testRun {
	t.Helper()
	r := &testRun{
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		dir:    t.TempDir(),
		wasm:   testutil.TempFile(t, testutil.TemplateWasm("counter")),
	}
	config := fmt.Sprintf("default_account: alice\nnetworks:\n  local:\n    wallet_daemon_jrpc_address: %s\n", daemonURL)
	testutil.WriteFile(t, r.dir, "config.yaml", []byte(config))

	r.app = &app{
		out:    r.out,
		errOut: r.errOut,
		confirm: func(q string) (bool, error) {
			r.questions = append(r.questions, q)
			return true, nil
		},
		promptAmount: func(q string, def int64) (int64, error) {
			r.questions = append(r.questions, q)
			return def, nil
		},
	}
	return r
}

func (r *testRun) run(args ...string) error {
	argv := append([]string{"tdeploy", "-d", r.dir}, args...)
	return r.app.command().Run(context.Background(), argv)
}

func count(methods []string, method string) int {
	n := 0
	for _, m := range methods {
		if m == method {
			n++
		}
	}
	return n
}

func TestDeployCommand_Yes(t *testing.T) {
	daemon, published := daemonWith(t, 5000)
	r := newTestRun(t, daemon.URL())

	if err := r.run("deploy", "--yes", r.wasm); err != nil {
		t.Fatalf("deploy error = %v", err)
	}

	if got := r.out.String(); got != "Your new template's address: tpl-addr-abc\n" {
		t.Errorf("stdout = %q", got)
	}
	if fees := published.fees(); len(fees) != 1 || fees[0] != 1000 {
		t.Errorf("published with max fees %v, want [1000]", published.fees())
	}
	if len(r.questions) != 0 {
		t.Errorf("--yes should not prompt, asked %v", r.questions)
	}
	for _, want := range []string{"counter", "1000 XTR", "5000 XTR", "tx-1"} {
		if !strings.Contains(r.errOut.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, r.errOut.String())
		}
	}
}

func TestDeployCommand_MaxFeeFlag(t *testing.T) {
	daemon, published := daemonWith(t, 5000)
	r := newTestRun(t, daemon.URL())

	if err := r.run("deploy", "--yes", "--max-fee", "2500", r.wasm); err != nil {
		t.Fatalf("deploy error = %v", err)
	}
	if fees := published.fees(); len(fees) != 1 || fees[0] != 2500 {
		t.Errorf("published with max fees %v, want [2500]", published.fees())
	}
}

func TestDeployCommand_Interactive(t *testing.T) {
	daemon, published := daemonWith(t, 5000)
	r := newTestRun(t, daemon.URL())
	r.app.interactive = true
	r.app.promptAmount = func(q string, def int64) (int64, error) {
		r.questions = append(r.questions, q)
		if def != 1000 {
			t.Errorf("max fee prompt default = %d, want 1000", def)
		}
		return 3000, nil
	}

	if err := r.run("deploy", r.wasm); err != nil {
		t.Fatalf("deploy error = %v", err)
	}

	want := []string{"Deploy this template?", "Max fee", "Publish for a fee of up to 3000 XTR?"}
	if strings.Join(r.questions, "|") != strings.Join(want, "|") {
		t.Errorf("questions = %q, want %q", r.questions, want)
	}
	if fees := published.fees(); len(fees) != 1 || fees[0] != 3000 {
		t.Errorf("published with max fees %v, want [3000]", published.fees())
	}
}

func TestDeployCommand_DeclinedBeforeAnyCall(t *testing.T) {
	daemon, _ := daemonWith(t, 5000)
	r := newTestRun(t, daemon.URL())
	r.app.interactive = true
	r.app.confirm = func(string) (bool, error) { return false, nil }

	err := r.run("deploy", r.wasm)
	if !errors.Is(err, deploy.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if deploy.StageOf(err) != deploy.StageConfirm {
		t.Errorf("stage = %q, want confirm", deploy.StageOf(err))
	}
	if calls := daemon.Calls(); len(calls) != 0 {
		t.Errorf("expected no wallet calls, got %v", daemon.Methods())
	}
}

func TestDeployCommand_NonInteractiveNeedsYes(t *testing.T) {
	daemon, _ := daemonWith(t, 5000)
	r := newTestRun(t, daemon.URL())

	err := r.run("deploy", r.wasm)
	testutil.AssertError(t, err, true, "rerun with --yes")
	if calls := daemon.Calls(); len(calls) != 0 {
		t.Errorf("expected no wallet calls, got %v", daemon.Methods())
	}
}

func TestDeployCommand_InsufficientBalance(t *testing.T) {
	daemon, published := daemonWith(t, 500)
	r := newTestRun(t, daemon.URL())

	err := r.run("deploy", "--yes", r.wasm)
	var insufficient *deploy.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if err.Error() != "check balance: insufficient balance: current balance 500, estimated fee 1000" {
		t.Errorf("error = %q", err.Error())
	}
	if len(published.fees()) != 0 {
		t.Errorf("nothing should be published, got %v", published.fees())
	}
	if count(daemon.Methods(), walletd.MethodWaitTransactionResult) != 0 {
		t.Error("no wait call expected")
	}
	if r.out.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", r.out.String())
	}
}

func TestDeployCommand_InvalidTemplate(t *testing.T) {
	daemon, _ := daemonWith(t, 5000)
	r := newTestRun(t, daemon.URL())
	bad := testutil.TempFile(t, []byte("not wasm"))

	err := r.run("deploy", "--yes", bad)
	if deploy.StageOf(err) != deploy.StageValidate {
		t.Fatalf("expected validate stage error, got %v", err)
	}
	if len(daemon.Calls()) != 0 {
		t.Errorf("expected no wallet calls, got %v", daemon.Methods())
	}
}

func TestDeployCommand_UnknownNetwork(t *testing.T) {
	daemon, _ := daemonWith(t, 5000)
	r := newTestRun(t, daemon.URL())

	err := r.run("deploy", "--yes", "--network", "devnet", r.wasm)
	testutil.AssertError(t, err, true, "unknown network")
}

func TestEstimateCommand(t *testing.T) {
	daemon, published := daemonWith(t, 5000)
	r := newTestRun(t, daemon.URL())

	if err := r.run("estimate", r.wasm); err != nil {
		t.Fatalf("estimate error = %v", err)
	}
	if got := r.out.String(); got != "Estimated fee: 1000 XTR\n" {
		t.Errorf("stdout = %q", got)
	}
	if len(published.fees()) != 0 {
		t.Errorf("estimate must not publish, got %v", published.fees())
	}
}

func TestBalanceCommand(t *testing.T) {
	daemon, _ := daemonWith(t, 5000)
	r := newTestRun(t, daemon.URL())

	if err := r.run("balance", "--account", "bob"); err != nil {
		t.Fatalf("balance error = %v", err)
	}
	if got := r.out.String(); got != "bob: 5000 XTR\n" {
		t.Errorf("stdout = %q", got)
	}

	calls := daemon.Calls()
	last := calls[len(calls)-1]
	if last.Method != walletd.MethodAccountBalances || !strings.Contains(string(last.Params), `"Name":"bob"`) {
		t.Errorf("last call = %s %s", last.Method, last.Params)
	}
}
