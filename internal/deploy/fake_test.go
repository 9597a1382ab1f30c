// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package deploy

import (
	"context"
	"sync"

	"github.com/tari-tools/tdeploy/internal/walletd"
)

// fakeWallet is an in-memory Wallet recording every call.
type fakeWallet struct {
	mu sync.Mutex

	loginErr    error
	balances    []walletd.BalanceEntry
	balancesErr error
	dryRunFee   *walletd.Amount
	dryRunErr   error
	txID        string
	publishErr  error
	wait        *walletd.WaitTransactionResultResponse
	waitErr     error
	waitBlocks  bool // block until the wait context is done

	logins    int
	calls     []string
	publishes []walletd.PublishTemplateRequest
	balanceQs []walletd.AccountBalancesRequest
	waits     []walletd.WaitTransactionResultRequest
}

func amount(v walletd.Amount) *walletd.Amount { return &v }

// newFakeWallet returns a wallet set up for a successful deployment:
// fee 1000, balance 5000, tx "tx-1" accepted with template "tpl-addr-abc".
func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		balances: []walletd.BalanceEntry{
			{ResourceAddress: walletd.NativeResourceAddress, Balance: 5000},
		},
		dryRunFee: amount(1000),
		txID:      "tx-1",
		wait:      acceptedWith(walletd.SubstateID{Kind: walletd.SubstateKindTemplate, Address: "tpl-addr-abc"}),
	}
}

func acceptedWith(ids ...walletd.SubstateID) *walletd.WaitTransactionResultResponse {
	diff := &walletd.SubstateDiff{}
	for _, id := range ids {
		diff.UpSubstates = append(diff.UpSubstates, walletd.UpSubstate{ID: id})
	}
	return &walletd.WaitTransactionResultResponse{
		Result:   &walletd.FinalizeResult{Result: walletd.TransactionResult{Kind: walletd.ResultAccept, Diff: diff}},
		Status:   "Accepted",
		FinalFee: 900,
	}
}

func (f *fakeWallet) Login(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	f.calls = append(f.calls, "login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &fakeSession{wallet: f}, nil
}

// realPublishes counts non-dry-run publish calls.
func (f *fakeWallet) realPublishes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.publishes {
		if !p.DryRun {
			n++
		}
	}
	return n
}

func (f *fakeWallet) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeSession struct {
	wallet *fakeWallet
}

func (s *fakeSession) AccountBalances(ctx context.Context, req walletd.AccountBalancesRequest) (*walletd.AccountBalancesResponse, error) {
	f := s.wallet
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "balances")
	f.balanceQs = append(f.balanceQs, req)
	if f.balancesErr != nil {
		return nil, f.balancesErr
	}
	return &walletd.AccountBalancesResponse{Balances: f.balances}, nil
}

func (s *fakeSession) PublishTemplate(ctx context.Context, req walletd.PublishTemplateRequest) (*walletd.PublishTemplateResponse, error) {
	f := s.wallet
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes = append(f.publishes, req)
	if req.DryRun {
		f.calls = append(f.calls, "dry-run")
		if f.dryRunErr != nil {
			return nil, f.dryRunErr
		}
		return &walletd.PublishTemplateResponse{DryRunFee: f.dryRunFee}, nil
	}
	f.calls = append(f.calls, "publish")
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	return &walletd.PublishTemplateResponse{TransactionID: f.txID}, nil
}

func (s *fakeSession) WaitTransactionResult(ctx context.Context, req walletd.WaitTransactionResultRequest) (*walletd.WaitTransactionResultResponse, error) {
	f := s.wallet
	f.mu.Lock()
	f.calls = append(f.calls, "wait")
	f.waits = append(f.waits, req)
	blocks, resp, err := f.waitBlocks, f.wait, f.waitErr
	f.mu.Unlock()

	if blocks {
		<-ctx.Done()
		return nil, &walletd.TransportError{Method: walletd.MethodWaitTransactionResult, Err: ctx.Err()}
	}
	return resp, err
}
