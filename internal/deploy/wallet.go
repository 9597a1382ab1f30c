// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package deploy

import (
	"context"
	"time"

	"github.com/tari-tools/tdeploy/internal/walletd"
)

// Wallet opens authenticated sessions on a wallet daemon.
type Wallet interface {
	Login(ctx context.Context) (Session, error)
}

// Session is one authenticated wallet daemon session.
type Session interface {
	AccountBalances(ctx context.Context, req walletd.AccountBalancesRequest) (*walletd.AccountBalancesResponse, error)
	PublishTemplate(ctx context.Context, req walletd.PublishTemplateRequest) (*walletd.PublishTemplateResponse, error)
	WaitTransactionResult(ctx context.Context, req walletd.WaitTransactionResultRequest) (*walletd.WaitTransactionResultResponse, error)
}

// FromClient adapts a walletd.Client to Wallet.
func FromClient(c *walletd.Client) Wallet {
	return clientWallet{client: c}
}

type clientWallet struct {
	client *walletd.Client
}

func (w clientWallet) Login(ctx context.Context) (Session, error) {
	s, err := w.client.Login(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// withSession logs in and runs op with the new session, all under one
// deadline. The session is dropped when op returns.
func withSession[T any](ctx context.Context, w Wallet, timeout time.Duration, op func(context.Context, Session) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var zero T
	session, err := w.Login(ctx)
	if err != nil {
		return zero, err
	}
	return op(ctx, session)
}
