// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package deploy

// Fee estimation and balance guard

import (
	"context"
	"fmt"

	"github.com/tari-tools/tdeploy/internal/template"
	"github.com/tari-tools/tdeploy/internal/walletd"
)

// EstimateFee dry-runs the publish of tpl and returns the fee the network
// would charge.
func (d *Deployer) EstimateFee(ctx context.Context, tpl *template.Validated, account walletd.Account) (walletd.Amount, error) {
	fee, err := withSession(ctx, d.wallet, d.callTimeout, func(ctx context.Context, s Session) (walletd.Amount, error) {
		resp, err := s.PublishTemplate(ctx, walletd.PublishTemplateRequest{
			Binary:       tpl.Binary,
			FeeAccount:   &account,
			MaxFee:       d.dryRunMaxFee,
			DetectInputs: true,
			DryRun:       true,
		})
		if err != nil {
			return 0, err
		}
		if resp.DryRunFee == nil {
			return 0, fmt.Errorf("%w: dry run returned no fee", ErrInvalidResponse)
		}
		return *resp.DryRunFee, nil
	})
	if err != nil {
		return 0, atStage(StageEstimateFee, err)
	}

	d.logger.Debug("estimated publish fee", "account", account.String(), "fee", fee, "size", tpl.Size())
	return fee, nil
}

// Balance returns the account's last-known native balance. It does not ask
// the wallet daemon to resync.
func (d *Deployer) Balance(ctx context.Context, account walletd.Account) (walletd.Amount, error) {
	balance, err := withSession(ctx, d.wallet, d.callTimeout, func(ctx context.Context, s Session) (walletd.Amount, error) {
		resp, err := s.AccountBalances(ctx, walletd.AccountBalancesRequest{
			Account: &account,
			Refresh: false,
		})
		if err != nil {
			return 0, err
		}
		return resp.BalanceOf(d.nativeResource), nil
	})
	if err != nil {
		return 0, atStage(StageCheckBalance, err)
	}
	return balance, nil
}

// GuardBalance fails with *InsufficientBalanceError when fee exceeds the
// account's native balance. An equal balance passes. The network checks
// again at submission, so passing does not guarantee the publish succeeds.
func (d *Deployer) GuardBalance(ctx context.Context, account walletd.Account, fee walletd.Amount) (walletd.Amount, error) {
	balance, err := d.Balance(ctx, account)
	if err != nil {
		return 0, err
	}
	if fee > balance {
		return balance, atStage(StageCheckBalance, &InsufficientBalanceError{Current: balance, Required: fee})
	}

	d.logger.Debug("balance check passed", "account", account.String(), "balance", balance, "fee", fee)
	return balance, nil
}

// CheckBalance estimates the publish fee of tpl and guards it against the
// account's balance.
func (d *Deployer) CheckBalance(ctx context.Context, account walletd.Account, tpl *template.Validated) (*CheckBalanceResult, error) {
	fee, err := d.EstimateFee(ctx, tpl, account)
	if err != nil {
		return nil, err
	}

	balance, err := d.GuardBalance(ctx, account, fee)
	if err != nil {
		return nil, err
	}

	return &CheckBalanceResult{
		Fee:        fee,
		Balance:    balance,
		BinarySize: tpl.Size(),
	}, nil
}
