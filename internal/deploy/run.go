// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package deploy

import (
	"context"
	"errors"

	"github.com/tari-tools/tdeploy/internal/template"
	"github.com/tari-tools/tdeploy/internal/walletd"
)

// ApproveFunc is asked to confirm a deployment after the balance check.
// It returns the max fee to publish with, or ErrAborted.
type ApproveFunc func(ctx context.Context, check CheckBalanceResult, maxFee walletd.Amount) (walletd.Amount, error)

// Request describes one deployment.
type Request struct {
	Template template.Template
	Account  walletd.Account

	// MaxFee overrides the estimated fee as the publish max fee when set.
	MaxFee walletd.Amount

	// Approve, when set, is called before anything is published.
	Approve ApproveFunc
}

// Run executes the whole pipeline: validate, estimate and guard the fee,
// approve, publish and wait. Every error carries the stage it occurred in.
func (d *Deployer) Run(ctx context.Context, req Request) (*DeployResult, error) {
	validated, err := template.Load(req.Template)
	if err != nil {
		return nil, atStage(StageValidate, err)
	}

	check, err := d.CheckBalance(ctx, req.Account, validated)
	if err != nil {
		return nil, err
	}
	if check.LargeBinary() {
		d.logger.Warn("template binary is large", "size", check.BinarySize)
	}

	maxFee := check.Fee
	if req.MaxFee > 0 {
		maxFee = req.MaxFee
	}
	if req.Approve != nil {
		maxFee, err = req.Approve(ctx, *check, maxFee)
		if err != nil {
			return nil, atStage(StageConfirm, err)
		}
	}

	published, err := d.Deploy(ctx, req.Account, template.Binary(validated.Binary), maxFee)
	if err != nil {
		return nil, err
	}

	return &DeployResult{
		Address:       published.Address,
		TransactionID: published.TransactionID,
		Fee:           check.Fee,
		FinalFee:      published.FinalFee,
		TemplateHash:  published.TemplateHash,
		BinarySize:    check.BinarySize,
	}, nil
}

// IsIndeterminate reports whether err leaves the deployment outcome unknown:
// the transaction may have been submitted but finality was not observed.
// This covers a wait timeout, a lost publish response and a wait that
// failed in transport, including caller cancellation.
func IsIndeterminate(err error) bool {
	if errors.Is(err, ErrWaitTimeout) || errors.Is(err, ErrSubmitUnconfirmed) {
		return true
	}
	return StageOf(err) == StageWaitForResult && walletd.IsTransport(err)
}
