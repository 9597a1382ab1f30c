// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/tari-tools/tdeploy/internal/template"
	"github.com/tari-tools/tdeploy/internal/walletd"
)

// Deploy validates tpl, publishes it with maxFee paid by account and waits
// once for finality. Only a fully accepted transaction that created a
// template yields a result.
//
// After the publish call has been sent there is no rollback: any later
// error describes what the network did, not something Deploy can undo.
func (d *Deployer) Deploy(ctx context.Context, account walletd.Account, tpl template.Template, maxFee walletd.Amount) (*PublishResult, error) {
	validated, err := template.Load(tpl)
	if err != nil {
		return nil, atStage(StageValidate, err)
	}
	if maxFee <= 0 {
		return nil, atStage(StagePublish, fmt.Errorf("max fee must be positive, got %d", maxFee))
	}

	session, txID, err := d.publish(ctx, account, validated, maxFee)
	if err != nil {
		return nil, atStage(StagePublish, err)
	}
	d.logger.Debug("template publish submitted", "tx_id", txID, "hash", validated.Hash.String(), "max_fee", maxFee)

	resp, err := d.waitResult(ctx, session, txID)
	if err != nil {
		return nil, atStage(StageWaitForResult, err)
	}

	outcome, err := OutcomeOf(resp)
	if err != nil {
		return nil, atStage(StageWaitForResult, err)
	}

	var diff *walletd.SubstateDiff
	switch o := outcome.(type) {
	case TimedOut:
		return nil, atStage(StageWaitForResult, &WaitTimeoutError{TxID: txID})
	case Rejected:
		return nil, atStage(StageWaitForResult, &InvalidTransactionError{
			TxID: txID, Status: resp.Status, Kind: walletd.ResultReject, Reason: o.Reason,
		})
	case PartiallyAccepted:
		return nil, atStage(StageWaitForResult, &InvalidTransactionError{
			TxID: txID, Status: resp.Status, Kind: walletd.ResultAcceptFeeRejectRest, Reason: o.Reason,
		})
	case Accepted:
		diff = o.Diff
	}

	address, err := ExtractTemplateAddress(diff)
	if err != nil {
		return nil, atStage(StageExtractAddress, err)
	}

	d.logger.Debug("template published", "tx_id", txID, "address", address, "final_fee", resp.FinalFee)
	return &PublishResult{
		Address:       address,
		TransactionID: txID,
		FinalFee:      resp.FinalFee,
		TemplateHash:  validated.Hash,
	}, nil
}

// publish logs in and submits the real publish transaction. The session is
// returned so the wait belongs to the same logical operation.
func (d *Deployer) publish(ctx context.Context, account walletd.Account, tpl *template.Validated, maxFee walletd.Amount) (Session, string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	session, err := d.wallet.Login(ctx)
	if err != nil {
		return nil, "", err
	}

	resp, err := session.PublishTemplate(ctx, walletd.PublishTemplateRequest{
		Binary:       tpl.Binary,
		FeeAccount:   &account,
		MaxFee:       maxFee,
		DetectInputs: true,
		DryRun:       false,
	})
	if err != nil {
		if walletd.IsTransport(err) {
			// the daemon may have accepted the request
			return nil, "", fmt.Errorf("%w: %w", ErrSubmitUnconfirmed, err)
		}
		return nil, "", err
	}
	if resp.TransactionID == "" {
		return nil, "", fmt.Errorf("%w: publish returned no transaction id", ErrInvalidResponse)
	}
	return session, resp.TransactionID, nil
}

// waitResult issues the single wait call. The daemon is asked to wait
// waitTimeout; the local deadline adds waitGrace, and hitting it counts as a
// timeout rather than a transport failure.
func (d *Deployer) waitResult(ctx context.Context, session Session, txID string) (*walletd.WaitTransactionResultResponse, error) {
	waitCtx, cancel := context.WithTimeout(ctx, d.waitTimeout+d.waitGrace)
	defer cancel()

	secs := d.waitTimeoutSecs()
	resp, err := session.WaitTransactionResult(waitCtx, walletd.WaitTransactionResultRequest{
		TransactionID: txID,
		TimeoutSecs:   &secs,
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return &walletd.WaitTransactionResultResponse{TimedOut: true}, nil
		}
		return nil, err
	}
	return resp, nil
}

// ExtractTemplateAddress returns the address of the first created substate
// of template kind, in the order the daemon listed them.
func ExtractTemplateAddress(diff *walletd.SubstateDiff) (string, error) {
	if diff == nil {
		return "", ErrMissingPublishedTemplate
	}
	for _, up := range diff.UpSubstates {
		if up.ID.Kind == walletd.SubstateKindTemplate && up.ID.Address != "" {
			return up.ID.Address, nil
		}
	}
	return "", ErrMissingPublishedTemplate
}
