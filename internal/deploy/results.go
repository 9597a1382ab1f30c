// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package deploy

import (
	"github.com/tari-tools/tdeploy/internal/template"
	"github.com/tari-tools/tdeploy/internal/walletd"
)

// CheckBalanceResult holds the outcome of a successful pre-publish check
type CheckBalanceResult struct {
	Fee        walletd.Amount // estimated by dry run
	Balance    walletd.Amount // native balance at check time
	BinarySize int
}

// LargeBinary reports whether the binary exceeds LargeBinarySize.
func (r CheckBalanceResult) LargeBinary() bool {
	return r.BinarySize > LargeBinarySize
}

// PublishResult holds the outcome of a successful publish
type PublishResult struct {
	Address       string
	TransactionID string
	FinalFee      walletd.Amount
	TemplateHash  template.Hash
}

// DeployResult holds the outcome of a full pipeline run
type DeployResult struct {
	Address       string
	TransactionID string
	Fee           walletd.Amount // estimated fee
	FinalFee      walletd.Amount // fee reported at finalization
	TemplateHash  template.Hash
	BinarySize    int
}

// Outcome is the terminal state of a published transaction: Accepted,
// PartiallyAccepted, Rejected or TimedOut.
type Outcome interface {
	isOutcome()
}

// Accepted means every instruction succeeded.
type Accepted struct {
	Diff *walletd.SubstateDiff
}

// PartiallyAccepted means the fee was taken but the rest was rejected.
type PartiallyAccepted struct {
	Diff   *walletd.SubstateDiff
	Reason walletd.RejectReason
}

// Rejected means the transaction was rejected outright.
type Rejected struct {
	Reason walletd.RejectReason
}

// TimedOut means finality was not observed within the wait.
type TimedOut struct{}

func (Accepted) isOutcome()          {}
func (PartiallyAccepted) isOutcome() {}
func (Rejected) isOutcome()          {}
func (TimedOut) isOutcome()          {}

// OutcomeOf classifies a wait response. A finalized response without a
// result payload is ErrMissingTransactionResult.
func OutcomeOf(resp *walletd.WaitTransactionResultResponse) (Outcome, error) {
	if resp == nil {
		return nil, ErrMissingTransactionResult
	}
	if resp.TimedOut {
		return TimedOut{}, nil
	}
	if resp.Result == nil {
		return nil, ErrMissingTransactionResult
	}

	result := resp.Result.Result
	switch result.Kind {
	case walletd.ResultAccept:
		return Accepted{Diff: result.Diff}, nil
	case walletd.ResultAcceptFeeRejectRest:
		return PartiallyAccepted{Diff: result.Diff, Reason: result.Reason}, nil
	case walletd.ResultReject:
		return Rejected{Reason: result.Reason}, nil
	default:
		return nil, ErrMissingTransactionResult
	}
}
