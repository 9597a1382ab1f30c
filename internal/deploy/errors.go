// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package deploy

import (
	"errors"
	"fmt"

	"github.com/tari-tools/tdeploy/internal/walletd"
)

var (
	// ErrInvalidResponse indicates a wallet daemon response missing a required field
	ErrInvalidResponse = errors.New("invalid response from wallet daemon")

	// ErrMissingTransactionResult indicates a finalized transaction without a result payload
	ErrMissingTransactionResult = errors.New("transaction finalized without a result")

	// ErrMissingPublishedTemplate indicates an accepted transaction that created no template
	ErrMissingPublishedTemplate = errors.New("accepted transaction did not create a template")

	// ErrSubmitUnconfirmed indicates the publish request was sent but its response was lost
	ErrSubmitUnconfirmed = errors.New("publish request sent but no response received")

	// ErrWaitTimeout indicates finality was not observed within the wait timeout
	ErrWaitTimeout = errors.New("timed out waiting for transaction result")

	// ErrInvalidTransaction indicates the network rejected (or partially rejected) the transaction
	ErrInvalidTransaction = errors.New("transaction was not accepted")

	// ErrAborted indicates the user declined to continue
	ErrAborted = errors.New("deployment aborted")
)

// InsufficientBalanceError is returned by the balance guard when the fee
// exceeds the account's native balance.
type InsufficientBalanceError struct {
	Current  walletd.Amount
	Required walletd.Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: current balance %d, estimated fee %d", e.Current, e.Required)
}

// InvalidTransactionError reports a transaction the network did not fully accept.
type InvalidTransactionError struct {
	TxID   string
	Status string
	Kind   walletd.ResultKind
	Reason walletd.RejectReason
}

func (e *InvalidTransactionError) Error() string {
	status := e.Status
	if status == "" {
		status = string(e.Kind)
	}
	return fmt.Sprintf("transaction %s was not accepted (%s): %s", e.TxID, status, e.Reason)
}

func (e *InvalidTransactionError) Unwrap() error {
	return ErrInvalidTransaction
}

// WaitTimeoutError means the outcome of TxID is unknown: it may still
// finalize after the wait gave up.
type WaitTimeoutError struct {
	TxID string
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for transaction %s (it may still be finalized later)", e.TxID)
}

func (e *WaitTimeoutError) Unwrap() error {
	return ErrWaitTimeout
}

// Stage names a step of the deployment pipeline.
type Stage string

const (
	StageValidate       Stage = "validate"
	StageEstimateFee    Stage = "estimate fee"
	StageCheckBalance   Stage = "check balance"
	StageConfirm        Stage = "confirm"
	StagePublish        Stage = "publish"
	StageWaitForResult  Stage = "wait for result"
	StageExtractAddress Stage = "extract address"
)

// StageError tags an error with the pipeline stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// atStage wraps err unless it already carries a stage.
func atStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage err occurred in, or "" if it carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
