// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

// Package deploy implements the template deployment pipeline: fee estimation,
// balance guard, publish, wait for finality and template address extraction.
// It is independent of any UI; the wallet daemon is reached through Wallet.
package deploy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tari-tools/tdeploy/internal/walletd"
)

const (
	// DefaultWaitTimeout bounds the wait for transaction finality.
	DefaultWaitTimeout = 120 * time.Second

	// DefaultCallTimeout bounds every other wallet daemon call, login included.
	DefaultCallTimeout = 30 * time.Second

	// WaitGrace is added to the wait timeout for the client-side deadline of
	// the wait call, so the daemon normally answers timed_out first.
	WaitGrace = 10 * time.Second

	// DryRunMaxFee is the placeholder max fee sent with dry-run publishes.
	// It only sizes the request; the daemon reports the real fee.
	DryRunMaxFee walletd.Amount = 1_000_000

	// LargeBinarySize is the size above which a template binary gets a warning.
	LargeBinarySize = 2 << 20
)

// Deployer runs deployments against one wallet daemon. It holds only
// immutable configuration, so one Deployer can serve concurrent deployments.
type Deployer struct {
	wallet         Wallet
	logger         *slog.Logger
	waitTimeout    time.Duration
	waitGrace      time.Duration
	callTimeout    time.Duration
	dryRunMaxFee   walletd.Amount
	nativeResource string
}

// DeployerOption is a functional option for configuring the Deployer
type DeployerOption func(*Deployer) error

// New creates a Deployer using w for every wallet daemon interaction.
func New(w Wallet, opts ...DeployerOption) (*Deployer, error) {
	if w == nil {
		return nil, fmt.Errorf("wallet is required")
	}

	d := &Deployer{
		wallet:         w,
		logger:         slog.New(slog.DiscardHandler),
		waitTimeout:    DefaultWaitTimeout,
		waitGrace:      WaitGrace,
		callTimeout:    DefaultCallTimeout,
		dryRunMaxFee:   DryRunMaxFee,
		nativeResource: walletd.NativeResourceAddress,
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) DeployerOption {
	return func(d *Deployer) error {
		if l != nil {
			d.logger = l
		}
		return nil
	}
}

// WithWaitTimeout sets how long the wallet daemon waits for finality.
func WithWaitTimeout(timeout time.Duration) DeployerOption {
	return func(d *Deployer) error {
		if timeout <= 0 {
			return fmt.Errorf("wait timeout must be positive, got %v", timeout)
		}
		d.waitTimeout = timeout
		return nil
	}
}

// WithCallTimeout sets the per-call deadline for non-wait RPCs.
func WithCallTimeout(timeout time.Duration) DeployerOption {
	return func(d *Deployer) error {
		if timeout <= 0 {
			return fmt.Errorf("call timeout must be positive, got %v", timeout)
		}
		d.callTimeout = timeout
		return nil
	}
}

// WithDryRunMaxFee overrides the placeholder max fee of dry runs.
func WithDryRunMaxFee(fee walletd.Amount) DeployerOption {
	return func(d *Deployer) error {
		if fee <= 0 {
			return fmt.Errorf("dry-run max fee must be positive, got %d", fee)
		}
		d.dryRunMaxFee = fee
		return nil
	}
}

// WithNativeResource sets the resource address fees are paid in.
func WithNativeResource(address string) DeployerOption {
	return func(d *Deployer) error {
		if address == "" {
			return fmt.Errorf("native resource address is required")
		}
		d.nativeResource = address
		return nil
	}
}

// WaitTimeout returns the configured finality wait.
func (d *Deployer) WaitTimeout() time.Duration {
	return d.waitTimeout
}

// waitTimeoutSecs is the timeout_secs sent with the wait call, at least 1.
func (d *Deployer) waitTimeoutSecs() uint64 {
	secs := uint64(d.waitTimeout / time.Second)
	if secs == 0 {
		secs = 1
	}
	return secs
}
