// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tari-tools/tdeploy/cmd/tdeploy/internal/tui"
	"github.com/tari-tools/tdeploy/internal/deploy"
	"github.com/tari-tools/tdeploy/internal/project"
	"github.com/tari-tools/tdeploy/internal/template"
	"github.com/tari-tools/tdeploy/internal/util"
	"github.com/tari-tools/tdeploy/internal/walletd"
)

// target is everything a command needs to talk to one wallet daemon.
type target struct {
	network  string
	netCfg   *util.NetworkConfig
	account  walletd.Account
	conn     *connection
	deployer *deploy.Deployer
}

func (t *target) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// resolveTarget reads the network and account flags without touching the network.
func (a *app) resolveTarget(cmd *cli.Command) (*target, error) {
	name, netCfg, err := resolveNetwork(&a.cfg, cmd.String("network"), cmd.String("custom-network"))
	if err != nil {
		return nil, err
	}
	account, err := resolveAccount(&a.cfg, cmd.String("account"))
	if err != nil {
		return nil, err
	}
	return &target{network: name, netCfg: netCfg, account: account}, nil
}

// dial connects t to its wallet daemon.
func (a *app) dial(ctx context.Context, cmd *cli.Command, t *target) error {
	waitTimeout, err := a.cfg.ParsedWaitTimeout()
	if err != nil {
		return err
	}
	if cmd.IsSet("wait-timeout") {
		waitTimeout = cmd.Duration("wait-timeout")
	}

	conn, err := connect(ctx, t.netCfg)
	if err != nil {
		return err
	}
	d, err := newDeployer(conn, waitTimeout)
	if err != nil {
		_ = conn.Close()
		return err
	}
	t.conn = conn
	t.deployer = d
	return nil
}

// loadTemplate resolves the positional argument and validates the binary.
func loadTemplate(cmd *cli.Command) (*project.Resolved, *template.Validated, error) {
	if cmd.NArg() != 1 {
		return nil, nil, fmt.Errorf("expected exactly one template path or project name")
	}
	resolved, err := project.Resolve(cmd.String("project-folder"), cmd.Args().First())
	if err != nil {
		return nil, nil, &deploy.StageError{Stage: deploy.StageValidate, Err: err}
	}
	validated, err := template.Load(resolved.Template())
	if err != nil {
		return nil, nil, &deploy.StageError{Stage: deploy.StageValidate, Err: err}
	}
	util.Debug("template validated", "path", resolved.Path, "name", validated.Module.Name, "hash", validated.Hash.String())
	return resolved, validated, nil
}

func amount(v walletd.Amount) string {
	return util.FormatAmount(int64(v), amountUnit)
}

func (a *app) printTemplate(t *target, resolved *project.Resolved, validated *template.Validated) {
	fmt.Fprintln(a.errOut, tui.Title("Template"))
	fmt.Fprint(a.errOut, tui.Summary(
		tui.Row{Label: "Name", Value: validated.Module.Name},
		tui.Row{Label: "Binary", Value: resolved.Path},
		tui.Row{Label: "Size", Value: util.FormatBytes(validated.Size())},
		tui.Row{Label: "Hash", Value: validated.Hash.String()},
		tui.Row{Label: "Network", Value: t.network},
		tui.Row{Label: "Wallet daemon", Value: t.netCfg.WalletDaemonAddress},
		tui.Row{Label: "Fee account", Value: t.account.String()},
	))
}

func (a *app) printCheck(check *deploy.CheckBalanceResult) {
	fmt.Fprint(a.errOut, tui.Summary(
		tui.Row{Label: "Estimated fee", Value: amount(check.Fee)},
		tui.Row{Label: "Account balance", Value: amount(check.Balance)},
	))
	if check.LargeBinary() {
		fmt.Fprintln(a.errOut, tui.Warning(fmt.Sprintf("template binary is %s; large templates are expensive to publish",
			util.FormatBytes(check.BinarySize))))
	}
}

func (a *app) checkBalance(ctx context.Context, t *target, validated *template.Validated) (*deploy.CheckBalanceResult, error) {
	return tui.WithSpinner(ctx, a.errOut, a.spinner, "Estimating fee", func(ctx context.Context) (*deploy.CheckBalanceResult, error) {
		return t.deployer.CheckBalance(ctx, t.account, validated)
	})
}

// confirmOrAbort asks question and maps a no (or an interrupted prompt) to ErrAborted.
func (a *app) confirmOrAbort(question string) error {
	ok, err := a.confirm(question)
	if err != nil && !errors.Is(err, tui.ErrInterrupted) {
		return &deploy.StageError{Stage: deploy.StageConfirm, Err: err}
	}
	if !ok {
		return &deploy.StageError{Stage: deploy.StageConfirm, Err: deploy.ErrAborted}
	}
	return nil
}

func (a *app) chooseMaxFee(cmd *cli.Command, check *deploy.CheckBalanceResult, yes bool) (walletd.Amount, error) {
	if cmd.IsSet("max-fee") {
		fee := cmd.Int64("max-fee")
		if fee <= 0 {
			return 0, fmt.Errorf("--max-fee must be positive")
		}
		return walletd.Amount(fee), nil
	}
	if yes {
		return check.Fee, nil
	}
	fee, err := a.promptAmount("Max fee", int64(check.Fee))
	if err != nil {
		if errors.Is(err, tui.ErrInterrupted) {
			err = deploy.ErrAborted
		}
		return 0, &deploy.StageError{Stage: deploy.StageConfirm, Err: err}
	}
	return walletd.Amount(fee), nil
}

func (a *app) deployAction(ctx context.Context, cmd *cli.Command) error {
	yes := cmd.Bool("yes")
	if !yes && !a.interactive {
		return fmt.Errorf("confirmation required but stdin is not a terminal; rerun with --yes")
	}

	t, err := a.resolveTarget(cmd)
	if err != nil {
		return err
	}
	resolved, validated, err := loadTemplate(cmd)
	if err != nil {
		return err
	}
	a.printTemplate(t, resolved, validated)

	if !yes {
		if err := a.confirmOrAbort("Deploy this template?"); err != nil {
			return err
		}
	}

	if err := a.dial(ctx, cmd, t); err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	check, err := a.checkBalance(ctx, t, validated)
	if err != nil {
		return err
	}
	a.printCheck(check)

	maxFee, err := a.chooseMaxFee(cmd, check, yes)
	if err != nil {
		return err
	}
	if maxFee < check.Fee {
		fmt.Fprintln(a.errOut, tui.Warning(fmt.Sprintf("max fee %s is below the estimate; the transaction may be rejected", amount(maxFee))))
	}
	if !yes {
		if err := a.confirmOrAbort(fmt.Sprintf("Publish for a fee of up to %s?", amount(maxFee))); err != nil {
			return err
		}
	}

	title := fmt.Sprintf("Publishing and waiting for finality (up to %s)", t.deployer.WaitTimeout().Round(time.Second))
	published, err := tui.WithSpinner(ctx, a.errOut, a.spinner, title, func(ctx context.Context) (*deploy.PublishResult, error) {
		return t.deployer.Deploy(ctx, t.account, template.Binary(validated.Binary), maxFee)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.errOut, tui.Success("Template published"))
	fmt.Fprint(a.errOut, tui.Summary(
		tui.Row{Label: "Transaction", Value: published.TransactionID},
		tui.Row{Label: "Final fee", Value: amount(published.FinalFee)},
	))
	fmt.Fprintf(a.out, "Your new template's address: %s\n", published.Address)
	return nil
}

func (a *app) estimateAction(ctx context.Context, cmd *cli.Command) error {
	t, err := a.resolveTarget(cmd)
	if err != nil {
		return err
	}
	resolved, validated, err := loadTemplate(cmd)
	if err != nil {
		return err
	}
	a.printTemplate(t, resolved, validated)

	if err := a.dial(ctx, cmd, t); err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	check, err := a.checkBalance(ctx, t, validated)
	if err != nil {
		return err
	}
	a.printCheck(check)
	fmt.Fprintf(a.out, "Estimated fee: %s\n", amount(check.Fee))
	return nil
}

func (a *app) balanceAction(ctx context.Context, cmd *cli.Command) error {
	t, err := a.resolveTarget(cmd)
	if err != nil {
		return err
	}
	if err := a.dial(ctx, cmd, t); err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	balance, err := tui.WithSpinner(ctx, a.errOut, a.spinner, "Fetching balance", func(ctx context.Context) (walletd.Amount, error) {
		return t.deployer.Balance(ctx, t.account)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", t.account.String(), amount(balance))
	return nil
}
