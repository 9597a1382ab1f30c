// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

// tdeploy publishes compiled WASM templates through a wallet daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/tari-tools/tdeploy/cmd/tdeploy/internal/tui"
	"github.com/tari-tools/tdeploy/internal/deploy"
	"github.com/tari-tools/tdeploy/internal/util"
	"github.com/tari-tools/tdeploy/internal/version"
)

// amountUnit labels fee and balance amounts in output.
const amountUnit = "XTR"

// app carries the I/O and configuration shared by all commands.
type app struct {
	out    io.Writer // results (addresses, amounts)
	errOut io.Writer // progress, summaries, prompts

	interactive bool // prompts are possible
	spinner     bool // animate long stages

	confirm      func(question string) (bool, error)
	promptAmount func(question string, def int64) (int64, error)

	cfg util.Config
}

func newApp() *app {
	return &app{
		out:          os.Stdout,
		errOut:       os.Stderr,
		interactive:  tui.IsInteractive(),
		spinner:      tui.IsTerminal(os.Stderr),
		confirm:      tui.Confirm,
		promptAmount: tui.PromptAmount,
	}
}

func networkFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "network",
			Aliases: []string{"n"},
			Usage:   "network to deploy to: local, testnet, mainnet or custom (default from config)",
		},
		&cli.StringFlag{
			Name:    "custom-network",
			Aliases: []string{"c"},
			Usage:   "name of a network in config.yaml, required with --network custom",
		},
		&cli.StringFlag{
			Name:    "account",
			Aliases: []string{"a"},
			Usage:   "fee account name or component address (default: default_account from config)",
		},
	}
}

func (a *app) command() *cli.Command {
	templateFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "project-folder",
			Usage: "folder used to resolve project names to built binaries",
			Value: ".",
		},
	}

	return &cli.Command{
		Name:                  "tdeploy",
		Usage:                 "Deploy WASM templates through a wallet daemon",
		Version:               version.String(),
		EnableShellCompletion: true,
		Writer:                a.out,
		ErrWriter:             a.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   fmt.Sprintf("data directory holding %s (default: $%s or ~/%s)", util.ConfigFileName, util.DataDirEnvVar, util.DefaultDataDirName),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			util.InitLogger(cmd.Bool("debug"))
			dataDir := util.GetDataDir(cmd.String("data-dir"))
			cfg, err := util.LoadConfig(dataDir)
			if err != nil {
				return ctx, err
			}
			util.Debug("configuration loaded", "data_dir", dataDir, "network", cfg.Network)
			a.cfg = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "deploy",
				Usage:     "Validate, estimate and publish a template, then print its address",
				ArgsUsage: "<template.wasm | project name>",
				Flags: append(append(networkFlags(), templateFlags...),
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "skip confirmations",
					},
					&cli.Int64Flag{
						Name:    "max-fee",
						Aliases: []string{"f"},
						Usage:   "max fee to publish with (default: the estimated fee)",
					},
					&cli.DurationFlag{
						Name:  "wait-timeout",
						Usage: "how long to wait for finality (default: wait_timeout from config)",
					},
				),
				Action: a.deployAction,
			},
			{
				Name:      "estimate",
				Usage:     "Estimate the publish fee and check the account can pay it",
				ArgsUsage: "<template.wasm | project name>",
				Flags:     append(networkFlags(), templateFlags...),
				Action:    a.estimateAction,
			},
			{
				Name:   "balance",
				Usage:  "Show the native balance of the fee account",
				Flags:  networkFlags(),
				Action: a.balanceAction,
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().command().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, tui.Error(err.Error()))
		if deploy.IsIndeterminate(err) {
			fmt.Fprintln(os.Stderr, "The transaction may have been submitted; check its status in the wallet before deploying again.")
		}
		if errors.Is(err, deploy.ErrAborted) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
