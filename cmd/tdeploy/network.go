// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/tari-tools/tdeploy/internal/deploy"
	"github.com/tari-tools/tdeploy/internal/sshtunnel"
	"github.com/tari-tools/tdeploy/internal/util"
	"github.com/tari-tools/tdeploy/internal/walletd"
)

// Network names accepted by --network. "custom" selects a config entry
// named by --custom-network.
const (
	NetworkLocal   = "local"
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"
	NetworkCustom  = "custom"
)

var knownNetworks = []string{NetworkLocal, NetworkTestnet, NetworkMainnet, NetworkCustom}

// resolveNetwork picks the config entry for the --network/--custom-network
// pair. An empty network falls back to the config default.
func resolveNetwork(cfg *util.Config, network, custom string) (string, *util.NetworkConfig, error) {
	if network == "" {
		network = cfg.Network
	}
	name := network
	switch {
	case network == NetworkCustom:
		if custom == "" {
			return "", nil, fmt.Errorf("--custom-network is required with --network custom")
		}
		name = custom
	case slices.Contains(knownNetworks, network):
		if custom != "" {
			return "", nil, fmt.Errorf("--custom-network is only valid with --network custom")
		}
	default:
		// the config default may name a custom entry directly
		if _, ok := cfg.Networks[network]; !ok {
			return "", nil, fmt.Errorf("unknown network %q (expected one of: %s)", network, strings.Join(knownNetworks, ", "))
		}
	}

	netCfg, err := cfg.GetNetwork(name)
	if err != nil {
		return "", nil, err
	}
	return name, netCfg, nil
}

// resolveAccount returns the --account value or the configured default.
func resolveAccount(cfg *util.Config, flagValue string) (walletd.Account, error) {
	value := flagValue
	if value == "" {
		value = cfg.DefaultAccount
	}
	account := walletd.ParseAccount(value)
	if account.IsZero() {
		return walletd.Account{}, fmt.Errorf("no fee account given: use --account or set default_account in %s", util.ConfigFileName)
	}
	return account, nil
}

// connection is a wallet daemon client plus the tunnel it runs over, if any.
type connection struct {
	client *walletd.Client
	tunnel *sshtunnel.Tunnel
}

func (c *connection) Close() error {
	if c.tunnel == nil {
		return nil
	}
	return c.tunnel.Close()
}

// connect opens the SSH tunnel when the network has one and returns a client
// for the wallet daemon.
func connect(ctx context.Context, netCfg *util.NetworkConfig) (*connection, error) {
	endpoint := netCfg.WalletDaemonAddress
	if netCfg.SSH == nil {
		util.Debug("connecting to wallet daemon", "endpoint", endpoint)
		return &connection{client: walletd.NewClient(endpoint, walletd.WithLogger(util.Logger))}, nil
	}

	remote, err := sshtunnel.RemoteAddrFor(endpoint)
	if err != nil {
		return nil, err
	}
	identity := netCfg.SSH.IdentityFile
	if _, err := os.Stat(identity); err != nil {
		util.Debug("ssh identity file not readable, using ssh-agent", "path", identity)
		identity = ""
	}

	tunnel, err := sshtunnel.Open(ctx, sshtunnel.Config{
		Host:           netCfg.SSH.Host,
		Port:           netCfg.SSH.Port,
		User:           netCfg.SSH.User,
		IdentityFile:   identity,
		KnownHostsPath: netCfg.SSH.KnownHostsPath,
		RemoteAddr:     remote,
		Logger:         util.Logger,
	})
	if err != nil {
		return nil, err
	}
	local, err := tunnel.Endpoint(endpoint)
	if err != nil {
		_ = tunnel.Close()
		return nil, err
	}
	util.Debug("connecting to wallet daemon through ssh tunnel", "endpoint", endpoint, "local", local)
	return &connection{
		client: walletd.NewClient(local, walletd.WithLogger(util.Logger)),
		tunnel: tunnel,
	}, nil
}

func newDeployer(conn *connection, waitTimeout time.Duration) (*deploy.Deployer, error) {
	return deploy.New(deploy.FromClient(conn.client),
		deploy.WithLogger(util.Logger),
		deploy.WithWaitTimeout(waitTimeout),
	)
}
