// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

// Package sshtunnel forwards a local port to a wallet daemon that is only
// reachable from a remote host.
package sshtunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/tari-tools/tdeploy/internal/util"
)

// DialTimeout bounds the TCP connect and SSH handshake.
const DialTimeout = 30 * time.Second

// Config describes one tunnel.
type Config struct {
	Host           string // SSH server
	Port           int    // SSH port, 22 if zero
	User           string
	IdentityFile   string // private key; SSH agent is used when empty
	KnownHostsPath string // required; unknown hosts are rejected
	RemoteAddr     string // host:port dialed from the SSH server
	Logger         *slog.Logger
}

// Tunnel is an open SSH connection with a local listener forwarding to
// Config.RemoteAddr.
type Tunnel struct {
	sshClient  *ssh.Client
	listener   net.Listener
	agentConn  net.Conn
	remoteAddr string
	logger     *slog.Logger

	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

// Open connects to the SSH server and starts forwarding. ctx bounds only
// the connection setup; the tunnel lives until Close.
func Open(ctx context.Context, cfg Config) (*Tunnel, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ssh host is required")
	}
	if cfg.RemoteAddr == "" {
		return nil, fmt.Errorf("remote address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = util.DefaultSSHPort
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	hostKeyCallback, err := hostKeyCallback(cfg.KnownHostsPath)
	if err != nil {
		return nil, err
	}

	authMethod, agentConn, err := authMethod(cfg.IdentityFile)
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: hostKeyCallback,
		Timeout:         DialTimeout,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	sshClient, err := dialWithContext(ctx, addr, config)
	if err != nil {
		if agentConn != nil {
			_ = agentConn.Close()
		}
		return nil, fmt.Errorf("SSH connection to %s failed: %w", addr, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = sshClient.Close()
		if agentConn != nil {
			_ = agentConn.Close()
		}
		return nil, fmt.Errorf("failed to listen on local port: %w", err)
	}

	t := &Tunnel{
		sshClient:  sshClient,
		listener:   listener,
		agentConn:  agentConn,
		remoteAddr: cfg.RemoteAddr,
		logger:     logger,
	}
	t.wg.Add(1)
	go t.acceptConnections()

	logger.Debug("ssh tunnel open", "ssh", addr, "local", listener.Addr().String(), "remote", cfg.RemoteAddr)
	return t, nil
}

// LocalAddr returns the address of the local listener.
func (t *Tunnel) LocalAddr() string {
	return t.listener.Addr().String()
}

// Endpoint rewrites the host of rawURL to the local end of the tunnel,
// keeping scheme, path and query.
func (t *Tunnel) Endpoint(rawURL string) (string, error) {
	return rewriteHost(rawURL, t.LocalAddr())
}

func rewriteHost(rawURL, hostPort string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	u.Host = hostPort
	return u.String(), nil
}

// RemoteAddrFor returns the host:port a wallet daemon URL points at, with
// the scheme's default port filled in.
func RemoteAddrFor(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

func (t *Tunnel) acceptConnections() {
	defer t.wg.Done()
	for {
		localConn, err := t.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				t.logger.Debug("ssh tunnel accept failed", "error", err)
			}
			return
		}
		t.wg.Add(1)
		go t.handleConnection(localConn)
	}
}

// handleConnection forwards a single local connection through the SSH tunnel
func (t *Tunnel) handleConnection(localConn net.Conn) {
	defer t.wg.Done()
	defer func() { _ = localConn.Close() }()

	remoteConn, err := t.sshClient.Dial("tcp", t.remoteAddr)
	if err != nil {
		t.logger.Warn("ssh tunnel could not reach remote address", "remote", t.remoteAddr, "error", err)
		return
	}
	defer func() { _ = remoteConn.Close() }()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(remoteConn, localConn)
		closeWrite(remoteConn)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(localConn, remoteConn)
		// the remote side is done; unblock the local reader
		_ = localConn.Close()
	}()
	wg.Wait()
}

func closeWrite(c net.Conn) {
	if cw, ok := c.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
}

// Close stops the listener and the SSH connection, then waits for active
// forwards to finish. It is safe to call more than once.
func (t *Tunnel) Close() error {
	t.closeOnce.Do(func() {
		var errs []error
		if err := t.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("failed to close listener: %w", err))
		}
		if err := t.sshClient.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("failed to close SSH client: %w", err))
		}
		if t.agentConn != nil {
			if err := t.agentConn.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close SSH agent connection: %w", err))
			}
		}
		t.wg.Wait()
		t.closeErr = errors.Join(errs...)
	})
	return t.closeErr
}

func authMethod(identityFile string) (ssh.AuthMethod, net.Conn, error) {
	if identityFile == "" {
		return agentAuthMethod()
	}

	identityPath := util.ExpandPath(identityFile)
	keyData, err := os.ReadFile(identityPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read SSH identity file %s: %w", identityPath, err)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, nil, fmt.Errorf("SSH identity file %s is encrypted; use ssh-agent or an unencrypted key", identityPath)
		}
		return nil, nil, fmt.Errorf("failed to parse SSH identity file %s: %w", identityPath, err)
	}
	return ssh.PublicKeys(signer), nil, nil
}

func agentAuthMethod() (ssh.AuthMethod, net.Conn, error) {
	agentSock := os.Getenv("SSH_AUTH_SOCK")
	if agentSock == "" {
		return nil, nil, fmt.Errorf("no SSH identity file configured and SSH_AUTH_SOCK is not set")
	}

	conn, err := net.Dial("unix", agentSock)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to SSH agent: %w", err)
	}

	agentClient := agent.NewClient(conn)
	return ssh.PublicKeysCallback(agentClient.Signers), conn, nil
}

// hostKeyCallback accepts only hosts already present in knownHostsPath.
func hostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		return nil, fmt.Errorf("known_hosts path is empty")
	}
	knownHostsPath = util.ExpandPath(knownHostsPath)

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts %s: %w", knownHostsPath, err)
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) {
			if len(keyErr.Want) > 0 {
				return fmt.Errorf("SSH host key mismatch for %s (possible MITM attack)", hostname)
			}
			return fmt.Errorf("unknown SSH host %s (key %s); add it to %s",
				hostname, ssh.FingerprintSHA256(key), knownHostsPath)
		}
		return err
	}, nil
}

// dialWithContext connects to the SSH server; ctx bounds the dial and the
// handshake but not the lifetime of the connection.
func dialWithContext(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}
