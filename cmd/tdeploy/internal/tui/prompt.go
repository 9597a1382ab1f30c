// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// ErrInterrupted is returned when the user presses Ctrl+C or Ctrl+D at a prompt.
var ErrInterrupted = errors.New("interrupted")

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func readLine(prompt, def string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
		Stdout:          os.Stderr,
	})
	if err != nil {
		return "", fmt.Errorf("failed to open prompt: %w", err)
	}
	defer func() {
		_ = rl.Close()
	}()

	line, err := rl.ReadlineWithDefault(def)
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", ErrInterrupted
		}
		return "", err
	}
	return line, nil
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func Confirm(question string) (bool, error) {
	line, err := readLine(question+" [y/N]: ", "")
	if err != nil {
		return false, err
	}
	return parseYesNo(line), nil
}

// PromptAmount asks for a positive amount, pre-filled with def, and asks
// again until the answer parses.
func PromptAmount(question string, def int64) (int64, error) {
	for {
		line, err := readLine(question+": ", strconv.FormatInt(def, 10))
		if err != nil {
			return 0, err
		}
		amount, err := parseAmount(line, def)
		if err == nil {
			return amount, nil
		}
		fmt.Fprintln(os.Stderr, Error(err.Error()))
	}
}

func parseYesNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

// parseAmount parses a positive integer amount with an optional XTR unit.
// Empty input selects def.
func parseAmount(s string, def int64) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "XTR"), "xtr"))
	s = strings.ReplaceAll(s, "_", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return n, nil
}
