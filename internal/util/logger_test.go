// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger_StripsTimeAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	logger.Info("published", "tx_id", "tx-1")
	logger.Debug("hidden")

	out := buf.String()
	if strings.Contains(out, "time=") || strings.Contains(out, "level=") {
		t.Errorf("time/level attributes should be stripped, got %q", out)
	}
	if !strings.Contains(out, "tx_id=tx-1") {
		t.Errorf("expected tx_id attribute, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should not be logged at info level, got %q", out)
	}
}

func TestNewLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, true).Debug("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug message missing, got %q", buf.String())
	}
}
