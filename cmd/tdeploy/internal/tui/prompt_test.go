// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package tui

import (
	"strings"
	"testing"
)

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y", true},
		{"Y", true},
		{" yes ", true},
		{"YES", true},
		{"", false},
		{"n", false},
		{"no", false},
		{"yep", false},
	}
	for _, tt := range tests {
		if got := parseYesNo(tt.in); got != tt.want {
			t.Errorf("parseYesNo(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 1500, false},
		{"   ", 1500, false},
		{"2000", 2000, false},
		{" 2000 XTR", 2000, false},
		{"1_000_000", 1000000, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
		{"1.5", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in, 1500)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAmount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	out := Summary(Row{"Fee", "1000 XTR"}, Row{"Account balance", "5000 XTR"})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "Fee:") || !strings.Contains(lines[0], "1000 XTR") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Account balance:") || !strings.Contains(lines[1], "5000 XTR") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestSpinnerModel(t *testing.T) {
	m := newSpinnerModel("Publishing")
	if !strings.Contains(m.View(), "Publishing") {
		t.Errorf("View() = %q, want title", m.View())
	}

	next, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Error("doneMsg should quit")
	}
	if v := next.View(); v != "" {
		t.Errorf("View() after done = %q, want empty", v)
	}
}
