// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// doneMsg tells the spinner the work finished.
type doneMsg struct{}

type spinnerModel struct {
	spinner     spinner.Model
	title       string
	done        bool
	interrupted bool
}

func newSpinnerModel(title string) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		title:   title,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done || m.interrupted {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// WithSpinner runs fn while a spinner titled title animates on out. When
// enabled is false fn runs directly. Ctrl+C cancels the context passed to fn;
// WithSpinner always waits for fn to return.
func WithSpinner[T any](ctx context.Context, out io.Writer, enabled bool, title string, fn func(context.Context) (T, error)) (T, error) {
	if !enabled {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	results := make(chan result, 1)

	p := tea.NewProgram(newSpinnerModel(title), tea.WithOutput(out))
	go func() {
		v, err := fn(ctx)
		results <- result{v, err}
		p.Send(doneMsg{})
	}()

	// a failed Run only loses the animation; fn keeps going
	final, _ := p.Run()
	if m, ok := final.(spinnerModel); ok && m.interrupted {
		cancel()
	}
	r := <-results
	return r.v, r.err
}
