// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

// Package template loads WASM template binaries and validates that they
// expose the template ABI before anything is sent to a wallet daemon.
package template

import (
	"fmt"
	"os"
)

// Template is a deployable artifact before validation.
// It is either a Path or a Binary; no other implementations exist.
type Template interface {
	isTemplate()
}

// Path is a template read from a file on disk.
type Path string

// Binary is a template supplied as raw bytes.
type Binary []byte

func (Path) isTemplate()   {}
func (Binary) isTemplate() {}

// Validated is a template whose bytes parsed as a WASM module exposing the
// template ABI. It is immutable once returned by Load.
type Validated struct {
	Binary []byte
	Module *ModuleInfo
	Hash   Hash
}

// Size returns the binary size in bytes.
func (v *Validated) Size() int {
	return len(v.Binary)
}

// Load reads t, validates it as a template module and hashes its bytes.
func Load(t Template) (*Validated, error) {
	var data []byte
	switch t := t.(type) {
	case Path:
		b, err := os.ReadFile(string(t))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", string(t), err)
		}
		data = b
	case Binary:
		data = t
	case nil:
		return nil, fmt.Errorf("%w: no template given", ErrInvalidTemplate)
	default:
		return nil, fmt.Errorf("unsupported template type %T", t)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty template binary", ErrInvalidTemplate)
	}

	info, err := inspect(data)
	if err != nil {
		return nil, err
	}

	return &Validated{
		Binary: data,
		Module: info,
		Hash:   HashBinary(data),
	}, nil
}
