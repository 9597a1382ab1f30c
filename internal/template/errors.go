// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package template

import "errors"

var (
	// ErrInvalidTemplate indicates the binary is not a valid template module
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidHash indicates a malformed template hash string
	ErrInvalidHash = errors.New("invalid template hash")
)
