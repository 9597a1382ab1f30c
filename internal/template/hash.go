// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package template

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Hash is the blake2b-256 digest of a template binary.
type Hash [32]byte

// HashBinary hashes raw template bytes.
func HashBinary(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash parses the lowercase hex form produced by Hash.String.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHash, len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}
