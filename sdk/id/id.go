// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// maxUnbiased is the largest multiple of 62 that fits in a byte; random bytes
// at or above it are discarded so every character is equally likely.
const maxUnbiased = 248

// ErrInvalidLength is returned when the requested id length is not positive.
var ErrInvalidLength = errors.New("invalid id length")

// New generates a random base62 id of length l with an optional prefix.
// When a prefix is provided the id is formatted as "<prefix>_<random>".
func New(optionalPrefix string, l int) (string, error) {
	const op = "id.New"
	if l <= 0 {
		return "", fmt.Errorf("%s: %d: %w", op, l, ErrInvalidLength)
	}
	id, err := random(l)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w", op, err)
	}
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}

func random(l int) (string, error) {
	out := make([]byte, 0, l)
	for len(out) < l {
		buf, err := uuid.GenerateRandomBytes(l * 2)
		if err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= maxUnbiased {
				continue
			}
			out = append(out, base62Alphabet[int(b)%len(base62Alphabet)])
			if len(out) == l {
				break
			}
		}
	}
	return string(out), nil
}
