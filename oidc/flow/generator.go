// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"github.com/hashicorp/capflow/oidc"
)

// DefaultTokenLength is the length of generated state and nonce values.
const DefaultTokenLength = 43

// TokenGenerator produces the random opaque values used for state and nonce.
type TokenGenerator interface {
	Generate() (string, error)
}

// TokenGeneratorFunc adapts a func to a TokenGenerator.
type TokenGeneratorFunc func() (string, error)

// Generate calls f.
func (f TokenGeneratorFunc) Generate() (string, error) { return f() }

// DefaultTokenGenerator returns base62 values of DefaultTokenLength from
// crypto/rand.
func DefaultTokenGenerator() TokenGenerator {
	return TokenGeneratorFunc(func() (string, error) {
		return oidc.NewID(oidc.WithLength(DefaultTokenLength))
	})
}
