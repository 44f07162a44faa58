// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// Option configures the JWT
type Option func(*JWT) error

// WithClientSecret sets a secret and algorithm to sign the JWT with
func WithClientSecret(secret string, alg HSAlgorithm) Option {
	const op = "WithClientSecret"
	return func(j *JWT) error {
		if err := alg.Validate(secret); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		j.secret = secret
		j.alg = jose.SignatureAlgorithm(alg)
		return nil
	}
}

// WithRSAKey sets a private key to sign the JWT with
func WithRSAKey(key *rsa.PrivateKey, alg RSAlgorithm) Option {
	const op = "WithRSAKey"
	return func(j *JWT) error {
		if err := alg.Validate(key); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		j.key = key
		j.alg = jose.SignatureAlgorithm(alg)
		return nil
	}
}

// WithECDSAKey sets a private key to sign the JWT with
func WithECDSAKey(key *ecdsa.PrivateKey, alg ESAlgorithm) Option {
	const op = "WithECDSAKey"
	return func(j *JWT) error {
		if err := alg.Validate(key); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		j.key = key
		j.alg = jose.SignatureAlgorithm(alg)
		return nil
	}
}

// WithKeyID sets the "kid" header that OIDC providers use to look up the
// public key to check the signed JWT
func WithKeyID(keyID string) Option {
	return func(j *JWT) error {
		j.headers["kid"] = keyID
		return nil
	}
}

// WithHeaders sets extra JWT headers
func WithHeaders(h map[string]string) Option {
	return func(j *JWT) error {
		for k, v := range h {
			j.headers[k] = v
		}
		return nil
	}
}
