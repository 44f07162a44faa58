// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

// Package clientassertion signs JWTs with a private key or client secret for
// use in OIDC client_assertion requests, A.K.A. private_key_jwt.
// reference: https://oauth.net/private-key-jwt/
//
// A JWT satisfies oidc.JWTSerializer and is handed to a provider config with
// oidc.WithClientAssertionJWT; a fresh assertion is serialized for every code
// exchange.
package clientassertion
