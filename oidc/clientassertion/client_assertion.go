// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-uuid"
)

// JWTTypeParam is the proper value for client_assertion_type.
// https://www.rfc-editor.org/rfc/rfc7523.html#section-2.2
const JWTTypeParam = oidc.ClientAssertionType

// DefaultExpiry is how long a serialized assertion is valid for.
const DefaultExpiry = 5 * time.Minute

// JWT is used to create a client assertion JWT, a special JWT used by an OAuth
// 2.0 or OIDC client to authenticate themselves to an authorization server
type JWT struct {
	clientID string
	audience []string
	headers  map[string]string

	alg jose.SignatureAlgorithm
	// key may be any key type that jose.SigningKey accepts for its Key
	key any
	// secret may be used instead of key
	secret string

	// these are overwritten for testing
	genID func() (string, error)
	now   func() time.Time
}

var _ oidc.JWTSerializer = (*JWT)(nil)

// NewJWT creates a new JWT which will be signed with either a private key or
// client secret.  The audience is typically the provider's issuer or token
// endpoint.
//
// Supported Options: WithClientSecret, WithRSAKey, WithECDSAKey, WithKeyID,
// WithHeaders
//
// Exactly one of WithClientSecret, WithRSAKey or WithECDSAKey must be used.
func NewJWT(clientID string, audience []string, opt ...Option) (*JWT, error) {
	const op = "NewJWT"
	j := &JWT{
		clientID: clientID,
		audience: audience,
		headers:  make(map[string]string),
		genID:    uuid.GenerateUUID,
		now:      time.Now,
	}

	var result *multierror.Error
	keys := 0
	for _, o := range opt {
		if o == nil {
			continue
		}
		prevKey, prevSecret := j.key, j.secret
		if err := o(j); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if j.key != prevKey || j.secret != prevSecret {
			keys++
		}
	}
	if j.clientID == "" {
		result = multierror.Append(result, ErrMissingClientID)
	}
	if len(j.audience) == 0 {
		result = multierror.Append(result, ErrMissingAudience)
	}
	switch {
	case keys > 1:
		result = multierror.Append(result, ErrBothKeyAndSecret)
	case result == nil && j.key == nil && j.secret == "":
		result = multierror.Append(result, ErrMissingKeyOrSecret)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// make sure Serialize() works; we can't pre-validate everything, and
	// this whole thing is useless if it can't Serialize()
	if _, err := j.Serialize(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return j, nil
}

// Serialize returns a newly signed client assertion JWT which can be used by
// an OAuth 2.0 or OIDC client to authenticate themselves to an authorization
// server.  Every call produces a new "jti".
func (j *JWT) Serialize() (string, error) {
	const op = "JWT.Serialize"
	if j.alg == "" {
		return "", fmt.Errorf("%s: %w", op, ErrMissingAlgorithm)
	}
	signer, err := j.signer()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	id, err := j.genID()
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate token id: %w", op, err)
	}
	token, err := jwt.Signed(signer).Claims(j.claims(id)).Serialize()
	if err != nil {
		return "", fmt.Errorf("%s: failed to serialize token: %w", op, err)
	}
	return token, nil
}

func (j *JWT) signer() (jose.Signer, error) {
	const op = "signer"
	sKey := jose.SigningKey{Algorithm: j.alg, Key: j.key}
	if j.secret != "" {
		sKey.Key = []byte(j.secret)
	}

	sOpts := &jose.SignerOptions{
		ExtraHeaders: make(map[jose.HeaderKey]interface{}, len(j.headers)),
	}
	for k, v := range j.headers {
		sOpts.ExtraHeaders[jose.HeaderKey(k)] = v
	}

	signer, err := jose.NewSigner(sKey, sOpts.WithType("JWT"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrCreatingSigner, err)
	}
	return signer, nil
}

func (j *JWT) claims(id string) *jwt.Claims {
	now := j.now().UTC()
	return &jwt.Claims{
		Issuer:    j.clientID,
		Subject:   j.clientID,
		Audience:  j.audience,
		Expiry:    jwt.NewNumericDate(now.Add(DefaultExpiry)),
		NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Second)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        id,
	}
}
