// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidParameter        = errors.New("invalid parameter")
	ErrNilParameter            = errors.New("nil parameter")
	ErrInvalidCACert           = errors.New("invalid CA certificate")
	ErrInvalidIssuer           = errors.New("invalid issuer")
	ErrIDGeneratorFailed       = errors.New("id generation failed")
	ErrMissingState            = errors.New("state is missing")
	ErrResponseStateInvalid    = errors.New("authentication response state is invalid")
	ErrMissingCode             = errors.New("authorization code is missing")
	ErrMissingIDToken          = errors.New("id_token is missing")
	ErrIDTokenVerifyFailed     = errors.New("id_token verification failed")
	ErrInvalidAudience         = errors.New("invalid id_token audiences")
	ErrInvalidNonce            = errors.New("invalid id_token nonce")
	ErrInvalidAuthTime         = errors.New("invalid id_token auth_time")
	ErrUnsupportedAlg          = errors.New("unsupported signing algorithm")
	ErrUnauthorizedRedirectURI = errors.New("unauthorized redirect_uri")
	ErrUserInfoFailed          = errors.New("user info failed")
	ErrUserInfoUnsupported     = errors.New("user info endpoint is not supported by the provider")
	ErrInvalidSubject          = errors.New("user info subject does not match id_token subject")
	ErrNotFound                = errors.New("not found")
)

// Well known oauth2/oidc error codes.  See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
// https://www.rfc-editor.org/rfc/rfc6749#section-5.2
const (
	ErrCodeServerError  = "server_error"
	ErrCodeAccessDenied = "access_denied"
	ErrCodeInvalidGrant = "invalid_grant"

	// invalidCodePrefix is shared by the invalid_request, invalid_client,
	// invalid_grant, invalid_scope and invalid_token codes.
	invalidCodePrefix = "invalid"
)

// ProtocolError is a structured, coded error returned by an identity provider
// either in an authentication error response or in a token/userinfo endpoint
// error response.
type ProtocolError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	URI         string `json:"error_uri,omitempty"`

	// StatusCode is the http status of the provider response, when one
	// exists.
	StatusCode int `json:"-"`

	// Wrapped is the underlying error (for example an *oauth2.RetrieveError)
	Wrapped error `json:"-"`
}

// Error satisfies the error interface
func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	if e.Description == "" {
		return fmt.Sprintf("oidc provider error: %s", e.Code)
	}
	return fmt.Sprintf("oidc provider error: %s (%s)", e.Code, e.Description)
}

// Unwrap returns the wrapped error, if any.
func (e *ProtocolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}

// Recoverable reports whether the error represents an authentication failure
// the end user can retry (access_denied, login_required, etc).  server_error
// and every invalid* code are not recoverable.
func (e *ProtocolError) Recoverable() bool {
	if e == nil || e.Code == "" {
		return false
	}
	return e.Code != ErrCodeServerError && !strings.HasPrefix(e.Code, invalidCodePrefix)
}
