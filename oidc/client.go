// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Client is the capability a relying party needs from an OIDC provider
// integration.  Provider is the default implementation.
type Client interface {
	// Issuer returns the provider's static issuer metadata.
	Issuer() Issuer

	// ResponseTypes returns the client's registered response types, in order.
	ResponseTypes() []string

	// RedirectURIs returns the client's registered redirect URIs, in order.
	RedirectURIs() []string

	// AuthorizationURL builds the provider URL the user agent is redirected
	// to for an authentication request.
	AuthorizationURL(p AuthorizationParams) (string, error)

	// CallbackParams extracts the authentication response parameters from a
	// request.  An empty result means the request is not a callback.
	CallbackParams(req *http.Request) (url.Values, error)

	// Exchange validates the authentication response params against the
	// checks and exchanges the authorization code for a TokenSet.  Provider
	// rejections are returned as a *ProtocolError.
	Exchange(ctx context.Context, redirectURI string, params url.Values, checks Checks) (*TokenSet, error)

	// UserInfo fetches the subject's claims using the TokenSet's
	// access_token.
	UserInfo(ctx context.Context, t *TokenSet) (UserInfo, error)
}

// Issuer is the static metadata of the provider.
type Issuer struct {
	// Identifier is the issuer URL, ie: https://idp.example.com
	Identifier string

	// HasUserInfoEndpoint is true when the provider supports userinfo requests.
	HasUserInfoEndpoint bool
}

// Hostname returns the host (without port) of the issuer identifier.
func (i Issuer) Hostname() (string, error) {
	const op = "Issuer.Hostname"
	if i.Identifier == "" {
		return "", fmt.Errorf("%s: issuer identifier is empty: %w", op, ErrInvalidIssuer)
	}
	u, err := url.Parse(i.Identifier)
	if err != nil {
		return "", fmt.Errorf("%s: issuer %q is not a url: %w: %w", op, i.Identifier, ErrInvalidIssuer, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%s: issuer %q has no host: %w", op, i.Identifier, ErrInvalidIssuer)
	}
	return u.Hostname(), nil
}

// AuthorizationParams are the parameters of one authentication request.
type AuthorizationParams struct {
	ResponseType string
	RedirectURI  string
	Scope        string
	State        string

	// Nonce is only sent when the ResponseType includes an id_token.
	Nonce string

	// MaxAge is the allowable elapsed time in seconds since the user last
	// authenticated.  Nil means no max_age is requested.
	MaxAge *int

	// Extra are additional authentication request parameters, for example:
	// prompt, login_hint, ui_locales, acr_values.
	Extra map[string]string
}

// Checks are the values an authentication response is validated against.
// Any field may be empty.
type Checks struct {
	State  string
	Nonce  string
	MaxAge *int
}

// ResponseTypeIncludesIDToken reports whether the space delimited
// response_type requests an id_token from the authorization endpoint.
func ResponseTypeIncludesIDToken(responseType string) bool {
	for _, rt := range strings.Fields(responseType) {
		if rt == "id_token" {
			return true
		}
	}
	return false
}

// ParseCallbackParams returns the authentication response parameters of a
// request: the form body for POST (response_mode=form_post), otherwise the
// query string.
func ParseCallbackParams(req *http.Request) (url.Values, error) {
	const op = "oidc.ParseCallbackParams"
	if req == nil {
		return nil, fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	}
	if req.Method == http.MethodPost {
		if err := req.ParseForm(); err != nil {
			return nil, fmt.Errorf("%s: unable to parse form: %w", op, err)
		}
		return req.PostForm, nil
	}
	if req.URL == nil {
		return url.Values{}, nil
	}
	return req.URL.Query(), nil
}
