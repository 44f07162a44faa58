// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/capflow/oidc/internal/strutils"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// ClientAssertionType is the client_assertion_type sent along with a
// private_key_jwt client assertion.
const ClientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// DefaultAuthTimeSkew is the clock skew tolerated when checking an id_token's
// auth_time against a max_age.
const DefaultAuthTimeSkew = 5 * time.Second

// Provider provides integration with a provider using the typical
// 3-legged OIDC authorization code flow.  It implements Client.
type Provider struct {
	config   *Config
	provider *oidc.Provider
	client   *http.Client
	issuer   Issuer
	logger   hclog.Logger

	mu sync.Mutex

	// backgroundCtx is the context used by the provider for background
	// activities like: refreshing JWKs ket sets, refreshing tokens, etc
	backgroundCtx context.Context

	// backgroundCtxCancel is used to cancel any background activities running
	// in spawned go routines.
	backgroundCtxCancel context.CancelFunc
}

var _ Client = (*Provider)(nil)

// NewProvider creates and initializes a Provider for the OIDC authorization
// code flow.  Intializing the the provider, includes making an http request to
// the provider's issuer for discovery.
//
// See Provider.Done() which must be called to release provider resources.
func NewProvider(c *Config) (*Provider, error) {
	const op = "NewProvider"
	if c == nil {
		return nil, fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: provider config is invalid: %w", op, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	// initializing the Provider with it's background ctx/cancel will
	// allow us to use p.Done() to release any resources when returning errors
	// from this function.
	p := &Provider{
		config:              c,
		logger:              c.logger().Named("provider"),
		backgroundCtx:       ctx,
		backgroundCtxCancel: cancel,
	}

	client, err := c.HTTPClient()
	if err != nil {
		p.Done() // release the backgroundCtxCancel resources
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	p.client = client

	provider, err := oidc.NewProvider(HTTPClientContext(p.backgroundCtx, client), c.Issuer) // makes http req to issuer for discovery
	if err != nil {
		p.Done() // release the backgroundCtxCancel resources
		// we don't know what's causing the problem, so we won't classify the
		// error with a Kind
		return nil, fmt.Errorf("%s: unable to create provider: %w", op, err)
	}
	p.provider = provider

	var metadata struct {
		UserInfoEndpoint string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&metadata); err != nil {
		p.Done()
		return nil, fmt.Errorf("%s: unable to read provider metadata: %w", op, err)
	}
	p.issuer = Issuer{
		Identifier:          c.Issuer,
		HasUserInfoEndpoint: metadata.UserInfoEndpoint != "",
	}
	p.logger.Debug("provider discovered", "issuer", c.Issuer, "userinfo", p.issuer.HasUserInfoEndpoint)
	return p, nil
}

// Done with the provider's background resources and must be called for every
// Provider created
func (p *Provider) Done() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backgroundCtxCancel != nil {
		p.backgroundCtxCancel()
		p.backgroundCtxCancel = nil
	}
}

// Issuer returns the provider's discovered issuer metadata.
func (p *Provider) Issuer() Issuer { return p.issuer }

// ResponseTypes returns the registered response types.
func (p *Provider) ResponseTypes() []string { return p.config.ResponseTypes }

// RedirectURIs returns the registered redirect URIs.
func (p *Provider) RedirectURIs() []string { return p.config.RedirectURIs }

// CallbackParams returns the authentication response parameters of a request.
func (p *Provider) CallbackParams(req *http.Request) (url.Values, error) {
	return ParseCallbackParams(req)
}

// AuthorizationURL will generate a URL the caller can use to kick off an OIDC
// authorization code flow with the provider.  The "openid" scope is always
// requested.  A redirect URI must be one of the registered RedirectURIs.
func (p *Provider) AuthorizationURL(params AuthorizationParams) (string, error) {
	const op = "Provider.AuthorizationURL"
	if params.State == "" {
		return "", fmt.Errorf("%s: state is empty: %w", op, ErrInvalidParameter)
	}
	if params.Nonce != "" && params.State == params.Nonce {
		return "", fmt.Errorf("%s: state and nonce cannot be equal: %w", op, ErrInvalidParameter)
	}
	redirectURI, err := p.redirectURI(params.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	responseType := params.ResponseType
	if responseType == "" {
		responseType = "code"
	}

	oauth2Config := p.oauth2Config(redirectURI, p.scopes(params.Scope))
	authCodeOpts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("response_type", responseType),
	}
	if params.Nonce != "" {
		authCodeOpts = append(authCodeOpts, oidc.Nonce(params.Nonce))
	}
	if params.MaxAge != nil {
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("max_age", strconv.Itoa(*params.MaxAge)))
	}
	for k, v := range params.Extra {
		switch k {
		case "state", "nonce", "client_id", "response_type", "redirect_uri":
			return "", fmt.Errorf("%s: extra parameter %q is reserved: %w", op, k, ErrInvalidParameter)
		}
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam(k, v))
	}
	return oauth2Config.AuthCodeURL(params.State, authCodeOpts...), nil
}

// Exchange validates the authentication response params against the checks,
// then requests a token from the oidc token endpoint using the authorization
// code.  The returned TokenSet's id_token has been verified (signature,
// issuer, audiences, expiry, nonce and auth_time).
//
// An error response from the provider (either in params or from the token
// endpoint) is returned as a *ProtocolError.
func (p *Provider) Exchange(ctx context.Context, redirectURI string, params url.Values, checks Checks) (*TokenSet, error) {
	const op = "Provider.Exchange"
	if p.config == nil {
		return nil, fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if code := params.Get("error"); code != "" {
		return nil, &ProtocolError{
			Code:        code,
			Description: params.Get("error_description"),
			URI:         params.Get("error_uri"),
		}
	}
	state := params.Get("state")
	switch {
	case checks.State == "" && state != "":
		return nil, fmt.Errorf("%s: authentication response has a state but none was expected: %w", op, ErrMissingState)
	case checks.State != "" && state == "":
		return nil, fmt.Errorf("%s: state is missing from the authentication response: %w", op, ErrResponseStateInvalid)
	case checks.State != state:
		return nil, fmt.Errorf("%s: authentication state and response state are not equal: %w", op, ErrResponseStateInvalid)
	}
	code := params.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMissingCode, ErrInvalidParameter)
	}
	redirectURI, err := p.redirectURI(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// hybrid flows (response_type "code id_token") return an id_token in the
	// authentication response, which must be valid as well.
	if rawIDToken := params.Get("id_token"); rawIDToken != "" {
		if _, err := p.verifyIDToken(ctx, rawIDToken, checks); err != nil {
			return nil, fmt.Errorf("%s: authentication response id_token: %w", op, err)
		}
	}

	oauth2Config := p.oauth2Config(redirectURI, nil)
	var exchangeOpts []oauth2.AuthCodeOption
	if p.config.ClientAssertion != nil {
		assertion, err := p.config.ClientAssertion.Serialize()
		if err != nil {
			return nil, fmt.Errorf("%s: unable to serialize client assertion: %w", op, err)
		}
		exchangeOpts = append(exchangeOpts,
			oauth2.SetAuthURLParam("client_assertion_type", ClientAssertionType),
			oauth2.SetAuthURLParam("client_assertion", assertion),
		)
	}

	p.logger.Debug("exchanging authorization code", "redirect_uri", redirectURI)
	oauth2Token, err := oauth2Config.Exchange(HTTPClientContext(ctx, p.client), code, exchangeOpts...)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			pErr := &ProtocolError{
				Code:        retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
				URI:         retrieveErr.ErrorURI,
				Wrapped:     retrieveErr,
			}
			if retrieveErr.Response != nil {
				pErr.StatusCode = retrieveErr.Response.StatusCode
			}
			return nil, pErr
		}
		return nil, fmt.Errorf("%s: unable to exchange auth code with provider: %w", op, err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%s: id_token is missing from auth code exchange: %w", op, ErrMissingIDToken)
	}
	claims, err := p.verifyIDToken(ctx, rawIDToken, checks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return newTokenSet(oauth2Token, IDToken(rawIDToken), claims), nil
}

// UserInfo gets the UserInfo claims from the provider using the TokenSet's
// access_token.  The userinfo "sub" must match the id_token "sub".
func (p *Provider) UserInfo(ctx context.Context, t *TokenSet) (UserInfo, error) {
	const op = "Provider.UserInfo"
	if !p.issuer.HasUserInfoEndpoint {
		return nil, fmt.Errorf("%s: %w", op, ErrUserInfoUnsupported)
	}
	if t == nil || t.AccessToken == "" {
		return nil, fmt.Errorf("%s: access_token is empty: %w", op, ErrInvalidParameter)
	}
	p.logger.Debug("requesting user info")
	info, err := p.provider.UserInfo(HTTPClientContext(ctx, p.client), t.StaticTokenSource())
	if err != nil {
		return nil, fmt.Errorf("%s: provider UserInfo request failed: %w: %w", op, ErrUserInfoFailed, err)
	}
	claims := UserInfo{}
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: failed to get UserInfo claims: %w: %w", op, ErrUserInfoFailed, err)
	}
	if sub := t.Subject(); sub != "" && claims.Subject() != sub {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSubject)
	}
	return claims, nil
}

// verifyIDToken will verify the inbound id_token.  It verifies it's been
// signed by the provider, it validates the nonce and auth_time, and performs
// any additional checks depending on the provider's config (audiences, etc).
//
// See: https://openid.net/specs/openid-connect-core-1_0.html#IDTokenValidation
func (p *Provider) verifyIDToken(ctx context.Context, rawIDToken string, checks Checks) (map[string]interface{}, error) {
	const op = "Provider.verifyIDToken"
	algs := make([]string, 0, len(p.config.SupportedSigningAlgs))
	for _, a := range p.config.SupportedSigningAlgs {
		algs = append(algs, string(a))
	}
	verifier := p.provider.Verifier(&oidc.Config{
		ClientID:             p.config.ClientID,
		SupportedSigningAlgs: algs,
	})
	idToken, err := verifier.Verify(HTTPClientContext(ctx, p.client), rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrIDTokenVerifyFailed, err)
	}

	if idToken.Nonce != checks.Nonce {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidNonce)
	}

	if len(p.config.Audiences) > 0 {
		found := false
		for _, v := range p.config.Audiences {
			if strutils.StrListContains(idToken.Audience, v) {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidAudience)
		}
	}

	claims := map[string]interface{}{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: unable to read id_token claims: %w", op, err)
	}

	if checks.MaxAge != nil {
		authTime, ok := claims["auth_time"].(float64)
		if !ok {
			return nil, fmt.Errorf("%s: auth_time claim is missing: %w", op, ErrInvalidAuthTime)
		}
		deadline := time.Unix(int64(authTime), 0).Add(time.Duration(*checks.MaxAge) * time.Second).Add(DefaultAuthTimeSkew)
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%s: too much time has elapsed since the last end-user authentication: %w", op, ErrInvalidAuthTime)
		}
	}
	return claims, nil
}

// redirectURI returns the provided redirect uri, or the first registered one
// when none is provided.  A provided uri must be registered.
func (p *Provider) redirectURI(requested string) (string, error) {
	registered := p.config.RedirectURIs
	switch {
	case requested == "" && len(registered) == 0:
		return "", fmt.Errorf("redirect_uri is empty and none are registered: %w", ErrInvalidParameter)
	case requested == "":
		return registered[0], nil
	case len(registered) > 0 && !strutils.StrListContains(registered, requested):
		return "", fmt.Errorf("redirect_uri %q is not registered: %w", requested, ErrUnauthorizedRedirectURI)
	}
	return requested, nil
}

// scopes returns the scopes to request: the space delimited requested scope,
// else the configured Scopes.  "openid" is always included.
func (p *Provider) scopes(requested string) []string {
	scopes := strings.Fields(requested)
	if len(scopes) == 0 {
		scopes = p.config.Scopes
	}
	scopes = append([]string{oidc.ScopeOpenID}, scopes...)
	return strutils.RemoveDuplicatesStable(scopes, false)
}

func (p *Provider) oauth2Config(redirectURI string, scopes []string) oauth2.Config {
	endpoint := p.provider.Endpoint()
	if p.config.ClientSecret == "" {
		// client assertions are sent in the request body
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
	return oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: string(p.config.ClientSecret),
		RedirectURL:  redirectURI,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}
