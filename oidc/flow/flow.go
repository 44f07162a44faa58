// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/go-hclog"
)

// Flow authenticates requests with a single provider.  A Flow holds no
// per-request state and is safe for concurrent use.
type Flow struct {
	config *Config
	logger hclog.Logger
}

// New creates a Flow from a valid Config.
func New(c *Config) (*Flow, error) {
	const op = "flow.New"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, oidc.ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Flow{
		config: c,
		logger: c.logger.Named("flow").With("issuer", c.name),
	}, nil
}

// Config returns the flow's configuration.
func (f *Flow) Config() *Config { return f.config }

// Authenticate runs one step of the flow for the request.  A request without
// authentication response parameters initiates an authentication and returns
// a Redirect.  Otherwise the authentication is completed and a Success, Fail
// or Error is returned.  The session must be the requesting user's.
//
// Supported options: WithResponseType, WithRedirectURI, WithScope,
// WithNonce, WithMaxAge, WithExtraParams
func (f *Flow) Authenticate(req *http.Request, s SessionStore, opt ...oidc.Option) Result {
	const op = "Flow.Authenticate"
	if req == nil {
		return Error(fmt.Errorf("%s: request is nil: %w", op, oidc.ErrNilParameter))
	}
	params, err := f.config.client.CallbackParams(req)
	if err != nil {
		return Error(fmt.Errorf("%s: unable to read callback parameters: %w: %w", op, ErrUnexpectedFault, err))
	}
	opts := getRequestOpts(opt...)
	if len(params) == 0 {
		return f.initiate(req.Context(), s, opts)
	}
	return f.complete(req.Context(), s, params, opts)
}

func (f *Flow) initiate(ctx context.Context, s SessionStore, opts requestOptions) Result {
	const op = "Flow.initiate"
	if s == nil {
		return Error(fmt.Errorf("%s: %w", op, ErrSessionUnsupported))
	}
	defaults := f.config.params
	p := oidc.AuthorizationParams{
		ResponseType: defaults.ResponseType,
		RedirectURI:  defaults.RedirectURI,
		Scope:        defaults.Scope,
		MaxAge:       defaults.MaxAge,
		Nonce:        opts.withNonce,
		Extra:        opts.withExtra,
	}
	if opts.withResponseType != "" {
		p.ResponseType = opts.withResponseType
	}
	if opts.withRedirectURI != "" {
		p.RedirectURI = opts.withRedirectURI
	}
	if opts.withScope != "" {
		p.Scope = opts.withScope
	}
	if opts.withMaxAge != nil {
		p.MaxAge = opts.withMaxAge
	}

	state, err := f.config.generator.Generate()
	if err != nil {
		return Error(fmt.Errorf("%s: unable to generate state: %w: %w", op, ErrTokenGeneratorFailed, err))
	}
	p.State = state
	if p.Nonce == "" && oidc.ResponseTypeIncludesIDToken(p.ResponseType) {
		if p.Nonce, err = f.config.generator.Generate(); err != nil {
			return Error(fmt.Errorf("%s: unable to generate nonce: %w: %w", op, ErrTokenGeneratorFailed, err))
		}
	}

	ss := SessionState{State: p.State, Nonce: p.Nonce, MaxAge: p.MaxAge}
	if err := s.Set(ctx, f.config.sessionKey, ss); err != nil {
		return Error(fmt.Errorf("%s: unable to store session state: %w", op, err))
	}

	authURL, err := f.config.client.AuthorizationURL(p)
	if err != nil {
		return Error(fmt.Errorf("%s: unable to build authorization url: %w", op, err))
	}
	f.logger.Debug("authentication initiated", "response_type", p.ResponseType, "redirect_uri", p.RedirectURI)
	f.logger.Trace("authentication request", "scope", p.Scope, "nonce", p.Nonce != "", "max_age", p.MaxAge != nil)
	return Redirect(authURL)
}

func (f *Flow) complete(ctx context.Context, s SessionStore, params url.Values, opts requestOptions) (r Result) {
	const op = "Flow.complete"
	defer func() {
		if p := recover(); p != nil {
			r = Error(fmt.Errorf("%s: %w: %v", op, ErrUnexpectedFault, p))
		}
		f.logger.Debug("authentication completed", "outcome", r.Kind)
	}()
	if s == nil {
		return Error(fmt.Errorf("%s: %w", op, ErrSessionUnsupported))
	}

	// the session state is consumed before any request to the provider, so a
	// replayed callback finds no state to check against.
	key := f.config.sessionKey
	stored, err := s.Get(ctx, key)
	if err != nil {
		return Error(fmt.Errorf("%s: unable to read session state: %w", op, err))
	}
	if err := s.Delete(ctx, key); err != nil {
		return Error(fmt.Errorf("%s: unable to remove session state: %w", op, err))
	}
	ss, err := decodeSessionState(stored)
	if err != nil {
		return Error(fmt.Errorf("%s: %w", op, err))
	}
	if stored == nil {
		f.logger.Debug("no session state found for callback")
	}
	checks := oidc.Checks{State: ss.State, Nonce: ss.Nonce, MaxAge: ss.MaxAge}

	redirectURI := f.config.params.RedirectURI
	if opts.withRedirectURI != "" {
		redirectURI = opts.withRedirectURI
	}

	client := f.config.client
	tokens, err := client.Exchange(ctx, redirectURI, params, checks)
	if err != nil {
		f.logger.Debug("code exchange failed", "error", err)
		return Classify(err)
	}

	var (
		user interface{}
		info Info
	)
	switch v := f.config.verifier.(type) {
	case simpleVerifier:
		user, info, err = v.fn(ctx, tokens)
	case userInfoVerifier:
		var claims oidc.UserInfo
		if f.config.issuer.HasUserInfoEndpoint && tokens.AccessToken != "" {
			if claims, err = client.UserInfo(ctx, tokens); err != nil {
				f.logger.Debug("userinfo request failed", "error", err)
				return Classify(err)
			}
		}
		user, info, err = v.fn(ctx, tokens, claims)
	default:
		return Error(fmt.Errorf("%s: unrecognized verifier %T: %w", op, v, oidc.ErrInvalidParameter))
	}
	switch {
	case err != nil:
		return Error(fmt.Errorf("%s: %w: %w", op, ErrVerificationFailed, err))
	case isEmptyUser(user):
		return Fail(info)
	default:
		return Success(user, info)
	}
}

// isEmptyUser reports whether a verifier declined to return a user: a nil
// value (including a typed nil), false or an empty string.
func isEmptyUser(user interface{}) bool {
	if user == nil {
		return true
	}
	v := reflect.ValueOf(user)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	case reflect.Bool, reflect.String:
		return v.IsZero()
	default:
		return false
	}
}
