// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"fmt"

	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

const (
	// DefaultScope is requested when no scope is configured.
	DefaultScope = "openid"

	// DefaultResponseType is used when the client has no registered response
	// types.
	DefaultResponseType = "code"

	// SessionKeyPrefix prefixes the issuer's host in the default session key.
	SessionKeyPrefix = "oidc:"
)

// Params are the default authentication request parameters.
type Params struct {
	ResponseType string
	RedirectURI  string
	Scope        string
	MaxAge       *int
}

// Config is the immutable configuration of a Flow.  It is safe to share
// between goroutines.
type Config struct {
	client     oidc.Client
	issuer     oidc.Issuer
	verifier   Verifier
	name       string
	sessionKey string
	params     Params
	generator  TokenGenerator
	logger     hclog.Logger
}

// NewConfig creates a Config for the client and verifier.  Every problem found
// is reported, wrapping oidc.ErrInvalidParameter or oidc.ErrNilParameter.
//
// The session key defaults to "oidc:" plus the issuer's host.  The
// response_type defaults to the client's first registered response type, the
// redirect_uri to its first registered redirect URI and the scope to
// "openid".
//
// Supported options: WithSessionKey, WithResponseType, WithRedirectURI,
// WithScope, WithMaxAge, WithTokenGenerator, WithLogger
func NewConfig(client oidc.Client, v Verifier, opt ...oidc.Option) (*Config, error) {
	const op = "flow.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		client:     client,
		verifier:   v,
		sessionKey: opts.withSessionKey,
		params: Params{
			ResponseType: opts.withResponseType,
			RedirectURI:  opts.withRedirectURI,
			Scope:        opts.withScope,
			MaxAge:       opts.withMaxAge,
		},
		generator: opts.withGenerator,
		logger:    opts.withLogger,
	}
	if c.generator == nil {
		c.generator = DefaultTokenGenerator()
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	if c.params.Scope == "" {
		c.params.Scope = DefaultScope
	}
	if client != nil {
		c.issuer = client.Issuer()
		c.name, _ = c.issuer.Hostname()
		if c.sessionKey == "" && c.name != "" {
			c.sessionKey = SessionKeyPrefix + c.name
		}
		if c.params.ResponseType == "" {
			c.params.ResponseType = DefaultResponseType
			if rts := client.ResponseTypes(); len(rts) > 0 {
				c.params.ResponseType = rts[0]
			}
		}
		if c.params.RedirectURI == "" {
			if uris := client.RedirectURIs(); len(uris) > 0 {
				c.params.RedirectURI = uris[0]
			}
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Validate the configuration.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, oidc.ErrNilParameter)
	}
	var result *multierror.Error
	if c.client == nil {
		result = multierror.Append(result, fmt.Errorf("%s: client is nil: %w", op, oidc.ErrNilParameter))
	} else if _, err := c.client.Issuer().Hostname(); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w: %w", op, oidc.ErrInvalidParameter, err))
	} else if c.sessionKey == "" {
		result = multierror.Append(result, fmt.Errorf("%s: session key is empty: %w", op, oidc.ErrInvalidParameter))
	}
	switch v := c.verifier.(type) {
	case nil:
		result = multierror.Append(result, fmt.Errorf("%s: verifier is nil: %w", op, oidc.ErrNilParameter))
	case simpleVerifier:
		if v.fn == nil {
			result = multierror.Append(result, fmt.Errorf("%s: simple verifier func is nil: %w", op, oidc.ErrNilParameter))
		}
	case userInfoVerifier:
		if v.fn == nil {
			result = multierror.Append(result, fmt.Errorf("%s: userinfo verifier func is nil: %w", op, oidc.ErrNilParameter))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("%s: unrecognized verifier %T: %w", op, v, oidc.ErrInvalidParameter))
	}
	if c.params.MaxAge != nil && *c.params.MaxAge < 0 {
		result = multierror.Append(result, fmt.Errorf("%s: max_age %d is negative: %w", op, *c.params.MaxAge, oidc.ErrInvalidParameter))
	}
	if c.generator == nil {
		result = multierror.Append(result, fmt.Errorf("%s: token generator is nil: %w", op, oidc.ErrNilParameter))
	}
	return result.ErrorOrNil()
}

// Client returns the configured client.
func (c *Config) Client() oidc.Client { return c.client }

// Issuer returns the issuer metadata captured when the Config was created.
func (c *Config) Issuer() oidc.Issuer { return c.issuer }

// Name returns the host of the issuer.
func (c *Config) Name() string { return c.name }

// SessionKey returns the key the session state is stored under.
func (c *Config) SessionKey() string { return c.sessionKey }

// Params returns the default authentication request parameters.
func (c *Config) Params() Params {
	p := c.params
	if p.MaxAge != nil {
		maxAge := *p.MaxAge
		p.MaxAge = &maxAge
	}
	return p
}

// Verifier returns the configured verifier.
func (c *Config) Verifier() Verifier { return c.verifier }
