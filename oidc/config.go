// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/capflow/oidc/internal/strutils"
	sdkHttp "github.com/hashicorp/capflow/sdk/http"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// ClientSecret is an oauth client Secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret.
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret.
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret.
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config represents the configuration for an OIDC provider used by a relying
// party.
type Config struct {
	// ClientID is the relying party ID.
	ClientID string

	// ClientSecret is the relying party secret.  It may be empty when a
	// ClientAssertion is configured.
	ClientSecret ClientSecret

	// ClientAssertion is an optional private_key_jwt client assertion used to
	// authenticate the relying party to the token endpoint.
	ClientAssertion JWTSerializer

	// Scopes is a list of default oidc scopes to request of the provider. The
	// required "openid" scope is requested by default, and does not need to
	// be part of this optional list.
	Scopes []string

	// Issuer is a case-sensitive URL string using the https scheme that
	// contains scheme, host, and optionally, port number and path components
	// and no query or fragment components.
	Issuer string

	// SupportedSigningAlgs is a list of supported signing algorithms. List of
	// currently supported algs: RS256, RS384, RS512, ES256, ES384, ES512,
	// PS256, PS384, PS512, EdDSA
	SupportedSigningAlgs []Alg

	// RedirectURIs are the registered redirect URIs of the relying party. The
	// first one is used when a request does not specify one.
	RedirectURIs []string

	// ResponseTypes are the registered response types of the relying party.
	// Defaults to "code".
	ResponseTypes []string

	// Audiences is a optional list of case-sensitive strings used when
	// verifying an id_token's "aud" claim.
	Audiences []string

	// ProviderCA is an optional CA certs (PEM encoded) to use when sending
	// requests to the provider.
	ProviderCA string

	// HTTPClientOptions are optional settings for the http client used to
	// reach the provider (timeouts, retries, redirects).
	HTTPClientOptions []sdkHttp.Option

	// Logger is an optional logger.  Defaults to a null logger.
	Logger hclog.Logger
}

// JWTSerializer is satisfied by clientassertion.JWT.
type JWTSerializer interface {
	Serialize() (string, error)
}

// NewConfig composes a new config for a provider.
//
// Supported options: WithResponseTypes, WithScopes, WithAudiences,
// WithProviderCA, WithHTTPClientOptions, WithLogger, WithClientAssertionJWT
func NewConfig(issuer string, clientID string, clientSecret ClientSecret, supported []Alg, redirectURIs []string, opt ...Option) (*Config, error) {
	const op = "NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		Issuer:               issuer,
		ClientID:             clientID,
		ClientSecret:         clientSecret,
		ClientAssertion:      opts.withClientAssertion,
		SupportedSigningAlgs: supported,
		RedirectURIs:         redirectURIs,
		ResponseTypes:        opts.withResponseTypes,
		Scopes:               opts.withScopes,
		Audiences:            opts.withAudiences,
		ProviderCA:           opts.withProviderCA,
		HTTPClientOptions:    opts.withHTTPClientOptions,
		Logger:               opts.withLogger,
	}
	if len(c.ResponseTypes) == 0 {
		c.ResponseTypes = []string{"code"}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the provider configuration.  Among other validations, it verifies
// the issuer is not empty, but it doesn't verify the Issuer is discoverable via
// an http request.  SupportedSigningAlgs are validated against the list of
// currently supported algs.  Every problem found is reported.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("%s: client ID is empty: %w", op, ErrInvalidParameter))
	}
	if c.ClientSecret == "" && c.ClientAssertion == nil {
		result = multierror.Append(result, fmt.Errorf("%s: client secret and client assertion are empty: %w", op, ErrInvalidParameter))
	}
	if c.Issuer == "" {
		result = multierror.Append(result, fmt.Errorf("%s: discovery URL is empty: %w", op, ErrInvalidParameter))
	} else {
		u, err := url.Parse(c.Issuer)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("%s: issuer %s is invalid (%s): %w", op, c.Issuer, err, ErrInvalidIssuer))
		case !strutils.StrListContains([]string{"https", "http"}, u.Scheme):
			result = multierror.Append(result, fmt.Errorf("%s: issuer %s schema is not http or https: %w", op, c.Issuer, ErrInvalidIssuer))
		}
	}
	for _, r := range c.RedirectURIs {
		if _, err := url.Parse(r); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: redirect URI %s is invalid (%s): %w", op, r, err, ErrInvalidParameter))
		}
	}
	if len(c.SupportedSigningAlgs) == 0 {
		result = multierror.Append(result, fmt.Errorf("%s: supported algorithms is empty: %w", op, ErrInvalidParameter))
	}
	for _, a := range c.SupportedSigningAlgs {
		if !supportedAlgorithms[a] {
			result = multierror.Append(result, fmt.Errorf("%s: unsupported algorithm %q: %w", op, a, ErrUnsupportedAlg))
		}
	}
	if c.ProviderCA != "" {
		if _, err := c.HTTPClient(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", op, err))
		}
	}
	return result.ErrorOrNil()
}

// HTTPClient is a helper function that creates a new http client for the
// provider configured.
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	opts := append([]sdkHttp.Option{sdkHttp.WithLogger(c.logger().Named("http"))}, c.HTTPClientOptions...)
	client, err := sdkHttp.NewClient(c.ProviderCA, opts...)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value successfully: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

func (c *Config) logger() hclog.Logger {
	if c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}

// HTTPClientContext is a helper function that returns a new Context that
// carries the provided HTTP client. This method sets the same context key used
// by the github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the
// returned context works for those packages as well.
func HTTPClientContext(ctx context.Context, client *http.Client) context.Context {
	// simple to implement as a wrapper for the coreos package
	return oidc.ClientContext(ctx, client)
}

// configOptions is the set of available options
type configOptions struct {
	withResponseTypes     []string
	withScopes            []string
	withAudiences         []string
	withProviderCA        string
	withHTTPClientOptions []sdkHttp.Option
	withLogger            hclog.Logger
	withClientAssertion   JWTSerializer
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{}
}

// getConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithResponseTypes provides the registered response types for the
// provider's config.
//
// Valid for: Config
func WithResponseTypes(types ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withResponseTypes = types
		}
	}
}

// WithScopes provides an optional list of scopes for the provider's config.
//
// Valid for: Config
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithAudiences provides an optional list of audiences for the provider's config.
//
// Valid for: Config
func WithAudiences(auds ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAudiences = auds
		}
	}
}

// WithProviderCA provides an optional CA certs (PEM encoded) for the provider's config.
//
// Valid for: Config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithHTTPClientOptions provides optional transport settings (timeouts,
// retries, redirect policy) for requests to the provider.
//
// Valid for: Config
func WithHTTPClientOptions(opt ...sdkHttp.Option) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withHTTPClientOptions = opt
		}
	}
}

// WithClientAssertionJWT provides a private_key_jwt client assertion (see the
// clientassertion package) used instead of, or alongside, a client secret
// when exchanging codes.
//
// Valid for: Config
func WithClientAssertionJWT(j JWTSerializer) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withClientAssertion = j
		}
	}
}

// WithLogger provides an optional logger.
//
// Valid for: Config
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withLogger = l
		}
	}
}
