// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/go-hclog"
)

// configOptions is the set of available options for NewConfig
type configOptions struct {
	withSessionKey   string
	withResponseType string
	withRedirectURI  string
	withScope        string
	withMaxAge       *int
	withGenerator    TokenGenerator
	withLogger       hclog.Logger
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{
		withScope: DefaultScope,
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...oidc.Option) configOptions {
	opts := configDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// requestOptions is the set of available options for Flow.Authenticate
type requestOptions struct {
	withResponseType string
	withRedirectURI  string
	withScope        string
	withNonce        string
	withMaxAge       *int
	withExtra        map[string]string
}

func getRequestOpts(opt ...oidc.Option) requestOptions {
	var opts requestOptions
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithSessionKey overrides the key the session state is stored under.
//
// Valid for: NewConfig
func WithSessionKey(k string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withSessionKey = k
		}
	}
}

// WithResponseType sets the response_type of the authentication request.
//
// Valid for: NewConfig and Flow.Authenticate
func WithResponseType(rt string) oidc.Option {
	return func(o interface{}) {
		switch o := o.(type) {
		case *configOptions:
			o.withResponseType = rt
		case *requestOptions:
			o.withResponseType = rt
		}
	}
}

// WithRedirectURI sets the redirect_uri of the authentication request and
// code exchange.
//
// Valid for: NewConfig and Flow.Authenticate
func WithRedirectURI(uri string) oidc.Option {
	return func(o interface{}) {
		switch o := o.(type) {
		case *configOptions:
			o.withRedirectURI = uri
		case *requestOptions:
			o.withRedirectURI = uri
		}
	}
}

// WithScope sets the space delimited scope of the authentication request.
//
// Valid for: NewConfig and Flow.Authenticate
func WithScope(scope string) oidc.Option {
	return func(o interface{}) {
		switch o := o.(type) {
		case *configOptions:
			o.withScope = scope
		case *requestOptions:
			o.withScope = scope
		}
	}
}

// WithMaxAge sets the max_age, in seconds, of the authentication request.
// The id_token's auth_time is checked against it.
//
// Valid for: NewConfig and Flow.Authenticate
func WithMaxAge(seconds int) oidc.Option {
	return func(o interface{}) {
		switch o := o.(type) {
		case *configOptions:
			o.withMaxAge = &seconds
		case *requestOptions:
			o.withMaxAge = &seconds
		}
	}
}

// WithNonce provides the nonce of the authentication request instead of a
// generated one.
//
// Valid for: Flow.Authenticate
func WithNonce(nonce string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withNonce = nonce
		}
	}
}

// WithExtraParams provides additional authentication request parameters
// (prompt, login_hint, acr_values, etc).
//
// Valid for: Flow.Authenticate
func WithExtraParams(params map[string]string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withExtra = params
		}
	}
}

// WithTokenGenerator provides the generator for state and nonce values.
//
// Valid for: NewConfig
func WithTokenGenerator(g TokenGenerator) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withGenerator = g
		}
	}
}

// WithLogger provides an optional logger.
//
// Valid for: NewConfig
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withLogger = l
		}
	}
}
