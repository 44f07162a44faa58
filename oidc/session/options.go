// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"time"

	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultKeyPrefix prefixes every redis key written by a RedisStore.
	DefaultKeyPrefix = "capflow:session:"

	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 10 * time.Minute

	// DefaultCookieName is the name of the session id cookie.
	DefaultCookieName = "capflow_session"
)

// storeOptions is the set of available options
type storeOptions struct {
	withKeyPrefix    string
	withTTL          time.Duration
	withSecureCookie bool
	withLogger       hclog.Logger
}

// storeDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func storeDefaults() storeOptions {
	return storeOptions{
		withKeyPrefix:    DefaultKeyPrefix,
		withTTL:          DefaultTTL,
		withSecureCookie: true,
		withLogger:       hclog.NewNullLogger(),
	}
}

// getStoreOpts gets the defaults and applies the opt overrides passed
// in.
func getStoreOpts(opt ...oidc.Option) storeOptions {
	opts := storeDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithKeyPrefix provides an optional redis key prefix.
//
// Valid for: NewRedisStore
func WithKeyPrefix(prefix string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withKeyPrefix = prefix
		}
	}
}

// WithTTL provides an optional idle timeout for sessions.
//
// Valid for: NewRedisStore
func WithTTL(d time.Duration) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withTTL = d
		}
	}
}

// WithSecureCookie sets the Secure attribute of the session cookie.  It
// defaults to true.
//
// Valid for: NewRedisStore
func WithSecureCookie(secure bool) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withSecureCookie = secure
		}
	}
}

// WithLogger provides an optional logger.
//
// Valid for: NewRedisStore
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
