// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"github.com/hashicorp/capflow/sdk/id"
)

// DefaultIDLength is the default length for generated IDs, which are used for
// state and nonce parameters during OIDC flows.
const DefaultIDLength = 20

// NewID generates a ID with an optional prefix.  The ID generated is suitable
// for a state or nonce.
func NewID(opt ...Option) (string, error) {
	const op = "oidc.NewID"
	opts := getIDOpts(opt...)
	newID, err := id.New(opts.withPrefix, opts.withLen)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w: %w", op, ErrIDGeneratorFailed, err)
	}
	return newID, nil
}

// idOptions is the set of available options.
type idOptions struct {
	withPrefix string
	withLen    int
}

// idDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func idDefaults() idOptions {
	return idOptions{
		withLen: DefaultIDLength,
	}
}

// getIDOpts gets the defaults and applies the opt overrides passed
// in.
func getIDOpts(opt ...Option) idOptions {
	opts := idDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithPrefix provides an optional prefix for an new ID.  When this options is
// provided, NewID will prepend the prefix and an underscore to the new
// identifier.
//
// Valid for: ID
func WithPrefix(prefix string) Option {
	return func(o interface{}) {
		if o, ok := o.(*idOptions); ok {
			o.withPrefix = prefix
		}
	}
}

// WithLength provides an optional length for the random portion of a new ID.
//
// Valid for: ID
func WithLength(l int) Option {
	return func(o interface{}) {
		if o, ok := o.(*idOptions); ok {
			o.withLen = l
		}
	}
}
