// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/go-hclog"
)

// handlerOptions is the set of available options
type handlerOptions struct {
	withMetrics     *Metrics
	withFlowOptions []oidc.Option
	withLogger      hclog.Logger
}

// handlerDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func handlerDefaults() handlerOptions {
	return handlerOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

// getHandlerOpts gets the defaults and applies the opt overrides passed in.
func getHandlerOpts(opt ...oidc.Option) handlerOptions {
	opts := handlerDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithMetrics provides optional Metrics to record outcomes with.
//
// Valid for: Authenticate
func WithMetrics(m *Metrics) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withMetrics = m
		}
	}
}

// WithFlowOptions provides optional flow options (flow.WithScope,
// flow.WithMaxAge, etc) passed to every flow.Flow.Authenticate.
//
// Valid for: Authenticate
func WithFlowOptions(opt ...oidc.Option) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withFlowOptions = append(o.withFlowOptions, opt...)
		}
	}
}

// WithLogger provides an optional logger.
//
// Valid for: Authenticate
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
