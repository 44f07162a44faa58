// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/capflow/oidc/flow"
	"github.com/hashicorp/go-multierror"
)

// Authenticate creates a handler which runs the flow for every request.  The
// session of the request is resolved with sFn.  A Redirect is answered with a
// 302 to the provider and the other outcomes are answered by succFn, failFn
// and errFn.
//
// Supported options: WithMetrics, WithFlowOptions, WithLogger
func Authenticate(
	f *flow.Flow,
	sFn SessionFunc,
	succFn SuccessResponseFunc,
	failFn FailResponseFunc,
	errFn ErrorResponseFunc,
	opt ...oidc.Option,
) (http.HandlerFunc, error) {
	const op = "callback.Authenticate"
	var result *multierror.Error
	if f == nil {
		result = multierror.Append(result, fmt.Errorf("%s: flow is nil: %w", op, oidc.ErrNilParameter))
	}
	if sFn == nil {
		result = multierror.Append(result, fmt.Errorf("%s: session func is nil: %w", op, oidc.ErrNilParameter))
	}
	if succFn == nil {
		result = multierror.Append(result, fmt.Errorf("%s: success response func is nil: %w", op, oidc.ErrNilParameter))
	}
	if failFn == nil {
		result = multierror.Append(result, fmt.Errorf("%s: fail response func is nil: %w", op, oidc.ErrNilParameter))
	}
	if errFn == nil {
		result = multierror.Append(result, fmt.Errorf("%s: error response func is nil: %w", op, oidc.ErrNilParameter))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	opts := getHandlerOpts(opt...)
	logger := opts.withLogger.Named("callback")

	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		var r flow.Result
		s, err := sFn(w, req)
		if err != nil {
			r = flow.Error(fmt.Errorf("%s: unable to resolve session: %w", op, err))
		} else {
			r = f.Authenticate(req, s, opts.withFlowOptions...)
		}
		opts.withMetrics.Observe(r.Kind, start)
		if r.Kind == flow.KindError {
			logger.Error("authentication error", "path", req.URL.Path, "error", r.Err)
		}

		h := HooksFuncs{
			RedirectFunc: func(url string) { http.Redirect(w, req, url, http.StatusFound) },
			SuccessFunc:  func(user interface{}, info flow.Info) { succFn(user, info, w, req) },
			FailFunc:     func(info flow.Info) { failFn(info, authenErrorResponse(info), w, req) },
			ErrorFunc:    func(err error) { errFn(err, w, req) },
		}
		if err := Dispatch(r, h); err != nil {
			errFn(err, w, req)
		}
	}, nil
}
