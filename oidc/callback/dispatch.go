// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"

	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/capflow/oidc/flow"
)

// Hooks receive the outcome of a flow.Result.  Exactly one hook is called
// per Result.
type Hooks interface {
	// Redirect sends the user agent to the url.
	Redirect(url string)

	// Success is called when the user has been authenticated.
	Success(user interface{}, info flow.Info)

	// Fail is called when the authentication was refused.
	Fail(info flow.Info)

	// Error is called when the authentication could not be completed.
	Error(err error)
}

// Dispatch calls the hook matching the result's kind.
func Dispatch(r flow.Result, h Hooks) error {
	const op = "callback.Dispatch"
	if h == nil {
		return fmt.Errorf("%s: hooks are nil: %w", op, oidc.ErrNilParameter)
	}
	switch r.Kind {
	case flow.KindRedirect:
		h.Redirect(r.RedirectURL)
	case flow.KindSuccess:
		h.Success(r.User, r.Info)
	case flow.KindFail:
		h.Fail(r.Info)
	case flow.KindError:
		h.Error(r.Err)
	default:
		return fmt.Errorf("%s: unknown result kind %d: %w", op, r.Kind, oidc.ErrInvalidParameter)
	}
	return nil
}

// HooksFuncs adapts funcs to Hooks.  A nil func ignores its outcome.
type HooksFuncs struct {
	RedirectFunc func(url string)
	SuccessFunc  func(user interface{}, info flow.Info)
	FailFunc     func(info flow.Info)
	ErrorFunc    func(err error)
}

var _ Hooks = HooksFuncs{}

func (h HooksFuncs) Redirect(url string) {
	if h.RedirectFunc != nil {
		h.RedirectFunc(url)
	}
}

func (h HooksFuncs) Success(user interface{}, info flow.Info) {
	if h.SuccessFunc != nil {
		h.SuccessFunc(user, info)
	}
}

func (h HooksFuncs) Fail(info flow.Info) {
	if h.FailFunc != nil {
		h.FailFunc(info)
	}
}

func (h HooksFuncs) Error(err error) {
	if h.ErrorFunc != nil {
		h.ErrorFunc(err)
	}
}
