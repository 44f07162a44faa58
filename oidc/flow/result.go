// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import "fmt"

// Kind of a Result.
type Kind int

const (
	KindUnknown Kind = iota
	KindRedirect
	KindSuccess
	KindFail
	KindError
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRedirect:
		return "redirect"
	case KindSuccess:
		return "success"
	case KindFail:
		return "fail"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one call to Flow.Authenticate.
type Result struct {
	Kind Kind

	// RedirectURL is set for KindRedirect.
	RedirectURL string

	// User is set for KindSuccess.
	User interface{}

	// Info is set for KindSuccess and KindFail, and is never nil for them.
	Info Info

	// Err is set for KindError.  It is also set for a KindFail produced from
	// a recoverable provider error.
	Err error
}

// Redirect returns a KindRedirect Result.
func Redirect(url string) Result {
	return Result{Kind: KindRedirect, RedirectURL: url}
}

// Success returns a KindSuccess Result.
func Success(user interface{}, info Info) Result {
	if info == nil {
		info = Info{}
	}
	return Result{Kind: KindSuccess, User: user, Info: info}
}

// Fail returns a KindFail Result.
func Fail(info Info) Result {
	if info == nil {
		info = Info{}
	}
	return Result{Kind: KindFail, Info: info}
}

// Error returns a KindError Result.
func Error(err error) Result {
	return Result{Kind: KindError, Err: err}
}

// String is suitable for logging, it never includes the user.
func (r Result) String() string {
	switch r.Kind {
	case KindRedirect:
		return fmt.Sprintf("redirect to %s", r.RedirectURL)
	case KindError:
		return fmt.Sprintf("error: %v", r.Err)
	default:
		return r.Kind.String()
	}
}
