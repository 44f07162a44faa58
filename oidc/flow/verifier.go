// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"context"

	"github.com/hashicorp/capflow/oidc"
)

// Info is extra information attached to a Success or Fail.
type Info map[string]interface{}

// SimpleFunc verifies an authenticated TokenSet.  It returns the
// application's user on success, a nil user (with optional info) to fail the
// authentication, or an error.
type SimpleFunc func(ctx context.Context, t *oidc.TokenSet) (user interface{}, info Info, err error)

// UserInfoFunc is a SimpleFunc that also receives the subject's userinfo
// claims.  The UserInfo is nil when the provider has no userinfo endpoint or
// no access_token was issued.
type UserInfoFunc func(ctx context.Context, t *oidc.TokenSet, u oidc.UserInfo) (user interface{}, info Info, err error)

// Verifier is the application's verification routine.  It is one of the
// variants returned by Simple or WithUserInfo.
type Verifier interface {
	verifier()
}

type simpleVerifier struct {
	fn SimpleFunc
}

func (simpleVerifier) verifier() {}

type userInfoVerifier struct {
	fn UserInfoFunc
}

func (userInfoVerifier) verifier() {}

// Simple returns a Verifier which is called with the TokenSet only.
func Simple(fn SimpleFunc) Verifier { return simpleVerifier{fn: fn} }

// WithUserInfo returns a Verifier which is called with the TokenSet and the
// userinfo claims, which are fetched after the code exchange.
func WithUserInfo(fn UserInfoFunc) Verifier { return userInfoVerifier{fn: fn} }
