// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"time"

	"golang.org/x/oauth2"
)

// DefaultTokenExpirySkew defines a time skew when checking a TokenSet's
// expiration.
const DefaultTokenExpirySkew = 10 * time.Second

// TokenSet is the bundle of tokens returned by a successful authorization
// code exchange.  Every token redacts itself when printed or marshaled.
type TokenSet struct {
	AccessToken  AccessToken  `json:"access_token,omitempty"`
	TokenType    string       `json:"token_type,omitempty"`
	RefreshToken RefreshToken `json:"refresh_token,omitempty"`
	IDToken      IDToken      `json:"id_token,omitempty"`
	Expiry       time.Time    `json:"expiry,omitempty"`

	// IDTokenClaims are the verified claims of the IDToken.
	IDTokenClaims map[string]interface{} `json:"claims,omitempty"`
}

// newTokenSet creates a TokenSet from an oauth2.Token and its id_token.
func newTokenSet(t *oauth2.Token, idToken IDToken, claims map[string]interface{}) *TokenSet {
	ts := &TokenSet{
		IDToken:       idToken,
		IDTokenClaims: claims,
	}
	if t != nil {
		ts.AccessToken = AccessToken(t.AccessToken)
		ts.TokenType = t.TokenType
		ts.RefreshToken = RefreshToken(t.RefreshToken)
		ts.Expiry = t.Expiry
	}
	return ts
}

// Subject returns the id_token "sub" claim, if any.
func (t *TokenSet) Subject() string {
	if t == nil {
		return ""
	}
	sub, _ := t.IDTokenClaims["sub"].(string)
	return sub
}

// Expired reports whether the access_token is expired.  A TokenSet without an
// expiry never expires.
func (t *TokenSet) Expired() bool {
	if t == nil || t.Expiry.IsZero() {
		return false
	}
	return t.Expiry.Round(0).Before(time.Now().Add(DefaultTokenExpirySkew))
}

// Valid reports whether the TokenSet has an unexpired access_token.
func (t *TokenSet) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return !t.Expired()
}

// StaticTokenSource returns an oauth2.TokenSource which always returns the
// TokenSet's access_token.
func (t *TokenSet) StaticTokenSource() oauth2.TokenSource {
	if t == nil {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken:  string(t.AccessToken),
		TokenType:    t.TokenType,
		RefreshToken: string(t.RefreshToken),
		Expiry:       t.Expiry,
	})
}

// UserInfo are the claims returned by the provider's userinfo endpoint.
type UserInfo map[string]interface{}

// Subject returns the "sub" claim, if any.
func (u UserInfo) Subject() string {
	sub, _ := u["sub"].(string)
	return sub
}
