// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/hashicorp/capflow/oidc"
)

const (
	testIssuer   = "https://idp.example.com"
	testRedirect = "https://rp.example.com/cb"
	testAuthURL  = "https://idp.example.com/auth"
)

type testExchange struct {
	redirectURI string
	params      url.Values
	checks      oidc.Checks
}

// testClient is an in memory oidc.Client.  By default Exchange succeeds when
// the callback state equals checks.State.
type testClient struct {
	mu sync.Mutex

	issuer        oidc.Issuer
	responseTypes []string
	redirectURIs  []string

	authorizations []oidc.AuthorizationParams
	exchanges      []testExchange
	userInfos      int

	authURLErr  error
	exchangeErr error
	userInfoErr error
	tokens      *oidc.TokenSet
	claims      oidc.UserInfo
}

var _ oidc.Client = (*testClient)(nil)

func newTestClient() *testClient {
	return &testClient{
		issuer:        oidc.Issuer{Identifier: testIssuer, HasUserInfoEndpoint: true},
		responseTypes: []string{"code"},
		redirectURIs:  []string{testRedirect},
		tokens: &oidc.TokenSet{
			AccessToken:   "access",
			TokenType:     "Bearer",
			IDToken:       "id",
			IDTokenClaims: map[string]interface{}{"sub": "alice"},
		},
		claims: oidc.UserInfo{"sub": "alice", "email": "alice@example.com"},
	}
}

func (c *testClient) Issuer() oidc.Issuer     { return c.issuer }
func (c *testClient) ResponseTypes() []string { return c.responseTypes }
func (c *testClient) RedirectURIs() []string  { return c.redirectURIs }
func (c *testClient) CallbackParams(req *http.Request) (url.Values, error) {
	return oidc.ParseCallbackParams(req)
}

func (c *testClient) AuthorizationURL(p oidc.AuthorizationParams) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authorizations = append(c.authorizations, p)
	if c.authURLErr != nil {
		return "", c.authURLErr
	}
	v := url.Values{
		"response_type": {p.ResponseType},
		"redirect_uri":  {p.RedirectURI},
		"scope":         {p.Scope},
		"state":         {p.State},
	}
	if p.Nonce != "" {
		v.Set("nonce", p.Nonce)
	}
	if p.MaxAge != nil {
		v.Set("max_age", fmt.Sprint(*p.MaxAge))
	}
	for k, val := range p.Extra {
		v.Set(k, val)
	}
	return testAuthURL + "?" + v.Encode(), nil
}

func (c *testClient) Exchange(_ context.Context, redirectURI string, params url.Values, checks oidc.Checks) (*oidc.TokenSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges = append(c.exchanges, testExchange{redirectURI: redirectURI, params: params, checks: checks})
	if c.exchangeErr != nil {
		return nil, c.exchangeErr
	}
	if checks.State == "" {
		return nil, fmt.Errorf("checks.state is missing: %w", oidc.ErrMissingState)
	}
	if params.Get("state") != checks.State {
		return nil, fmt.Errorf("state mismatch: %w", oidc.ErrResponseStateInvalid)
	}
	return c.tokens, nil
}

func (c *testClient) UserInfo(_ context.Context, _ *oidc.TokenSet) (oidc.UserInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userInfos++
	if c.userInfoErr != nil {
		return nil, c.userInfoErr
	}
	return c.claims, nil
}

func (c *testClient) calls() (authorizations, exchanges, userInfos int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.authorizations), len(c.exchanges), c.userInfos
}

// testSession is an in memory SessionStore which counts its calls.
type testSession struct {
	mu      sync.Mutex
	values  map[string]interface{}
	gets    int
	sets    int
	deletes int

	getErr    error
	setErr    error
	deleteErr error
}

func newTestSession() *testSession {
	return &testSession{values: map[string]interface{}{}}
}

func (s *testSession) Get(_ context.Context, key string) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.values[key], nil
}

func (s *testSession) Set(_ context.Context, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

func (s *testSession) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.values, key)
	return nil
}

func (s *testSession) value(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// testGenerator returns "token-1", "token-2", ...
func testGenerator() TokenGenerator {
	var mu sync.Mutex
	n := 0
	return TokenGeneratorFunc(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("token-%d", n), nil
	})
}

func testSimpleVerifier() Verifier {
	return Simple(func(_ context.Context, t *oidc.TokenSet) (interface{}, Info, error) {
		return t.Subject(), Info{"via": "simple"}, nil
	})
}
