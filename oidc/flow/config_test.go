// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"errors"
	"testing"

	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUnknownVerifier struct{}

func (testUnknownVerifier) verifier() {}

func TestNewConfig(t *testing.T) {
	t.Parallel()
	maxAge := 120
	tests := []struct {
		name           string
		client         func() oidc.Client
		verifier       Verifier
		opts           []oidc.Option
		wantSessionKey string
		wantParams     Params
		wantErr        bool
		wantIsErr      error
	}{
		{
			name:           "defaults",
			client:         func() oidc.Client { return newTestClient() },
			verifier:       testSimpleVerifier(),
			wantSessionKey: "oidc:idp.example.com",
			wantParams:     Params{ResponseType: "code", RedirectURI: testRedirect, Scope: "openid"},
		},
		{
			name: "defaults-without-registrations",
			client: func() oidc.Client {
				c := newTestClient()
				c.responseTypes, c.redirectURIs = nil, nil
				return c
			},
			verifier:       testSimpleVerifier(),
			wantSessionKey: "oidc:idp.example.com",
			wantParams:     Params{ResponseType: "code", Scope: "openid"},
		},
		{
			name: "first-registered-response-type",
			client: func() oidc.Client {
				c := newTestClient()
				c.responseTypes = []string{"code id_token", "code"}
				c.issuer.Identifier = "https://op.example.com:8443/tenant"
				return c
			},
			verifier:       testSimpleVerifier(),
			wantSessionKey: "oidc:op.example.com",
			wantParams:     Params{ResponseType: "code id_token", RedirectURI: testRedirect, Scope: "openid"},
		},
		{
			name:     "all-options",
			client:   func() oidc.Client { return newTestClient() },
			verifier: testSimpleVerifier(),
			opts: []oidc.Option{
				WithSessionKey("my-key"),
				WithResponseType("code id_token"),
				WithRedirectURI("https://rp.example.com/other"),
				WithScope("openid email"),
				WithMaxAge(maxAge),
				WithTokenGenerator(testGenerator()),
				WithLogger(hclog.NewNullLogger()),
			},
			wantSessionKey: "my-key",
			wantParams:     Params{ResponseType: "code id_token", RedirectURI: "https://rp.example.com/other", Scope: "openid email", MaxAge: &maxAge},
		},
		{
			name:      "nil-client",
			client:    func() oidc.Client { return nil },
			verifier:  testSimpleVerifier(),
			wantErr:   true,
			wantIsErr: oidc.ErrNilParameter,
		},
		{
			name: "empty-issuer",
			client: func() oidc.Client {
				c := newTestClient()
				c.issuer.Identifier = ""
				return c
			},
			verifier:  testSimpleVerifier(),
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidParameter,
		},
		{
			name:      "nil-verifier",
			client:    func() oidc.Client { return newTestClient() },
			wantErr:   true,
			wantIsErr: oidc.ErrNilParameter,
		},
		{
			name:      "nil-simple-func",
			client:    func() oidc.Client { return newTestClient() },
			verifier:  Simple(nil),
			wantErr:   true,
			wantIsErr: oidc.ErrNilParameter,
		},
		{
			name:      "nil-userinfo-func",
			client:    func() oidc.Client { return newTestClient() },
			verifier:  WithUserInfo(nil),
			wantErr:   true,
			wantIsErr: oidc.ErrNilParameter,
		},
		{
			name:      "unrecognized-verifier",
			client:    func() oidc.Client { return newTestClient() },
			verifier:  testUnknownVerifier{},
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidParameter,
		},
		{
			name:      "negative-max-age",
			client:    func() oidc.Client { return newTestClient() },
			verifier:  testSimpleVerifier(),
			opts:      []oidc.Option{WithMaxAge(-1)},
			wantErr:   true,
			wantIsErr: oidc.ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.client(), tt.verifier, tt.opts...)
			if tt.wantErr {
				require.Error(err)
				assert.Nil(got)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantSessionKey, got.SessionKey())
			assert.Equal(tt.wantParams, got.Params())
			assert.NotNil(got.Client())
			assert.NotNil(got.Verifier())
			assert.NoError(got.Validate())
		})
	}
}

func TestNewConfig_reportsEveryProblem(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	_, err := NewConfig(nil, nil, WithMaxAge(-5))
	require.Error(err)
	var merr *multierror.Error
	require.True(errors.As(err, &merr))
	// client, verifier and max_age
	assert.Len(merr.Errors, 3)
}

func TestConfig_Params(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	c, err := NewConfig(newTestClient(), testSimpleVerifier(), WithMaxAge(10))
	require.NoError(err)
	p := c.Params()
	*p.MaxAge = 20
	assert.Equal(10, *c.Params().MaxAge, "config must not be mutable through Params")
}

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("valid", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig(newTestClient(), testSimpleVerifier())
		require.NoError(err)
		f, err := New(c)
		require.NoError(err)
		assert.Equal(c, f.Config())
	})
	t.Run("nil-config", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		_, err := New(nil)
		require.Error(err)
		assert.ErrorIs(err, oidc.ErrNilParameter)
	})
	t.Run("invalid-config", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		_, err := New(&Config{})
		require.Error(err)
		assert.ErrorIs(err, oidc.ErrNilParameter)
	})
}
