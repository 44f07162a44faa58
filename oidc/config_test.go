// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
	"testing"
	"time"

	sdkHttp "github.com/hashicorp/capflow/sdk/http"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSecret_String(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert := assert.New(t)
		const want = RedactedClientSecret
		secret := ClientSecret("bob's phone number")
		assert.Equalf(want, secret.String(), "ClientSecret.String() = %v, want %v", secret.String(), want)
	})
}

func TestClientSecret_MarshalJSON(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		want := fmt.Sprintf(`"%s"`, RedactedClientSecret)
		secret := ClientSecret("bob's phone number")
		got, err := secret.MarshalJSON()
		require.NoError(err)
		assert.Equalf([]byte(want), got, "ClientSecret.MarshalJSON() = %s, want %s", got, want)
	})
}

type testAssertion string

func (a testAssertion) Serialize() (string, error) { return string(a), nil }

func TestNewConfig(t *testing.T) {
	t.Parallel()
	testCaPem := TestGenerateCA(t, []string{"localhost"})
	testLogger := hclog.NewNullLogger()

	type args struct {
		issuer       string
		clientID     string
		clientSecret ClientSecret
		supported    []Alg
		redirectURIs []string
		opt          []Option
	}
	tests := []struct {
		name      string
		args      args
		want      *Config
		wantErr   bool
		wantIsErr error
	}{
		{
			name: "valid-with-all-valid-opts",
			args: args{
				issuer:       "https://www.alice.com",
				clientID:     "test-client-id",
				clientSecret: "test-client-secret",
				supported:    []Alg{RS512, ES256},
				redirectURIs: []string{"https://www.example.com/callback"},
				opt: []Option{
					WithResponseTypes("code", "code id_token"),
					WithScopes("email", "profile"),
					WithAudiences("your_company"),
					WithProviderCA(testCaPem),
					WithLogger(testLogger),
				},
			},
			want: &Config{
				Issuer:               "https://www.alice.com",
				ClientID:             "test-client-id",
				ClientSecret:         "test-client-secret",
				SupportedSigningAlgs: []Alg{RS512, ES256},
				RedirectURIs:         []string{"https://www.example.com/callback"},
				ResponseTypes:        []string{"code", "code id_token"},
				Scopes:               []string{"email", "profile"},
				Audiences:            []string{"your_company"},
				ProviderCA:           testCaPem,
				Logger:               testLogger,
			},
		},
		{
			name: "default-response-type",
			args: args{
				issuer:       "http://localhost:8200",
				clientID:     "test-client-id",
				clientSecret: "test-client-secret",
				supported:    []Alg{ES256},
			},
			want: &Config{
				Issuer:               "http://localhost:8200",
				ClientID:             "test-client-id",
				ClientSecret:         "test-client-secret",
				SupportedSigningAlgs: []Alg{ES256},
				ResponseTypes:        []string{"code"},
			},
		},
		{
			name: "client-assertion-without-secret",
			args: args{
				issuer:    "https://www.alice.com",
				clientID:  "test-client-id",
				supported: []Alg{ES256},
				opt:       []Option{WithClientAssertionJWT(testAssertion("jwt"))},
			},
			want: &Config{
				Issuer:               "https://www.alice.com",
				ClientID:             "test-client-id",
				ClientAssertion:      testAssertion("jwt"),
				SupportedSigningAlgs: []Alg{ES256},
				ResponseTypes:        []string{"code"},
			},
		},
		{
			name: "empty-issuer",
			args: args{
				clientID:     "test-client-id",
				clientSecret: "test-client-secret",
				supported:    []Alg{ES256},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "invalid-issuer-scheme",
			args: args{
				issuer:       "ftp://www.alice.com",
				clientID:     "test-client-id",
				clientSecret: "test-client-secret",
				supported:    []Alg{ES256},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidIssuer,
		},
		{
			name: "empty-client-id",
			args: args{
				issuer:       "https://www.alice.com",
				clientSecret: "test-client-secret",
				supported:    []Alg{ES256},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "empty-client-secret",
			args: args{
				issuer:    "https://www.alice.com",
				clientID:  "test-client-id",
				supported: []Alg{ES256},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "empty-algs",
			args: args{
				issuer:       "https://www.alice.com",
				clientID:     "test-client-id",
				clientSecret: "test-client-secret",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "unsupported-alg",
			args: args{
				issuer:       "https://www.alice.com",
				clientID:     "test-client-id",
				clientSecret: "test-client-secret",
				supported:    []Alg{"HS256"},
			},
			wantErr:   true,
			wantIsErr: ErrUnsupportedAlg,
		},
		{
			name: "invalid-ca",
			args: args{
				issuer:       "https://www.alice.com",
				clientID:     "test-client-id",
				clientSecret: "test-client-secret",
				supported:    []Alg{ES256},
				opt:          []Option{WithProviderCA("bad ca")},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidCACert,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.args.issuer, tt.args.clientID, tt.args.clientSecret, tt.args.supported, tt.args.redirectURIs, tt.args.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	t.Run("nil-config", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		var c *Config
		err := c.Validate()
		require.Error(err)
		assert.ErrorIs(err, ErrNilParameter)
	})
	t.Run("reports-every-problem", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := &Config{SupportedSigningAlgs: []Alg{"none"}}
		err := c.Validate()
		require.Error(err)
		var merr *multierror.Error
		require.True(errors.As(err, &merr))
		// client id, secret, issuer and alg
		assert.Len(merr.Errors, 4)
		assert.ErrorIs(err, ErrInvalidParameter)
		assert.ErrorIs(err, ErrUnsupportedAlg)
	})
}

func TestConfig_HTTPClient(t *testing.T) {
	t.Parallel()
	t.Run("default", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := &Config{}
		client, err := c.HTTPClient()
		require.NoError(err)
		assert.NotNil(client.Transport)
	})
	t.Run("with-options", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := &Config{HTTPClientOptions: []sdkHttp.Option{sdkHttp.WithTimeout(3 * time.Second)}}
		client, err := c.HTTPClient()
		require.NoError(err)
		assert.Equal(3*time.Second, client.Timeout)
	})
	t.Run("bad-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := &Config{ProviderCA: "not a pem"}
		_, err := c.HTTPClient()
		require.Error(err)
		assert.ErrorIs(err, ErrInvalidCACert)
	})
}
