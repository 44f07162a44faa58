// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/capflow/oidc/internal/strutils"
	"github.com/stretchr/testify/require"
)

// TestProvider is a local https server implementing just enough of an OIDC
// provider (discovery, /auth, /token, /userinfo and /certs) to drive a relying
// party through the authorization code flow in tests.  Most of this is from
// Consul's oauthtest package.  A big thanks to the original contributors to
// Consul's oauthtest package.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	jwks *jose.JSONWebKeySet

	mu                  sync.Mutex
	allowedRedirectURIs []string
	replySubject        string
	replyUserinfo       map[string]interface{}
	clientID            string
	clientSecret        string
	expectedAuthCode    string
	expectedAuthNonce   string
	customClaims        map[string]interface{}
	customAudience      string
	omitIDToken         bool
	disableUserInfo     bool
	tokenError          *ProtocolError
	tokenRequests       int
	clientAssertion     string
	userInfoRequests    int

	ecdsaPublicKey  string
	ecdsaPrivateKey string
}

// StartTestProvider creates a disposable TestProvider listening on a random
// local port.  The provider is stopped when the test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		allowedRedirectURIs: []string{
			"https://example.com/callback",
		},
		replySubject:     "r3qXcK2bix9eFECzsU3Sbmh0K16fatW6@clients",
		clientID:         "test-client-id",
		clientSecret:     "test-client-secret",
		expectedAuthCode: "test-code",
	}
	p.replyUserinfo = map[string]interface{}{
		"sub":         p.replySubject,
		"color":       "red",
		"temperature": "76",
		"flavor":      "umami",
	}
	p.ecdsaPublicKey, p.ecdsaPrivateKey = TestGenerateKeys(t)
	p.jwks = testJWKS(t, p.ecdsaPublicKey)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// SetClientCreds is for configuring the client information required for the
// OIDC workflows.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// ClientCreds returns the configured client id and secret.
func (p *TestProvider) ClientCreds() (clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clientID, p.clientSecret
}

// SetExpectedAuthCode configures the auth code to return from /auth and the
// allowed auth code for /token.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
}

// ExpectedAuthCode returns the auth code returned from /auth.
func (p *TestProvider) ExpectedAuthCode() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expectedAuthCode
}

// SetExpectedAuthNonce configures the nonce value required for /auth and
// embedded in issued id_tokens.
func (p *TestProvider) SetExpectedAuthNonce(nonce string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthNonce = nonce
}

// SetAllowedRedirectURIs allows you to configure the allowed redirect URIs for
// the OIDC workflow. If not configured a sample of
// "https://example.com/callback" is used.
func (p *TestProvider) SetAllowedRedirectURIs(uris []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetCustomClaims lets you set claims to return in the JWT issued by the OIDC
// workflow.
func (p *TestProvider) SetCustomClaims(customClaims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = customClaims
}

// SetCustomAudience configures what audience value to embed in the JWT issued
// by the OIDC workflow.
func (p *TestProvider) SetCustomAudience(customAudience string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customAudience = customAudience
}

// SetUserInfoReply configures the claims returned by /userinfo.
func (p *TestProvider) SetUserInfoReply(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyUserinfo = claims
}

// SetTokenError forces /token to reply with the provided oauth error.  A nil
// error restores normal behavior.
func (p *TestProvider) SetTokenError(e *ProtocolError) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenError = e
}

// OmitIDTokens forces an error state where the /token endpoint does not return
// id_token.
func (p *TestProvider) OmitIDTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = true
}

// DisableUserInfo makes the userinfo endpoint return 404 and omits it from the
// discovery config.
func (p *TestProvider) DisableUserInfo() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableUserInfo = true
}

// Requests returns the number of requests served by /token and /userinfo.
func (p *TestProvider) Requests() (token, userInfo int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests, p.userInfoRequests
}

// ClientAssertion returns the client_assertion of the last /token request.
func (p *TestProvider) ClientAssertion() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clientAssertion
}

// Subject returns the "sub" of the id_tokens issued.
func (p *TestProvider) Subject() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.replySubject
}

// Addr returns the current base URL for the test provider's running webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// HTTPClient returns an http client which trusts the test provider's CA.
func (p *TestProvider) HTTPClient() *http.Client { return p.httpServer.Client() }

// SigningKeys returns the test provider's pem-encoded keys used to sign JWTs.
func (p *TestProvider) SigningKeys() (pub, priv string) {
	return p.ecdsaPublicKey, p.ecdsaPrivateKey
}

// TestConfig returns a Config for a relying party registered with the test
// provider.
func (p *TestProvider) TestConfig(t *testing.T, opt ...Option) *Config {
	t.Helper()
	clientID, clientSecret := p.ClientCreds()
	p.mu.Lock()
	redirects := append([]string(nil), p.allowedRedirectURIs...)
	p.mu.Unlock()
	opts := append([]Option{WithProviderCA(p.CACert())}, opt...)
	c, err := NewConfig(p.Addr(), clientID, ClientSecret(clientSecret), []Alg{ES256}, redirects, opts...)
	require.NoError(t, err)
	return c
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (p *TestProvider) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	qv := req.URL.Query()

	redirectURI := qv.Get("redirect_uri") +
		"?state=" + url.QueryEscape(qv.Get("state")) +
		"&error=" + url.QueryEscape(errorCode)

	if errorMessage != "" {
		redirectURI += "&error_description=" + url.QueryEscape(errorMessage)
	}

	http.Redirect(w, req, redirectURI, http.StatusFound)
}

func (p *TestProvider) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}

	w.WriteHeader(statusCode)
	return p.writeJSON(w, &body)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		reply := struct {
			Issuer           string   `json:"issuer"`
			AuthEndpoint     string   `json:"authorization_endpoint"`
			TokenEndpoint    string   `json:"token_endpoint"`
			JWKSURI          string   `json:"jwks_uri"`
			UserinfoEndpoint string   `json:"userinfo_endpoint,omitempty"`
			Algs             []string `json:"id_token_signing_alg_values_supported"`
		}{
			Issuer:           p.Addr(),
			AuthEndpoint:     p.Addr() + "/auth",
			TokenEndpoint:    p.Addr() + "/token",
			JWKSURI:          p.Addr() + "/certs",
			UserinfoEndpoint: p.Addr() + "/userinfo",
			Algs:             []string{string(ES256)},
		}
		if p.disableUserInfo {
			reply.UserinfoEndpoint = ""
		}
		_ = p.writeJSON(w, &reply)

	case "/auth":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		qv := req.URL.Query()

		switch {
		case qv.Get("response_type") != "code":
			p.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
			return
		case !strutils.StrListContains(strings.Fields(qv.Get("scope")), "openid"):
			p.writeAuthErrorResponse(w, req, "invalid_scope", "")
			return
		case p.expectedAuthCode == "":
			p.writeAuthErrorResponse(w, req, ErrCodeAccessDenied, "")
			return
		case p.expectedAuthNonce != "" && p.expectedAuthNonce != qv.Get("nonce"):
			p.writeAuthErrorResponse(w, req, ErrCodeAccessDenied, "")
			return
		case qv.Get("state") == "":
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing state parameter")
			return
		case qv.Get("redirect_uri") == "":
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing redirect_uri parameter")
			return
		}

		redirectURI := qv.Get("redirect_uri") +
			"?state=" + url.QueryEscape(qv.Get("state")) +
			"&code=" + url.QueryEscape(p.expectedAuthCode)

		http.Redirect(w, req, redirectURI, http.StatusFound)

	case "/certs":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = p.writeJSON(w, p.jwks)

	case "/token":
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.tokenRequests++
		p.clientAssertion = req.FormValue("client_assertion")

		if p.tokenError != nil {
			status := p.tokenError.StatusCode
			if status == 0 {
				status = http.StatusBadRequest
			}
			_ = p.writeTokenErrorResponse(w, status, p.tokenError.Code, p.tokenError.Description)
			return
		}

		switch {
		case req.FormValue("grant_type") != "authorization_code":
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "bad grant_type")
			return
		case !strutils.StrListContains(p.allowedRedirectURIs, req.FormValue("redirect_uri")):
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not allowed")
			return
		case req.FormValue("code") != p.expectedAuthCode:
			_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, ErrCodeInvalidGrant, "unexpected auth code")
			return
		}

		stdClaims := jwt.Claims{
			Subject:   p.replySubject,
			Issuer:    p.Addr(),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-5 * time.Second)),
			Expiry:    jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
			Audience:  jwt.Audience{p.clientID},
		}
		if p.customAudience != "" {
			stdClaims.Audience = jwt.Audience{p.customAudience}
		}
		privateClaims := map[string]interface{}{}
		if p.expectedAuthNonce != "" {
			privateClaims["nonce"] = p.expectedAuthNonce
		}
		for k, v := range p.customClaims {
			privateClaims[k] = v
		}

		jwtData, err := signTestJWT(p.ecdsaPrivateKey, stdClaims, privateClaims)
		if err != nil {
			_ = p.writeTokenErrorResponse(w, http.StatusInternalServerError, ErrCodeServerError, err.Error())
			return
		}

		reply := struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
			ExpiresIn   int    `json:"expires_in"`
			IDToken     string `json:"id_token,omitempty"`
		}{
			AccessToken: jwtData,
			TokenType:   "Bearer",
			ExpiresIn:   300,
			IDToken:     jwtData,
		}
		if p.omitIDToken {
			reply.IDToken = ""
		}
		_ = p.writeJSON(w, &reply)

	case "/userinfo":
		if p.disableUserInfo {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.userInfoRequests++
		_ = p.writeJSON(w, p.replyUserinfo)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// testJWKS converts a pem-encoded public key into JWKS data suitable for a
// verification endpoint response
func testJWKS(t *testing.T, pubKey string) *jose.JSONWebKeySet {
	t.Helper()
	require := require.New(t)

	block, _ := pem.Decode([]byte(pubKey))
	require.NotNil(block)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(err)

	return &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       pub,
				Algorithm: string(jose.ES256),
				Use:       "sig",
			},
		},
	}
}
