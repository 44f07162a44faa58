// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Parallel()
	t.Run("invalid-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		_, err := NewClient("not a pem")
		require.Error(err)
		assert.Truef(errors.Is(err, ErrInvalidCertificatePem), "wanted \"%s\" but got \"%s\"", ErrInvalidCertificatePem, err)
	})
	t.Run("tls-with-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()
		c, err := NewClient(testCertPEM(t, srv))
		require.NoError(err)
		resp, err := c.Get(srv.URL)
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusOK, resp.StatusCode)
	})
}

func TestClient_Retries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		method       string
		failures     int32
		maxRetries   uint
		wantStatus   int
		wantAttempts int32
	}{
		{
			name:         "get-recovers",
			method:       http.MethodGet,
			failures:     2,
			maxRetries:   3,
			wantStatus:   http.StatusOK,
			wantAttempts: 3,
		},
		{
			name:         "get-exhausted",
			method:       http.MethodGet,
			failures:     5,
			maxRetries:   2,
			wantStatus:   http.StatusBadGateway,
			wantAttempts: 3,
		},
		{
			name:         "post-not-retried",
			method:       http.MethodPost,
			failures:     1,
			maxRetries:   3,
			wantStatus:   http.StatusBadGateway,
			wantAttempts: 1,
		},
		{
			name:         "retries-disabled",
			method:       http.MethodGet,
			failures:     1,
			maxRetries:   0,
			wantStatus:   http.StatusBadGateway,
			wantAttempts: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			var attempts int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if atomic.AddInt32(&attempts, 1) <= tt.failures {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				_, _ = w.Write([]byte("ok"))
			}))
			defer srv.Close()

			c, err := NewClient("",
				WithMaxRetries(tt.maxRetries),
				WithRetryWaitMin(time.Millisecond),
				WithLogger(hclog.NewNullLogger()),
			)
			require.NoError(err)

			var resp *http.Response
			switch tt.method {
			case http.MethodPost:
				resp, err = c.Post(srv.URL, "application/x-www-form-urlencoded", strings.NewReader("a=b"))
			default:
				resp, err = c.Get(srv.URL)
			}
			require.NoError(err)
			defer resp.Body.Close()
			assert.Equal(tt.wantStatus, resp.StatusCode)
			assert.Equal(tt.wantAttempts, atomic.LoadInt32(&attempts))
		})
	}
}

func TestClient_Redirects(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/moved" {
			http.Redirect(w, req, "/final", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	t.Run("follow", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewClient("")
		require.NoError(err)
		resp, err := c.Get(srv.URL + "/moved")
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusOK, resp.StatusCode)
	})
	t.Run("no-follow", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewClient("", WithFollowRedirects(false))
		require.NoError(err)
		resp, err := c.Get(srv.URL + "/moved")
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusFound, resp.StatusCode)
	})
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-done:
		case <-req.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(done)

	c, err := NewClient("", WithTimeout(50*time.Millisecond))
	require.NoError(err)
	_, err = c.Get(srv.URL)
	assert.Error(err)
}
