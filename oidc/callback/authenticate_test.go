// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/capflow/oidc/flow"
	"github.com/hashicorp/capflow/oidc/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSuccessFn(user interface{}, _ flow.Info, w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("hello " + user.(string)))
}

func testFailFn(_ flow.Info, r *AuthenErrorResponse, w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusUnauthorized)
	if r != nil {
		_ = json.NewEncoder(w).Encode(r)
	}
}

func testErrorFn(e error, w http.ResponseWriter, _ *http.Request) {
	http.Error(w, e.Error(), http.StatusInternalServerError)
}

func testNewFlow(t *testing.T, tp *oidc.TestProvider) *flow.Flow {
	t.Helper()
	require := require.New(t)
	p, err := oidc.NewProvider(tp.TestConfig(t))
	require.NoError(err)
	t.Cleanup(p.Done)
	c, err := flow.NewConfig(p, flow.Simple(func(_ context.Context, ts *oidc.TokenSet) (interface{}, flow.Info, error) {
		return ts.Subject(), nil, nil
	}))
	require.NoError(err)
	f, err := flow.New(c)
	require.NoError(err)
	return f
}

// testFollow requests the authorization url from the test provider and
// returns the callback url it redirects to.
func testFollow(t *testing.T, tp *oidc.TestProvider, authURL string) string {
	t.Helper()
	require := require.New(t)
	client := *tp.HTTPClient()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Get(authURL)
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusFound, resp.StatusCode)
	return resp.Header.Get("Location")
}

func TestAuthenticate_validation(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	_, err := Authenticate(nil, nil, nil, nil, nil)
	require.Error(err)
	assert.ErrorIs(err, oidc.ErrNilParameter)
	for _, msg := range []string{"flow is nil", "session func is nil", "success response func is nil", "fail response func is nil", "error response func is nil"} {
		assert.Contains(err.Error(), msg)
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		s := session.NewMap()
		m := NewMetrics(prometheus.NewRegistry())
		h, err := Authenticate(
			testNewFlow(t, tp),
			func(http.ResponseWriter, *http.Request) (flow.SessionStore, error) { return s, nil },
			testSuccessFn, testFailFn, testErrorFn,
			WithMetrics(m),
			WithFlowOptions(flow.WithScope("openid email")),
		)
		require.NoError(err)

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "https://example.com/login", nil))
		require.Equal(http.StatusFound, w.Code)
		authURL := w.Header().Get("Location")
		assert.Contains(authURL, tp.Addr())
		assert.Contains(authURL, "scope=openid+email")

		w = httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, testFollow(t, tp, authURL), nil))
		require.Equal(http.StatusOK, w.Code, w.Body.String())
		assert.Equal("hello "+tp.Subject(), w.Body.String())

		assert.Equal(1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("redirect")))
		assert.Equal(1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("success")))
	})

	t.Run("fail", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		s := session.NewMap()
		h, err := Authenticate(
			testNewFlow(t, tp),
			func(http.ResponseWriter, *http.Request) (flow.SessionStore, error) { return s, nil },
			testSuccessFn, testFailFn, testErrorFn,
		)
		require.NoError(err)

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "https://example.com/login", nil))
		require.Equal(http.StatusFound, w.Code)

		callback := testFollow(t, tp, w.Header().Get("Location"))
		tp.SetTokenError(&oidc.ProtocolError{Code: oidc.ErrCodeAccessDenied, Description: "denied"})
		w = httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, callback, nil))
		require.Equal(http.StatusUnauthorized, w.Code)
		var got AuthenErrorResponse
		require.NoError(json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(AuthenErrorResponse{Error: oidc.ErrCodeAccessDenied, Description: "denied"}, got)
	})

	t.Run("session-error", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		m := NewMetrics(nil)
		h, err := Authenticate(
			testNewFlow(t, tp),
			func(http.ResponseWriter, *http.Request) (flow.SessionStore, error) {
				return nil, errors.New("no session")
			},
			testSuccessFn, testFailFn, testErrorFn,
			WithMetrics(m),
		)
		require.NoError(err)
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "https://example.com/login", nil))
		assert.Equal(http.StatusInternalServerError, w.Code)
		assert.Contains(w.Body.String(), "no session")
		assert.Equal(1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("error")))
	})

	t.Run("redis-session-cookie", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		mr := miniredis.RunT(t)
		store, err := session.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		require.NoError(err)
		h, err := Authenticate(testNewFlow(t, tp), store.SessionFunc(""), testSuccessFn, testFailFn, testErrorFn)
		require.NoError(err)

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "https://example.com/login", nil))
		require.Equal(http.StatusFound, w.Code)
		cookies := w.Result().Cookies()
		require.Len(cookies, 1)

		req := httptest.NewRequest(http.MethodGet, testFollow(t, tp, w.Header().Get("Location")), nil)
		req.AddCookie(cookies[0])
		w = httptest.NewRecorder()
		h(w, req)
		require.Equal(http.StatusOK, w.Code, w.Body.String())
		assert.Equal("hello "+tp.Subject(), w.Body.String())

		// without the cookie the callback has no session state
		w = httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, req.URL.String(), nil))
		assert.Equal(http.StatusInternalServerError, w.Code)
	})
}
