// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"net/http"

	"github.com/hashicorp/capflow/oidc/flow"
)

// SessionFunc returns the session of the user making the request.  It may
// write to the response, for example to set a session cookie, but must not
// write its body.  See session.RedisStore.SessionFunc.
type SessionFunc func(w http.ResponseWriter, req *http.Request) (flow.SessionStore, error)

// SuccessResponseFunc is used by Authenticate to create a http response when
// the user has been authenticated.
//
// The user and info are the values returned by the flow's verifier.  The
// function should use the http.ResponseWriter to send back whatever content
// (headers, html, JSON, etc) it wishes to the client, or redirect it to the
// application.
type SuccessResponseFunc func(user interface{}, info flow.Info, w http.ResponseWriter, req *http.Request)

// FailResponseFunc is used by Authenticate to create a http response when
// the authentication was refused by either the provider or the verifier.
//
// The AuthenErrorResponse is set when the refusal came from the provider.
type FailResponseFunc func(info flow.Info, respErr *AuthenErrorResponse, w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by Authenticate to create a http response when
// the authentication could not be completed.
type ErrorResponseFunc func(e error, w http.ResponseWriter, req *http.Request)

// AuthenErrorResponse represents Oauth2 error responses.  See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
type AuthenErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Uri         string `json:"error_uri,omitempty"`
}

// authenErrorResponse returns the provider's error response carried by the
// info of a Fail, or nil.
func authenErrorResponse(info flow.Info) *AuthenErrorResponse {
	code, ok := info["error"].(string)
	if !ok || code == "" {
		return nil
	}
	resp := &AuthenErrorResponse{Error: code}
	resp.Description, _ = info["error_description"].(string)
	resp.Uri, _ = info["error_uri"].(string)
	return resp
}
