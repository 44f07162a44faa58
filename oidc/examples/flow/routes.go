// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/capflow/oidc/callback"
	"github.com/hashicorp/capflow/oidc/flow"
)

type user struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

func verifyTokens(_ context.Context, t *oidc.TokenSet) (interface{}, flow.Info, error) {
	var claims user
	if err := t.IDToken.Claims(&claims); err != nil {
		return nil, nil, err
	}
	if claims.Email == "" {
		return nil, flow.Info{"message": "an email address is required"}, nil
	}
	return &claims, flow.Info{"expires": t.Expiry}, nil
}

func verifyUserInfo(_ context.Context, t *oidc.TokenSet, u oidc.UserInfo) (interface{}, flow.Info, error) {
	claims := &user{Subject: t.Subject()}
	claims.Email, _ = u["email"].(string)
	claims.Name, _ = u["name"].(string)
	if claims.Email == "" {
		return nil, flow.Info{"message": "an email address is required"}, nil
	}
	return claims, flow.Info{"expires": t.Expiry}, nil
}

func successFn(u interface{}, info flow.Info, w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"user": u,
		"info": info,
	})
}

func failFn(info flow.Info, respErr *callback.AuthenErrorResponse, w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if respErr != nil {
		_ = json.NewEncoder(w).Encode(respErr)
		return
	}
	_ = json.NewEncoder(w).Encode(info)
}

func errorFn(e error, w http.ResponseWriter, _ *http.Request) {
	http.Error(w, fmt.Sprintf("authentication error: %s", e), http.StatusInternalServerError)
}
