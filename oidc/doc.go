// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

// Package oidc is the relying party's view of an OpenID Connect provider.
//
// Client is the contract the authentication flow (see the flow package)
// depends on: building authorization URLs, extracting callback parameters,
// exchanging authorization codes and fetching userinfo.  Provider implements
// Client on top of provider discovery, using github.com/coreos/go-oidc/v3 for
// id_token verification and golang.org/x/oauth2 for the code exchange.
//
// Errors returned by a provider (either in an authentication response or from
// the token endpoint) are returned as a *ProtocolError, whose Recoverable
// method reports whether the end user can simply try again.
//
// TestProvider is a local OIDC provider for writing tests.
package oidc
