// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

// capflow provides an OIDC relying party authentication flow.  A flow
// redirects the user to the provider, completes the authentication when the
// provider redirects back and reports one of four outcomes: a redirect,
// success, fail or error.
//
// The packages are:
//   - oidc: the provider client (discovery, authorization url, code exchange,
//     id_token verification and userinfo)
//   - oidc/flow: the authentication state machine
//   - oidc/session: session stores for the flow's state
//   - oidc/callback: an http.HandlerFunc running a flow
//   - oidc/clientassertion: JWT client authentication
package capflow
