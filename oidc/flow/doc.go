// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

/*
Package flow implements the relying party side of the OIDC authorization code
flow as a two phase state machine.

A request without authentication response parameters initiates the flow: a
fresh state (and a nonce when an id_token is requested) is written to the
user's session and the user agent is redirected to the provider.  A request
carrying an authentication response completes it: the session entry is read
and removed, the code is exchanged, userinfo is optionally fetched and the
application's Verifier decides the outcome.

Every call to Flow.Authenticate returns exactly one Result: a Redirect, a
Success, a Fail (the user may try again) or an Error.  See the callback
package for dispatching a Result to an http.ResponseWriter.
*/
package flow
