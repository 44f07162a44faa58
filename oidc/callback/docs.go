// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

/*
Package callback provides an http.HandlerFunc which runs a flow.Flow for every
request and turns its outcome into an http response.  The same handler serves
both the login route, where it redirects to the provider, and the redirect_uri,
where it completes the authentication.

Dispatch can be used to route a flow.Result to your own Hooks when the handler
doesn't fit.
*/
package callback
