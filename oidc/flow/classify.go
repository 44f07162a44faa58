// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"errors"

	"github.com/hashicorp/capflow/oidc"
)

// Classify maps an error from the provider to a Result.  A *oidc.ProtocolError
// whose code is neither "server_error" nor prefixed with "invalid" is a Fail
// carrying the error's code, description and uri.  Everything else is an
// Error.
func Classify(err error) Result {
	var pErr *oidc.ProtocolError
	if !errors.As(err, &pErr) || !pErr.Recoverable() {
		return Error(err)
	}
	info := Info{"error": pErr.Code}
	if pErr.Description != "" {
		info["error_description"] = pErr.Description
	}
	if pErr.URI != "" {
		info["error_uri"] = pErr.URI
	}
	r := Fail(info)
	r.Err = pErr
	return r
}
