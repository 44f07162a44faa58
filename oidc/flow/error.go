// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import "errors"

var (
	// ErrSessionUnsupported is returned when a request has no session store.
	ErrSessionUnsupported = errors.New("authentication requires session support")

	// ErrMalformedSession is returned when the stored session state can't be
	// decoded.
	ErrMalformedSession = errors.New("malformed session state")

	// ErrUnexpectedFault wraps any other fault raised while completing an
	// authentication, including recovered panics.
	ErrUnexpectedFault = errors.New("unexpected authentication fault")

	// ErrVerificationFailed wraps an error returned by a Verifier.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrTokenGeneratorFailed wraps an error returned by a TokenGenerator.
	ErrTokenGeneratorFailed = errors.New("token generation failed")
)
