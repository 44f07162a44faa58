// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import "errors"

var (
	ErrMissingClientID      = errors.New("missing client ID")
	ErrMissingAudience      = errors.New("missing audience")
	ErrMissingAlgorithm     = errors.New("missing signing algorithm")
	ErrMissingKeyOrSecret   = errors.New("missing private key or client secret")
	ErrBothKeyAndSecret     = errors.New("both private key and client secret provided")
	ErrCreatingSigner       = errors.New("error creating jwt signer")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrInvalidSecretLength  = errors.New("invalid secret length for algorithm")
	ErrNilPrivateKey        = errors.New("nil private key")
)
