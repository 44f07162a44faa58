// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"bytes"
	"encoding/pem"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// testCertPEM returns the pem-encoded certificate of a running TLS test
// server.
func testCertPEM(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	require := require.New(t)
	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(err)
	return buf.String()
}
