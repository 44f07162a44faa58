// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"context"
	"encoding/json"
	"fmt"
)

// SessionStore is the per-request view of the user's session.  See the
// session package for implementations.
type SessionStore interface {
	// Get returns the value stored under key, or nil when there is none.
	Get(ctx context.Context, key string) (interface{}, error)

	// Set stores the value under key.
	Set(ctx context.Context, key string, value interface{}) error

	// Delete removes the value stored under key.  Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error
}

// SessionState is stored in the session between initiating an authentication
// and receiving its callback.
type SessionState struct {
	State  string `json:"state"`
	Nonce  string `json:"nonce,omitempty"`
	MaxAge *int   `json:"max_age,omitempty"`
}

// decodeSessionState accepts a SessionState as stored by a SessionStore:
// the value itself, a pointer to it, a generic map or its JSON encoding.  A
// nil value is an empty SessionState.
func decodeSessionState(v interface{}) (SessionState, error) {
	const op = "flow.decodeSessionState"
	var raw []byte
	switch v := v.(type) {
	case nil:
		return SessionState{}, nil
	case SessionState:
		return v, nil
	case *SessionState:
		if v == nil {
			return SessionState{}, nil
		}
		return *v, nil
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	case string:
		raw = []byte(v)
	case map[string]interface{}:
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return SessionState{}, fmt.Errorf("%s: %w: %w", op, ErrMalformedSession, err)
		}
	default:
		return SessionState{}, fmt.Errorf("%s: unsupported type %T: %w", op, v, ErrMalformedSession)
	}
	var ss SessionState
	if err := json.Unmarshal(raw, &ss); err != nil {
		return SessionState{}, fmt.Errorf("%s: %w: %w", op, ErrMalformedSession, err)
	}
	return ss, nil
}
