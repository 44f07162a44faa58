// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

// Package session provides flow.SessionStore implementations: Map, an in
// memory store for a single session, and RedisStore, which keeps every user's
// session in a Redis hash keyed by a session cookie.
package session
