// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/capflow/oidc/flow"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
)

// sessionIDLength is the length of generated session ids.
const sessionIDLength = 32

// RedisStore keeps sessions in Redis.  Each session is a hash named by the
// key prefix and the session id, with one JSON encoded field per session key.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	secure bool
	logger hclog.Logger
}

// NewRedisStore creates a RedisStore using the client.
//
// Supported options: WithKeyPrefix, WithTTL, WithSecureCookie, WithLogger
func NewRedisStore(client redis.UniversalClient, opt ...oidc.Option) (*RedisStore, error) {
	const op = "session.NewRedisStore"
	if client == nil {
		return nil, fmt.Errorf("%s: redis client is nil: %w", op, oidc.ErrNilParameter)
	}
	opts := getStoreOpts(opt...)
	if opts.withTTL <= 0 {
		return nil, fmt.Errorf("%s: ttl must be positive: %w", op, oidc.ErrInvalidParameter)
	}
	return &RedisStore{
		client: client,
		prefix: opts.withKeyPrefix,
		ttl:    opts.withTTL,
		secure: opts.withSecureCookie,
		logger: opts.withLogger.Named("session"),
	}, nil
}

// Session returns the session with the id.
func (s *RedisStore) Session(id string) (*RedisSession, error) {
	const op = "RedisStore.Session"
	if id == "" {
		return nil, fmt.Errorf("%s: session id is empty: %w", op, oidc.ErrInvalidParameter)
	}
	return &RedisSession{store: s, key: s.prefix + id}, nil
}

// SessionFunc returns a func resolving the session of a request from the
// named cookie.  A new session id is issued in an HttpOnly, SameSite=Lax
// cookie when the request has none.  The returned func can be used as a
// callback.SessionFunc.
func (s *RedisStore) SessionFunc(cookieName string) func(http.ResponseWriter, *http.Request) (flow.SessionStore, error) {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(w http.ResponseWriter, req *http.Request) (flow.SessionStore, error) {
		const op = "RedisStore.SessionFunc"
		if c, err := req.Cookie(cookieName); err == nil && c.Value != "" {
			return s.Session(c.Value)
		}
		id, err := oidc.NewID(oidc.WithLength(sessionIDLength))
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create session id: %w", op, err)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(s.ttl.Seconds()),
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
		s.logger.Trace("issued session cookie")
		return s.Session(id)
	}
}

// RedisSession is one user's session in a RedisStore.
type RedisSession struct {
	store *RedisStore
	key   string
}

var _ flow.SessionStore = (*RedisSession)(nil)

// Get returns the JSON encoded value (as a json.RawMessage) stored under key,
// or nil when there is none.
func (r *RedisSession) Get(ctx context.Context, key string) (interface{}, error) {
	const op = "RedisSession.Get"
	b, err := r.store.client.HGet(ctx, r.key, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return json.RawMessage(b), nil
}

// Set stores the JSON encoding of value under key and refreshes the session's
// ttl.
func (r *RedisSession) Set(ctx context.Context, key string, value interface{}) error {
	const op = "RedisSession.Set"
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: unable to encode value: %w", op, err)
	}
	_, err = r.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, key, b)
		pipe.Expire(ctx, r.key, r.store.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete removes key from the session.  Removing a missing key is not an
// error.
func (r *RedisSession) Delete(ctx context.Context, key string) error {
	const op = "RedisSession.Delete"
	if err := r.store.client.HDel(ctx, r.key, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
