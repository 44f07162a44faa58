// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

// flow is an example relying party.  The /login route authenticates the user
// with the provider and keeps the user's session in Redis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/capflow/oidc"
	"github.com/hashicorp/capflow/oidc/callback"
	"github.com/hashicorp/capflow/oidc/flow"
	"github.com/hashicorp/capflow/oidc/session"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// List of required configuration environment variables
const (
	clientID     = "OIDC_CLIENT_ID"
	clientSecret = "OIDC_CLIENT_SECRET"
	issuer       = "OIDC_ISSUER"
	port         = "OIDC_PORT"
	redisAddr    = "REDIS_ADDR"
)

func envConfig() (map[string]string, error) {
	const op = "envConfig"
	env := map[string]string{}
	for _, k := range []string{clientID, clientSecret, issuer, port, redisAddr} {
		v := os.Getenv(k)
		if v == "" {
			return nil, fmt.Errorf("%s: %s is empty", op, k)
		}
		env[k] = v
	}
	return env, nil
}

func main() {
	useUserInfo := flag.Bool("userinfo", false, "fetch the user's claims from the userinfo endpoint")
	maxAge := flag.Int("max-age", 0, "max_age of authentications in seconds (0 to disable)")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "flow",
		Level: hclog.LevelFromString(os.Getenv("LOG_LEVEL")),
	})

	env, err := envConfig()
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		return
	}
	redirectURL := fmt.Sprintf("http://localhost:%s/login", env[port])

	pc, err := oidc.NewConfig(
		env[issuer],
		env[clientID],
		oidc.ClientSecret(env[clientSecret]),
		[]oidc.Alg{oidc.RS256},
		[]string{redirectURL},
		oidc.WithLogger(logger),
		oidc.WithScopes("email", "profile"),
	)
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}
	p, err := oidc.NewProvider(pc)
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}
	defer p.Done()

	v := flow.Simple(verifyTokens)
	if *useUserInfo {
		v = flow.WithUserInfo(verifyUserInfo)
	}
	flowOpts := []oidc.Option{flow.WithLogger(logger)}
	if *maxAge > 0 {
		flowOpts = append(flowOpts, flow.WithMaxAge(*maxAge))
	}
	fc, err := flow.NewConfig(p, v, flowOpts...)
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}
	f, err := flow.New(fc)
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}

	rdb := redis.NewClient(&redis.Options{Addr: env[redisAddr]})
	defer rdb.Close()
	store, err := session.NewRedisStore(rdb, session.WithSecureCookie(false), session.WithLogger(logger))
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}

	reg := prometheus.NewRegistry()
	login, err := callback.Authenticate(
		f,
		store.SessionFunc(session.DefaultCookieName),
		successFn,
		failFn,
		errorFn,
		callback.WithMetrics(callback.NewMetrics(reg)),
		callback.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Get("/login", login)
	r.Post("/login", login)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf("localhost:%s", env[port]),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srvCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "login", redirectURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvCh <- err
		}
	}()

	select {
	case err := <-srvCh:
		fmt.Fprintf(os.Stderr, "server closed with error: %s", err.Error())
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "Interrupted")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
