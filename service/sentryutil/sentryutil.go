// Package sentryutil wires github.com/getsentry/sentry-go into a context so
// panics and reported errors in the indexer's background goroutines reach
// Sentry with a per-goroutine hub instead of racing on the global one.
package sentryutil

import (
	"context"

	"github.com/getsentry/sentry-go"

	"github.com/afterlife-xyz/afterlife/service/logger"
)

type hubContextKey struct{}

// NewSentryHubContext returns a context carrying a clone of the current
// hub, safe to hand to a new goroutine.
func NewSentryHubContext(ctx context.Context) context.Context {
	hub := sentry.CurrentHub().Clone()
	return context.WithValue(ctx, hubContextKey{}, hub)
}

func hubFromContext(ctx context.Context) *sentry.Hub {
	if hub, ok := ctx.Value(hubContextKey{}).(*sentry.Hub); ok {
		return hub
	}
	return sentry.CurrentHub()
}

// ReportError captures err on ctx's hub, tagged with any scopes passed in.
func ReportError(ctx context.Context, err error, scopeFuncs ...func(scope *sentry.Scope)) {
	hub := hubFromContext(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		for _, f := range scopeFuncs {
			f(scope)
		}
		hub.CaptureException(err)
	})
	logger.For(ctx).WithError(err).Error("reported error to sentry")
}

// RecoverAndRaise recovers a panic on ctx's hub, logs it, and reports it to
// Sentry before letting the goroutine exit; it does not re-panic, since it
// guards background work that must not take the whole process down.
func RecoverAndRaise(ctx context.Context) {
	if r := recover(); r != nil {
		hub := hubFromContext(ctx)
		hub.Recover(r)
		logger.For(ctx).Errorf("recovered panic: %v", r)
	}
}
