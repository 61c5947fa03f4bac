package telemetry

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

const sentryFlushTimeout = 2 * time.Second

// InitErrorReporting configures Sentry, the way
// reddit-cluster-map/backend/internal/errorreporting does: a no-op unless
// SENTRY_DSN is set in the environment.
func InitErrorReporting(environment string) error {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("telemetry: init sentry: %w", err)
	}
	return nil
}

// ReportFatal captures a fatal messaging or numeric error (spec.md §7)
// before the process exits nonzero.
func ReportFatal(err error, rank, step int) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("rank", fmt.Sprintf("%d", rank))
		scope.SetTag("step", fmt.Sprintf("%d", step))
		sentry.CaptureException(err)
	})
	sentry.Flush(sentryFlushTimeout)
}
