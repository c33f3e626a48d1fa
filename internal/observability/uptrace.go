package observability

import (
	"context"
	"strings"

	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/matchsync/internal/config"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
)

// InitUptrace exports reconcile cycle traces to Uptrace. Every span carries
// the configured game titles and cycle schedule as resource attributes so
// traces from workers scraping different titles can be told apart.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	noop := func(context.Context) error { return nil }
	switch {
	case !cfg.UptraceEnabled:
		logger.Info("cycle tracing disabled", "reason", "UPTRACE_ENABLED=false")
		return noop, nil
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		logger.Info("cycle tracing disabled", "reason", "UPTRACE_DSN empty")
		return noop, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(resourceAttributes(cfg)...),
	)

	logger.Info("cycle tracing enabled",
		"service_name", cfg.ServiceName,
		"environment", cfg.AppEnv,
		"game_titles", cfg.GameTitles,
		"cycle_schedule", cfg.CycleSchedule,
	)

	return uptrace.Shutdown, nil
}

func resourceAttributes(cfg config.Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.StringSlice("matchsync.game_titles", cfg.GameTitles),
	}
	if cfg.CycleSchedule != "" {
		attrs = append(attrs, attribute.String("matchsync.cycle_schedule", cfg.CycleSchedule))
	}
	return attrs
}
