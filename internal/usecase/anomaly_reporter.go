package usecase

import (
	"context"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AnomalyReporter logs every anomaly of a tick and counts it by code and severity.
type AnomalyReporter struct {
	logger  *logging.Logger
	counter metric.Int64Counter
}

func NewAnomalyReporter(logger *logging.Logger, meter metric.Meter) *AnomalyReporter {
	if logger == nil {
		logger = logging.Default()
	}
	if meter == nil {
		meter = otel.Meter("match-reconciler/internal/usecase")
	}

	reporter := &AnomalyReporter{logger: logger}
	counter, err := meter.Int64Counter(
		"reconcile.anomalies",
		metric.WithDescription("Data-quality anomalies raised while reconciling fixtures."),
		metric.WithUnit("{anomaly}"),
	)
	if err != nil {
		logger.Warn("create anomaly counter failed", "error", err)
	} else {
		reporter.counter = counter
	}
	return reporter
}

func (r *AnomalyReporter) Report(ctx context.Context, fixtureExternalID int64, anomalies anomaly.List) {
	if r == nil {
		return
	}
	for _, item := range anomalies {
		args := make([]any, 0, 6+len(item.Context)*2)
		args = append(args,
			"fixture_id", fixtureExternalID,
			"anomaly_code", string(item.Code),
			"severity", string(item.Severity),
		)
		for key, value := range item.Context {
			args = append(args, key, value)
		}
		r.logger.LogContext(ctx, severityLevel(item.Severity), item.Message, args...)

		if r.counter != nil {
			r.counter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("code", string(item.Code)),
				attribute.String("severity", string(item.Severity)),
			))
		}
	}
}

func severityLevel(severity anomaly.Severity) logging.Level {
	switch severity {
	case anomaly.SeverityError:
		return logging.LevelError
	case anomaly.SeverityWarn:
		return logging.LevelWarn
	default:
		return logging.LevelInfo
	}
}
