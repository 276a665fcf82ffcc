package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAnomalyReporter_LogsBySeverity(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	reporter := NewAnomalyReporter(logging.NewWithCore(core), noop.NewMeterProvider().Meter("test"))

	var anomalies anomaly.List
	anomalies.Info(anomaly.CodeLineupUnavailable, "lineups not published yet", nil)
	anomalies.Warn(anomaly.CodeFallbackNameMatch, "identity drift resolved by display name", map[string]any{"name": "J. Doe"})
	anomalies.Error(anomaly.CodeMassDeletion, "more than half of the stored records would be deleted", nil)

	reporter.Report(context.Background(), 9001, anomalies)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("unexpected log count: got=%d want=3", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, entry := range entries {
		if entry.Level != wantLevels[i] {
			t.Fatalf("unexpected level for %q: got=%s want=%s", entry.Message, entry.Level, wantLevels[i])
		}
		if entry.ContextMap()["fixture_id"] != int64(9001) {
			t.Fatalf("missing fixture id field: %+v", entry.ContextMap())
		}
	}
	if entries[1].ContextMap()["name"] != "J. Doe" || entries[1].ContextMap()["anomaly_code"] != string(anomaly.CodeFallbackNameMatch) {
		t.Fatalf("anomaly context must be logged: %+v", entries[1].ContextMap())
	}
}

func TestAnomalyReporter_NilIsSafe(t *testing.T) {
	t.Parallel()

	var reporter *AnomalyReporter
	reporter.Report(context.Background(), 1, anomaly.List{{Code: anomaly.CodeSequenceGap}})
}
