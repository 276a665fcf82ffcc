package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"github.com/riskibarqy/match-reconciler/internal/platform/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDelay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0s", normalizeDelay(0))
	assert.Equal(t, "0s", normalizeDelay(-time.Second))
	assert.Equal(t, "17s", normalizeDelay(17*time.Second))
	assert.Equal(t, "2s", normalizeDelay(1500*time.Millisecond))
}

func TestValidateHTTPBaseURL(t *testing.T) {
	t.Parallel()

	got, err := validateHTTPBaseURL(" https://qstash.upstash.io/ ")
	require.NoError(t, err)
	assert.Equal(t, "https://qstash.upstash.io", got)

	for _, raw := range []string{"", "ftp://example.com", "https://"} {
		_, err := validateHTTPBaseURL(raw)
		assert.Error(t, err, raw)
	}
}

func TestQStashPublisher_EnqueueSendsUpstashHeaders(t *testing.T) {
	t.Parallel()

	var (
		gotPath   string
		gotHeader http.Header
		gotBody   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(server.Close)

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://reconciler.example.com/",
		Retries:          3,
		InternalJobToken: "job-token",
	}, logging.NewNop())

	payload := map[string]any{"fixture_id": 9001, "phase": "live"}
	err := publisher.Enqueue(context.Background(), "v1/internal/jobs/fixture-tick", payload, 17*time.Second, "fixture-tick-9001")
	require.NoError(t, err)

	assert.Equal(t, "/v2/publish/https://reconciler.example.com/v1/internal/jobs/fixture-tick", gotPath)
	assert.Equal(t, "Bearer qstash-token", gotHeader.Get("Authorization"))
	assert.Equal(t, "17s", gotHeader.Get("Upstash-Delay"))
	assert.Equal(t, "3", gotHeader.Get("Upstash-Retries"))
	assert.Equal(t, "fixture-tick-9001", gotHeader.Get("Upstash-Deduplication-Id"))
	assert.Equal(t, "job-token", gotHeader.Get("Upstash-Forward-X-Internal-Job-Token"))
	assert.Equal(t, "live", gotBody["phase"])
	assert.EqualValues(t, 9001, gotBody["fixture_id"])
}

func TestQStashPublisher_ImmediateJobOmitsDelay(t *testing.T) {
	t.Parallel()

	var delayHeader atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delayHeader.Store(r.Header.Get("Upstash-Delay"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       server.URL,
		Token:         "t",
		TargetBaseURL: "https://reconciler.example.com",
	}, nil)

	require.NoError(t, publisher.Enqueue(context.Background(), "/v1/internal/jobs/fixture-tick", nil, 0, ""))
	assert.Equal(t, "", delayHeader.Load())
}

func TestQStashPublisher_BreakerOpensOnRetryableStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream busy", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:        server.URL,
		Token:          "t",
		TargetBaseURL:  "https://reconciler.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute},
	}, logging.NewNop())

	err := publisher.Enqueue(context.Background(), "/jobs", nil, time.Second, "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "status=503"), err.Error())

	err = publisher.Enqueue(context.Background(), "/jobs", nil, time.Second, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily unavailable")
	assert.Equal(t, int32(1), calls.Load())
}

func TestQStashPublisher_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	publisher := NewQStashPublisher(QStashPublisherConfig{Token: "t", TargetBaseURL: "https://x.example.com"}, logging.NewNop())
	assert.Error(t, publisher.Enqueue(context.Background(), "/jobs", nil, 0, ""))
	assert.Error(t, publisher.Enqueue(context.Background(), "  ", nil, 0, ""))
}
