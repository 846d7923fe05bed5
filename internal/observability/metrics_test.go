package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/v1/issues", "POST", 200, 1500*time.Millisecond)
	m.RecordRequest("/v1/issues", "POST", 200, 500*time.Millisecond)
	m.RecordError("/v1/offers/:offerID/escalate", "POST", "NOT_OWNER")
	m.RecordOutcome("guidance")
	m.RecordOutcome("guidance")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/v1/issues|POST|200"])
	assert.Equal(t, int64(2000), snap.LatencyMs["/v1/issues|POST|200"])
	assert.Equal(t, int64(1), snap.Errors["/v1/offers/:offerID/escalate|POST|NOT_OWNER"])
	assert.Equal(t, int64(2), snap.Outcomes["guidance"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordOutcome("guidance")
	m.RecordRequest("/", "GET", 200, time.Second)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Outcomes)
}
