package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/login", "POST", 303, 20*time.Millisecond)
	m.RecordRequest("/login", "POST", 303, 10*time.Millisecond)
	m.RecordError("/login", "POST", "INTERNAL_ERROR")
	m.RecordSubmission("login", "failed")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/login|POST|303"])
	assert.Equal(t, int64(30), snap.RequestLatency["/login|POST|303"])
	assert.Equal(t, int64(1), snap.Errors["/login|POST|INTERNAL_ERROR"])
	assert.Equal(t, int64(1), snap.Submissions["login|failed"])

	m.RecordSubmission("login", "failed")
	assert.Equal(t, int64(1), snap.Submissions["login|failed"], "snapshot must not alias live counters")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordSubmission("register", "succeeded")
	assert.Empty(t, m.Snapshot().Requests)
}
