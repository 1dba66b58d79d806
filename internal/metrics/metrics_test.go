package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncFormSubmission(t *testing.T) {
	before := testutil.ToFloat64(FormSubmissionsTotal.WithLabelValues("produto", "success"))
	IncFormSubmission("produto", "success")
	after := testutil.ToFloat64(FormSubmissionsTotal.WithLabelValues("produto", "success"))
	assert.Equal(t, before+1, after)
}

func TestObserveDuration_IgnoresCounters(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveDuration(APIRequestsTotal, time.Now(), "bancas", "GET", "200")
		ObserveDuration(APIRequestDuration, time.Now().Add(-time.Millisecond), "bancas", "GET")
	})
	assert.Equal(t, 1, testutil.CollectAndCount(APIRequestDuration))
}
