package observability_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/aretw0/flowcharts/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, observability.OutcomeOK, observability.Outcome(nil))
	assert.Equal(t, observability.OutcomeNotFound, observability.Outcome(fmt.Errorf("wrap: %w", domain.ErrFlowchartNotFound)))
	assert.Equal(t, observability.OutcomeInvalid, observability.Outcome(domain.Validate(nil, []domain.Edge{{Source: "a", Target: "b"}})))
	assert.Equal(t, observability.OutcomeError, observability.Outcome(fmt.Errorf("redis down")))
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.Observe("create", observability.OutcomeOK, 2*time.Millisecond)
	m.Observe("create", observability.OutcomeOK, 3*time.Millisecond)
	m.Observe("get", observability.OutcomeNotFound, time.Millisecond)

	expected := `
# HELP flowcharts_operations_total Total number of flowchart operations by outcome
# TYPE flowcharts_operations_total counter
flowcharts_operations_total{operation="create",outcome="ok"} 2
flowcharts_operations_total{operation="get",outcome="not_found"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "flowcharts_operations_total")
	assert.NoError(t, err)

	rr := httptest.NewRecorder()
	observability.Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "flowcharts_operation_duration_seconds_bucket")
}
