package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/safehome/internal/service/security"
)

func TestMetrics_ObserveCycle(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveCycle(security.CycleReport{Armed: 3})
	m.ObserveCycle(security.CycleReport{Armed: 2, Tripped: 2, Bypassed: 1, Alarmed: true})

	require.InDelta(t, 2, testutil.ToFloat64(m.cycles), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.alarms), 0)
	require.InDelta(t, 2, testutil.ToFloat64(m.armed), 0)

	expected := `
# HELP safehome_intrusions_total Tripped armed sensors seen per cycle, split by bypass.
# TYPE safehome_intrusions_total counter
safehome_intrusions_total{bypassed="false"} 1
safehome_intrusions_total{bypassed="true"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "safehome_intrusions_total"))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.Error(t, err)
}
