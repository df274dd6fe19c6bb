package authnego

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserveSelectionsAndAcquisitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.ObserveSelections("cifs", 3)
	m.ObserveAcquisition(MechKerberos, nil)
	m.ObserveAcquisition(MechNTLM, assertErr)

	families, err := reg.Gather()
	require.NoError(t, err)

	var sawSelections, sawAcquisitions bool
	for _, fam := range families {
		switch fam.GetName() {
		case "authnego_selections_total":
			sawSelections = true
			require.Len(t, fam.Metric, 1)
			assertCounterValue(t, fam.Metric[0], 3)
		case "authnego_acquisitions_total":
			sawAcquisitions = true
			require.Len(t, fam.Metric, 2)
		}
	}
	require.True(t, sawSelections)
	require.True(t, sawAcquisitions)
}

func TestMetricsNilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSelections("cifs", 1)
	m.ObserveAcquisition(MechKerberos, nil)
}

var assertErr = ErrNoMechanism

func assertCounterValue(t *testing.T, metric *dto.Metric, want float64) {
	t.Helper()
	require.NotNil(t, metric.Counter)
	require.Equal(t, want, metric.Counter.GetValue())
}
