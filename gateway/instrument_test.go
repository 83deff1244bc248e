package gateway

import (
	"context"
	"testing"

	"github.com/iov-one/blendsafe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestInstrument(t *testing.T) {
	hd, err := NewHDGateway(testSeed, TestKeyName)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	gw := Instrument(hd, log.NewNopLogger(), NewMetrics(reg))

	ctx := context.Background()
	path := blendsafe.DerivationPath{[]byte("a")}
	_, err = gw.PublicKey(ctx, path)
	require.NoError(t, err)
	_, err = gw.Sign(ctx, path, make([]byte, 32))
	require.NoError(t, err)
	_, err = gw.Sign(ctx, path, []byte("bad"))
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	var calls, failures uint64
	for _, mf := range families {
		switch mf.GetName() {
		case "blendsafe_gateway_call_duration_seconds":
			for _, m := range mf.GetMetric() {
				calls += m.GetHistogram().GetSampleCount()
			}
		case "blendsafe_gateway_failures_total":
			for _, m := range mf.GetMetric() {
				failures += uint64(m.GetCounter().GetValue())
			}
		}
	}
	require.Equal(t, uint64(3), calls)
	require.Equal(t, uint64(1), failures)

	// registering again reuses the collectors
	m := NewMetrics(reg)
	require.NotNil(t, m.Duration)
}
