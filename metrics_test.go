package remap

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	m.addCandidates(10)
	m.addCandidates(5)
	m.addWeights(3)
	m.addDegenerate("source")
	m.addDegenerate("source")
	m.observeRun(time.Millisecond)
	assert.Equal(t, 15.0, testutil.ToFloat64(m.candidatePairs))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.nonzeroWeights))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.degenerate.WithLabelValues("source")))
	assert.Zero(t, testutil.ToFloat64(m.degenerate.WithLabelValues("target")))

	var none *Metrics
	assert.NotPanics(t, func() {
		none.addCandidates(1)
		none.addWeights(1)
		none.addDegenerate("target")
		none.observeRun(time.Second)
	})
}
