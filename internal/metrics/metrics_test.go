package metrics

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDBStats_Idempotent(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RegisterDBStats(db, "metrics_test"))
	require.NoError(t, RegisterDBStats(db, "metrics_test"))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(CacheRequests.WithLabelValues("hit"))
	CacheRequests.WithLabelValues("hit").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CacheRequests.WithLabelValues("hit")))
}
