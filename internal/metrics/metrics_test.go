package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomain(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, err := NewDomain(reg)
	require.NoError(t, err)

	d.HashVerification(true)
	d.HashVerification(false)
	d.HashVerification(false)
	d.PermissionRefresh(true, 1700000000)
	d.PermissionRefresh(false, 0)
	d.OrphanedMetadata()

	assert.Equal(t, 1.0, testutil.ToFloat64(d.hashVerifications.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(d.hashVerifications.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.permissionRefreshes.WithLabelValues("failure")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(d.permissionSnapshot))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.orphanedMetadata))

	_, err = NewDomain(reg)
	assert.Error(t, err, "registering twice on the same registry must fail")
}

func TestDomain_NilIsNoop(t *testing.T) {
	var d *Domain
	assert.NotPanics(t, func() {
		d.HashVerification(true)
		d.PermissionRefresh(true, 1)
		d.OrphanedMetadata()
	})
}
