// Package metrics holds the Prometheus collectors for document and permission events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Domain groups the non-HTTP collectors. A nil *Domain records nothing.
type Domain struct {
	hashVerifications   *prometheus.CounterVec
	permissionRefreshes *prometheus.CounterVec
	permissionSnapshot  prometheus.Gauge
	orphanedMetadata    prometheus.Counter
}

// NewDomain creates the collectors and registers them with reg.
func NewDomain(reg prometheus.Registerer) (*Domain, error) {
	d := &Domain{
		hashVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docvault_hash_verifications_total",
			Help: "Content hash verifications by outcome.",
		}, []string{"outcome"}),
		permissionRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docvault_permission_cache_refreshes_total",
			Help: "Permission cache refreshes by outcome.",
		}, []string{"outcome"}),
		permissionSnapshot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docvault_permission_cache_loaded_timestamp_seconds",
			Help: "Creation time of the permission snapshot currently held by the cache.",
		}),
		orphanedMetadata: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docvault_orphaned_document_metadata_total",
			Help: "Deletes that removed a blob but failed to remove its metadata.",
		}),
	}
	for _, c := range []prometheus.Collector{d.hashVerifications, d.permissionRefreshes, d.permissionSnapshot, d.orphanedMetadata} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Domain) HashVerification(ok bool) {
	if d == nil {
		return
	}
	d.hashVerifications.WithLabelValues(outcome(ok)).Inc()
}

func (d *Domain) PermissionRefresh(ok bool, createdUnix float64) {
	if d == nil {
		return
	}
	d.permissionRefreshes.WithLabelValues(outcome(ok)).Inc()
	if ok {
		d.permissionSnapshot.Set(createdUnix)
	}
}

func (d *Domain) OrphanedMetadata() {
	if d == nil {
		return
	}
	d.orphanedMetadata.Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
