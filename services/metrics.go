package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_store_operations_total",
			Help: "Store operations by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)

	checklistsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "checklists_total",
			Help: "Number of checklists in the collection after the last store operation",
		},
		[]string{"backend"},
	)

	documentResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checklist_document_resets_total",
			Help: "Times an unreadable checklist document was replaced with an empty one",
		},
	)

	snapshotUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_snapshot_uploads_total",
			Help: "Snapshot uploads by result",
		},
		[]string{"result"},
	)
)

func observeStoreOp(backend, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOperationsTotal.WithLabelValues(backend, operation, result).Inc()
}

// RecordSnapshotUpload counts a snapshot upload attempt.
func RecordSnapshotUpload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	snapshotUploadsTotal.WithLabelValues(result).Inc()
}
