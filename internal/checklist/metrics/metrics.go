package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SavesTotal          prometheus.Counter
	PartialSavesTotal   prometheus.Counter
	FieldsEliminated    prometheus.Counter
	SyncsSuppressed     prometheus.Counter
	RoutingAmbiguities  prometheus.Counter
	TogglesRejected     prometheus.Counter
	RecordsDisappeared  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		SavesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docket_checklist_saves_total",
			Help: "Total number of full checklist saves attempted",
		}),
		PartialSavesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docket_checklist_saves_partial_total",
			Help: "Total number of full saves that completed with unwritable fields",
		}),
		FieldsEliminated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docket_checklist_fields_eliminated_total",
			Help: "Total number of fields dropped from save batches due to schema drift",
		}),
		SyncsSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docket_checklist_syncs_suppressed_total",
			Help: "Total number of debounced syncs skipped while credentials were missing",
		}),
		RoutingAmbiguities: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docket_checklist_routing_ambiguous_total",
			Help: "Total number of category values that matched more than one view",
		}),
		TogglesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docket_checklist_toggles_rejected_total",
			Help: "Total number of required toggles rejected by active conditions",
		}),
		RecordsDisappeared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docket_checklist_records_disappeared_total",
			Help: "Total number of saves that found the record deleted out of band",
		}),
	}
}

func (m *Metrics) IncrementSaves() {
	m.SavesTotal.Inc()
}

func (m *Metrics) IncrementPartialSaves() {
	m.PartialSavesTotal.Inc()
}

func (m *Metrics) AddFieldsEliminated(count int) {
	m.FieldsEliminated.Add(float64(count))
}

func (m *Metrics) IncrementSyncsSuppressed() {
	m.SyncsSuppressed.Inc()
}

func (m *Metrics) IncrementRoutingAmbiguities() {
	m.RoutingAmbiguities.Inc()
}

func (m *Metrics) IncrementTogglesRejected() {
	m.TogglesRejected.Inc()
}

func (m *Metrics) IncrementRecordsDisappeared() {
	m.RecordsDisappeared.Inc()
}
