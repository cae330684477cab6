// Package metrics registers a core.EventCallback that folds spec.md §6's
// lifecycle notifications (ALLOCATED/CREATED/DELETED/TASK_STARTUP) into
// prometheus counters and gauges, grounded on the teacher's use of
// github.com/prometheus/client_golang for its own xaction/registry stats.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nasa-osal/osal-go/core"
)

// Sink owns one event counter family labelled by event kind and object
// type, plus one live-objects gauge family per object type, scoped under a
// caller-supplied prometheus.Registerer so a process embedding this module
// can fold the series into its own /metrics endpoint rather than always
// claiming the global default registry.
type Sink struct {
	events *prometheus.CounterVec
	live   *prometheus.GaugeVec
}

// NewSink creates and registers the metric families on reg. Passing
// prometheus.DefaultRegisterer matches the common single-process case.
func NewSink(reg prometheus.Registerer) *Sink {
	s := &Sink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osal",
			Name:      "object_events_total",
			Help:      "Count of core object lifecycle events by kind and object type.",
		}, []string{"kind", "object_type"}),
		live: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "osal",
			Name:      "objects_live",
			Help:      "Number of objects currently allocated per type (created minus deleted).",
		}, []string{"object_type"}),
	}
	reg.MustRegister(s.events, s.live)
	return s
}

// Callback returns the core.EventCallback to pass to
// Manager.RegisterEventCallback. It never vetoes a create: the return
// value is always 0, since observability must not have side effects on
// the object lifecycle it is observing.
func (s *Sink) Callback() core.EventCallback {
	return func(kind core.EventKind, id core.ObjectID, data any) int32 {
		objType := id.Type().String()
		s.events.WithLabelValues(kind.String(), objType).Inc()

		switch kind {
		case core.EventResourceCreated:
			s.live.WithLabelValues(objType).Inc()
		case core.EventResourceDeleted:
			s.live.WithLabelValues(objType).Dec()
		}
		return 0
	}
}
