package keyboard

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	keyEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keyinject_key_events_total",
			Help: "Remote key events handled, by direction and outcome",
		},
		[]string{"direction", "result"},
	)
	fakeModifierEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keyinject_fake_modifier_events_total",
			Help: "Temporary modifier presses and releases synthesized around keys",
		},
	)
	allocatedKeysymsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keyinject_allocated_keysyms_total",
			Help: "Keysyms added to the host layout because no key produced them",
		},
	)
	duplicateAssignmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keyinject_duplicate_assignments_total",
			Help: "Stale pressed-key entries evicted while recording a press",
		},
	)

	metricsRegistered sync.Once
)

const (
	resultOK                = "ok"
	resultRaw               = "raw"
	resultIgnored           = "ignored"
	resultUnmatchedRelease  = "unmatched_release"
	resultModifierFailure   = "modifier_failure"
	resultResolutionFailure = "resolution_failure"
)

// RegisterMetrics registers the engine metrics with reg. Later calls are no-ops.
func RegisterMetrics(reg prometheus.Registerer) {
	metricsRegistered.Do(func() {
		reg.MustRegister(
			keyEventsTotal,
			fakeModifierEventsTotal,
			allocatedKeysymsTotal,
			duplicateAssignmentsTotal,
		)
	})
}

func direction(down bool) string {
	if down {
		return "down"
	}
	return "up"
}
