package keyinject

import (
	"sync"

	"github.com/jetkvm/keyinject/internal/keyboard"
	"github.com/prometheus/client_golang/prometheus"
)

var backendInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "keyinject_backend_info",
		Help: "Input backend in use, set to 1 for the active one",
	},
	[]string{"backend"},
)

var metricsRegistered sync.Once

// RegisterMetrics registers the injector and engine metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	metricsRegistered.Do(func() {
		reg.MustRegister(backendInfo)
	})
	keyboard.RegisterMetrics(reg)
}
