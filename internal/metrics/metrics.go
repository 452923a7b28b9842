package metrics

import (
	"github.com/gabrielcapilla/focusguard/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	TriggerPlayIntent  = "play_intent"
	TriggerRemoteClaim = "remote_claim"
)

var (
	verdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focusguard_verdicts_total",
			Help: "Arbitration verdicts by trigger and outcome",
		},
		[]string{"instance", "trigger", "verdict"},
	)

	claimsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focusguard_claims_published_total",
			Help: "Records written to the shared registers",
		},
		[]string{"instance", "register", "result"},
	)

	elementBindings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focusguard_element_bindings_total",
			Help: "Times the playback monitor was bound to a new element",
		},
		[]string{"instance"},
	)

	playing = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "focusguard_playing",
			Help: "1 while the bound element is playing",
		},
		[]string{"instance"},
	)
)

// Every series carries the instance id so several instances can share one
// process registry.

func ObserveVerdict(instance, trigger string, v domain.Verdict) {
	verdictsTotal.WithLabelValues(instance, trigger, v.String()).Inc()
}

func ObservePublish(instance, register string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	claimsPublished.WithLabelValues(instance, register, result).Inc()
}

func ObserveBinding(instance string) { elementBindings.WithLabelValues(instance).Inc() }

func SetPlaying(instance string, p bool) {
	if p {
		playing.WithLabelValues(instance).Set(1)
		return
	}
	playing.WithLabelValues(instance).Set(0)
}

// Forget drops the gauge of a stopped instance.
func Forget(instance string) {
	playing.DeleteLabelValues(instance)
}
