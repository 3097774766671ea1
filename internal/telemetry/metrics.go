package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesTransmitted counts every forged 802.11 frame the attack
	// engine hands to the transmitter, labeled by frame type (probe,
	// auth, assoc, deauth_from_ap, deauth_from_client, deauth_broadcast).
	FramesTransmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapattack",
			Name:      "frames_transmitted_total",
			Help:      "Total number of forged 802.11 frames transmitted by the attack engine",
		},
		[]string{"type"},
	)

	// KeysRejected counts EAPOL Key frames the handshake assembler
	// refused to fold into a session, labeled by the key's message type
	// (m1, m2, m3, m4, gtk, unknown).
	KeysRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapattack",
			Name:      "keys_rejected_total",
			Help:      "Total number of EAPOL Key frames rejected by the handshake assembler",
		},
		[]string{"message"},
	)

	// HandshakesCompleted counts four-way handshakes that reached
	// Complete() for the first time.
	HandshakesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapattack",
			Name:      "handshakes_completed_total",
			Help:      "Total number of four-way handshakes assembled to completion",
		},
		[]string{},
	)

	// PmkidCaptured counts PMKIDs extracted from Message 1 frames.
	PmkidCaptured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapattack",
			Name:      "pmkid_captured_total",
			Help:      "Total number of PMKIDs captured from Message 1 key data",
		},
		[]string{},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(FramesTransmitted)
		prometheus.DefaultRegisterer.Register(KeysRejected)
		prometheus.DefaultRegisterer.Register(HandshakesCompleted)
		prometheus.DefaultRegisterer.Register(PmkidCaptured)
	})
}
