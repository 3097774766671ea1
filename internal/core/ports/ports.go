// Package ports defines the narrow interfaces the Attack Engine and
// Handshake Assembler consume from their external collaborators: the
// radio socket, the device registry, and the status log. Per spec.md §1
// these collaborators are out of scope — this package owns only the
// minimal interface shape the core depends on, grounded on
// internal/adapters/sniffer/injection.PacketInjector and the
// oxide.status_log.add_message(...) call sites of
// original_source/src/attack.rs.
package ports

import "github.com/lcalzada-xor/wmapattack/internal/core/domain"

// PacketTransmitter performs the single blocking write the core ever
// issues: handing a fully-serialized 802.11 frame (radiotap-wrapped) to
// the radio socket. spec.md §5 calls out this write as the only
// suspension point in the system.
type PacketTransmitter interface {
	Transmit(frame []byte) error
}

// DeviceRegistry is the external mapping from MAC address to AP/station
// records. This module owns only the read/mutate surface the Attack
// Engine needs; persistence, fingerprinting, and the rest of the registry
// are out of scope per spec.md §1.
type DeviceRegistry interface {
	// GetAccessPoint returns the AP record for mac, or ok=false if unknown.
	GetAccessPoint(mac domain.MacAddress) (ap *domain.AccessPoint, ok bool)
}

// MessageLevel classifies a status log entry the way the teacher's
// status.MessageType enum does.
type MessageLevel int

const (
	LevelInfo MessageLevel = iota
	LevelWarning
	LevelError
)

// StatusLog is the external diagnostic sink. The core never aborts on its
// own account (spec.md §7); all filter-skips, state transitions, and
// rejected-key diagnostics flow through here instead.
type StatusLog interface {
	Add(level MessageLevel, message string)
}
