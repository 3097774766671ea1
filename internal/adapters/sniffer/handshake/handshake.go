// Package handshake is the Handshake Assembler: the classifier,
// validator and aggregator that consumes EAPOL Key frames and emits
// offline-cracker records, ported from
// original_source/src/auth.rs (FourWayHandshake, HandshakeStorage) onto
// the teacher's gopacket-based EAPOL parsing
// (internal/adapters/sniffer/handshake/eapol_parser.go).
package handshake

import (
	"errors"
	"fmt"

	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
)

// Sentinel rejection errors, one per spec.md §4.5 condition, replacing
// the original's bare &'static str returns the way the teacher's
// deauth engine prefers wrapped sentinel errors over ad-hoc strings.
var (
	ErrGTKIgnored          = errors.New("eapol key is a GTK update, ignoring")
	ErrM1MICPresent        = errors.New("invalid message 1: MIC should not be present")
	ErrM2MICMissing        = errors.New("invalid message 2: MIC should be present")
	ErrM2SNonceMissing     = errors.New("invalid message 2: snonce should be present")
	ErrM2ReplayOutOfWindow = errors.New("invalid message 2: replay counter not within range")
	ErrM2TooOld            = errors.New("invalid message 2: time difference too great")
	ErrM3MICMissing        = errors.New("invalid message 3: MIC should be present")
	ErrM3ANonceMissing     = errors.New("invalid message 3: anonce should be present")
	ErrM3ANonceMismatch    = errors.New("invalid message 3: anonce not close enough to message 1 anonce")
	ErrM3ReplayOutOfWindow = errors.New("invalid message 3: replay counter not within range")
	ErrM3TooOld            = errors.New("invalid message 3: time difference too great")
	ErrM4MICMissing        = errors.New("invalid message 4: MIC should be present")
	ErrM4ReplayOutOfWindow = errors.New("invalid message 4: replay counter not within range")
	ErrM4TooOld            = errors.New("invalid message 4: time difference too great")
	ErrSlotAlreadyPresent  = errors.New("handshake already complete or message already present")
)

// replayWindowRejected implements the corrected disjunctive form of the
// replay-counter check spec.md §9 calls for: the source's
// `rc <= prev.rc && rc > prev.rc+3` is unsatisfiable, so this rejects
// when rc is not strictly greater than prev, or is more than three above
// it.
func replayWindowRejected(rc, prevRC uint64) bool {
	return rc <= prevRC || rc > prevRC+3
}

// FourWayHandshake holds up to four EAPOL key slots plus the derived
// fields the offline cracker needs. A slot, once set, is immutable for
// the object's lifetime (spec.md §3 invariant).
type FourWayHandshake struct {
	Msg1, Msg2, Msg3, Msg4 *EAPOLKeyFrame
	LastMsg                *EAPOLKeyFrame

	EapolClient []byte
	MIC         [16]byte
	HasMIC      bool
	ANonce      [32]byte
	HasANonce   bool
	SNonce      [32]byte
	HasSNonce   bool

	Apless   bool
	NC       bool
	LEndian  bool
	BEndian  bool
	Pmkid    Pmkid
	HasPmkid bool

	MacAP     domain.MacAddress
	HasMacAP  bool
	MacClient domain.MacAddress
	HasClient bool
	Essid     string
	HasEssid  bool
}

// NewFourWayHandshake returns an empty handshake, ready for AddKey.
func NewFourWayHandshake() *FourWayHandshake {
	return &FourWayHandshake{}
}

// Complete reports whether every field spec.md §3 lists is present.
// AddKey never clears a contributing field, but the identity fields are
// written by the caller: Storage.AddOrUpdateHandshake rewrites
// Essid/HasEssid on every accepted key, so a later key with no essid
// makes Complete false again.
func (h *FourWayHandshake) Complete() bool {
	return h.EapolClient != nil && h.HasMIC && h.HasANonce && h.HasSNonce &&
		h.HasMacAP && h.HasClient && h.HasEssid
}

// HasM1 reports whether slot 1 is filled, used by HandshakeStorage to
// decide whether a PMKID-retrieval attack should still proceed.
func (h *FourWayHandshake) HasM1() bool { return h.Msg1 != nil }

// HasPmkidValue reports whether a valid PMKID was captured from M1.
func (h *FourWayHandshake) HasPmkidValue() bool { return h.HasPmkid }

// String renders a compact OK/-- per-slot summary for status-log/debug
// output, the Go equivalent of original_source/src/auth.rs's
// Display impl.
func (h *FourWayHandshake) String() string {
	mark := func(ok bool) string {
		if ok {
			return "OK"
		}
		return "--"
	}
	return fmt.Sprintf("[m1=%s m2=%s m3=%s m4=%s mic=%s pmkid=%s complete=%s]",
		mark(h.Msg1 != nil), mark(h.Msg2 != nil), mark(h.Msg3 != nil), mark(h.Msg4 != nil),
		mark(h.HasMIC), mark(h.HasPmkid), mark(h.Complete()))
}

const temporalWindow = 2 // seconds, spec.md §4.5/§8

func withinTemporalWindow(prev, cur *EAPOLKeyFrame) bool {
	if prev == nil {
		return true
	}
	d := cur.Timestamp.Sub(prev.Timestamp)
	if d < 0 {
		d = -d
	}
	return d.Seconds() <= temporalWindow
}

// AddKey attempts to fit key into the appropriate slot, mutating at most
// one field-group. It rejects malformed/out-of-order keys per
// spec.md §4.5; GTK updates and already-filled slots are rejected with
// sentinel errors rather than silently ignored, matching the source's
// Result-returning add_key (the "silent" framing in spec.md §7 refers to
// the caller discarding the error to try the next handshake, not to
// add_key itself).
func (h *FourWayHandshake) AddKey(key *EAPOLKeyFrame) error {
	switch key.MessageType() {
	case MessageGTK:
		return ErrGTKIgnored

	case Message1:
		if h.Msg1 != nil {
			return ErrSlotAlreadyPresent
		}
		if !key.IsMICZero() {
			return ErrM1MICPresent
		}
		if int(key.KeyDataLength) == 22 {
			if pmkid, ok := parsePmkid(key.KeyData); ok {
				h.Pmkid = pmkid
				h.HasPmkid = true
			}
		}
		h.ANonce = key.Nonce
		h.HasANonce = true
		h.Msg1 = key
		h.LastMsg = key
		return nil

	case Message2:
		if h.Msg2 != nil {
			return ErrSlotAlreadyPresent
		}
		if key.IsMICZero() {
			return ErrM2MICMissing
		}
		if key.IsNonceZero() {
			return ErrM2SNonceMissing
		}
		if h.Msg1 != nil && replayWindowRejected(key.ReplayCounter, h.Msg1.ReplayCounter) {
			return ErrM2ReplayOutOfWindow
		}
		if !withinTemporalWindow(h.Msg1, key) {
			return ErrM2TooOld
		}
		h.SNonce = key.Nonce
		h.HasSNonce = true
		h.Msg2 = key
		h.LastMsg = key
		h.EapolClient = key.Raw
		h.MIC = key.MIC
		h.HasMIC = true
		return nil

	case Message3:
		if h.Msg3 != nil {
			return ErrSlotAlreadyPresent
		}
		if key.IsMICZero() {
			return ErrM3MICMissing
		}
		if key.IsNonceZero() {
			return ErrM3ANonceMissing
		}

		if h.HasANonce {
			if !bytesEqual(key.Nonce[:28], h.ANonce[:28]) {
				return ErrM3ANonceMismatch
			}
			if !bytesEqual(key.Nonce[28:], h.ANonce[28:]) {
				h.NC = true
				switch {
				case h.ANonce[31] != key.Nonce[31]:
					h.LEndian = true
				case h.ANonce[28] != key.Nonce[28]:
					h.BEndian = true
				}
			} else {
				h.NC = false
			}
		} else {
			h.ANonce = key.Nonce
			h.HasANonce = true
			h.NC = false
		}

		if h.Msg2 != nil && replayWindowRejected(key.ReplayCounter, h.Msg2.ReplayCounter) {
			return ErrM3ReplayOutOfWindow
		}
		if !withinTemporalWindow(h.Msg2, key) {
			return ErrM3TooOld
		}

		h.Msg3 = key
		h.LastMsg = key
		return nil

	case Message4:
		if h.Msg4 != nil {
			return ErrSlotAlreadyPresent
		}
		if key.IsMICZero() {
			return ErrM4MICMissing
		}
		if h.Msg3 != nil && replayWindowRejected(key.ReplayCounter, h.Msg3.ReplayCounter) {
			return ErrM4ReplayOutOfWindow
		}
		if !withinTemporalWindow(h.Msg3, key) {
			return ErrM4TooOld
		}

		h.Msg4 = key
		h.LastMsg = key

		if !h.HasSNonce && !key.IsNonceZero() {
			h.SNonce = key.Nonce
			h.HasSNonce = true
			if h.EapolClient == nil {
				h.MIC = key.MIC
				h.HasMIC = true
				h.EapolClient = key.Raw
			}
		}
		return nil

	default:
		return ErrSlotAlreadyPresent
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
