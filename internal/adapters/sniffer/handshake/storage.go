package handshake

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
	"github.com/lcalzada-xor/wmapattack/internal/telemetry"
)

var tracer = otel.Tracer("wmapattack")

// messageLabel renders key's message slot as a metrics label.
func messageLabel(key *EAPOLKeyFrame) string {
	switch key.MessageType() {
	case Message1:
		return "m1"
	case Message2:
		return "m2"
	case Message3:
		return "m3"
	case Message4:
		return "m4"
	case MessageGTK:
		return "gtk"
	default:
		return "unknown"
	}
}

// HandshakeSessionKey identifies a (AP, client) pair's handshake bucket.
type HandshakeSessionKey struct {
	APMac     domain.MacAddress
	ClientMac domain.MacAddress
}

// Storage is the concurrency-safe HandshakeStorage spec.md §3/§4.4
// describes: a mapping from session key to an ordered list of
// FourWayHandshake attempts, guarded by a mutex the way the teacher
// guards every shared in-memory map (e.g. HandshakeManager's
// bssidToEssid).
type Storage struct {
	mu         sync.RWMutex
	handshakes map[HandshakeSessionKey][]*FourWayHandshake
}

// NewStorage returns an empty HandshakeStorage.
func NewStorage() *Storage {
	return &Storage{handshakes: make(map[HandshakeSessionKey][]*FourWayHandshake)}
}

// Count returns the total number of handshake attempts across all sessions.
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, list := range s.handshakes {
		n += len(list)
	}
	return n
}

// HasCompleteHandshakeForAP reports whether any session keyed to apMac
// holds a complete handshake, the short-circuit every Attack Engine
// entrypoint consults first (spec.md §4.1/§4.2/§4.3).
func (s *Storage) HasCompleteHandshakeForAP(apMac domain.MacAddress) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, list := range s.handshakes {
		if key.APMac != apMac {
			continue
		}
		for _, hs := range list {
			if hs.Complete() {
				return true
			}
		}
	}
	return false
}

// HasM1ForAP reports whether any session keyed to apMac has captured an
// M1, the guard m1_retrieval_attack uses to avoid re-soliciting once a
// PMKID attempt is already underway.
func (s *Storage) HasM1ForAP(apMac domain.MacAddress) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, list := range s.handshakes {
		if key.APMac != apMac {
			continue
		}
		for _, hs := range list {
			if hs.HasM1() {
				return true
			}
		}
	}
	return false
}

// FindHandshakesByAP returns a snapshot of every handshake list keyed to
// apMac, indexed by client MAC.
func (s *Storage) FindHandshakesByAP(apMac domain.MacAddress) map[domain.MacAddress][]*FourWayHandshake {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.MacAddress][]*FourWayHandshake)
	for key, list := range s.handshakes {
		if key.APMac != apMac {
			continue
		}
		cp := make([]*FourWayHandshake, len(list))
		copy(cp, list)
		out[key.ClientMac] = cp
	}
	return out
}

// AddOrUpdateHandshake attaches key to an existing partial handshake for
// (apMac, clientMac) or starts a new one, per spec.md §4.4's
// clone-and-return-on-first-accept ordering rule: the session's existing
// handshakes are tried in insertion order, and the first one whose
// AddKey accepts wins. A new handshake is appended only if its own
// AddKey call (on the fresh, empty object) succeeds — a failing first key
// propagates its error instead of leaving an empty handshake in storage,
// matching original_source/src/auth.rs's
// `new_handshake.add_key(&new_key)?`.
func (s *Storage) AddOrUpdateHandshake(ctx context.Context, apMac, clientMac domain.MacAddress, key *EAPOLKeyFrame, essid string, hasEssid bool) (*FourWayHandshake, error) {
	_, span := tracer.Start(ctx, "AddOrUpdateHandshake")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sessionKey := HandshakeSessionKey{APMac: apMac, ClientMac: clientMac}
	list := s.handshakes[sessionKey]

	for _, hs := range list {
		wasComplete, hadPmkid := hs.Complete(), hs.HasPmkidValue()
		if err := hs.AddKey(key); err == nil {
			hs.MacAP = apMac
			hs.HasMacAP = true
			hs.MacClient = clientMac
			hs.HasClient = true
			hs.Essid = essid
			hs.HasEssid = hasEssid
			recordAcceptedKey(hs, wasComplete, hadPmkid)
			clone := *hs
			return &clone, nil
		}
		telemetry.KeysRejected.WithLabelValues(messageLabel(key)).Inc()
	}

	fresh := NewFourWayHandshake()
	if err := fresh.AddKey(key); err != nil {
		telemetry.KeysRejected.WithLabelValues(messageLabel(key)).Inc()
		return nil, err
	}
	fresh.MacAP = apMac
	fresh.HasMacAP = true
	fresh.MacClient = clientMac
	fresh.HasClient = true
	fresh.Essid = essid
	fresh.HasEssid = hasEssid
	recordAcceptedKey(fresh, false, false)
	s.handshakes[sessionKey] = append(list, fresh)
	return fresh, nil
}

// recordAcceptedKey updates the completion/PMKID-capture counters when an
// AddKey call transitions a handshake across one of those boundaries for
// the first time.
func recordAcceptedKey(hs *FourWayHandshake, wasComplete, hadPmkid bool) {
	if !wasComplete && hs.Complete() {
		telemetry.HandshakesCompleted.WithLabelValues().Inc()
	}
	if !hadPmkid && hs.HasPmkidValue() {
		telemetry.PmkidCaptured.WithLabelValues().Inc()
	}
}
