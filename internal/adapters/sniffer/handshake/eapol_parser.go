package handshake

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// KeyInformation masks (IEEE 802.11i)
const (
	KeyInfoKeyDescriptorVersionMask = 0x0007 // Bits 0-2
	KeyInfoKeyType                  = 1 << 3 // Bit 3 (1=Pairwise, 0=Group)
	KeyInfoKeyIndexMask             = 0x0030 // Bits 4-5
	KeyInfoInstall                  = 1 << 6 // Bit 6
	KeyInfoKeyAck                   = 1 << 7 // Bit 7
	KeyInfoKeyMIC                   = 1 << 8 // Bit 8
	KeyInfoSecure                   = 1 << 9 // Bit 9
	KeyInfoError                    = 1 << 10
	KeyInfoRequest                  = 1 << 11
	KeyInfoEncryptedKeyData         = 1 << 12
)

// MessageType is the closed five-way classification of an EAPOL Key
// frame spec.md §9 calls for ("a tagged value suffices"), plus
// MessageUnknown for a pairwise frame with neither MIC nor Ack.
type MessageType int

const (
	MessageUnknown MessageType = iota
	Message1
	Message2
	Message3
	Message4
	MessageGTK
)

// EAPOLKeyFrame is the parsed form of an IEEE 802.11i EAPOL-Key PDU.
type EAPOLKeyFrame struct {
	DescriptorType uint8
	KeyInformation uint16
	KeyLength      uint16
	ReplayCounter  uint64
	Nonce          [32]byte
	KeyIV          []byte // 16 bytes
	KeyRSC         uint64 // 8 bytes
	KeyID          uint64 // 8 bytes reserved
	MIC            [16]byte
	KeyDataLength  uint16
	KeyData        []byte

	// Raw holds the on-wire EAPOL frame bytes (4-byte header + key
	// descriptor body), the value the Handshake Assembler copies
	// verbatim into eapol_client for the offline cracker (spec.md §3
	// "sourced from M2..."). MICOffset is the byte offset of the 16-byte
	// MIC field within Raw, needed to zero it before a MIC recomputation
	// (handshake.VerifyPSK).
	Raw       []byte
	MICOffset int

	// Timestamp is the capture timestamp spec.md §3 requires on every
	// EapolKey instance; the assembler's temporal-window checks use this
	// field as its clock rather than wall time (Design Notes, "Clock
	// injection").
	Timestamp time.Time

	HasMIC     bool
	HasAck     bool
	IsPairwise bool
	Version    uint8
}

// ParseEAPOLKey parses a gopacket.Packet and returns a structured EAPOLKeyFrame.
func ParseEAPOLKey(packet gopacket.Packet) (*EAPOLKeyFrame, error) {
	eapolLayer := packet.Layer(layers.LayerTypeEAPOL)
	if eapolLayer == nil {
		return nil, errors.New("not an EAPOL packet")
	}

	eapol, ok := eapolLayer.(*layers.EAPOL)
	if !ok {
		return nil, errors.New("failed to cast to EAPOL layer")
	}

	if eapol.Type != layers.EAPOLTypeKey {
		return nil, fmt.Errorf("not an EAPOL Key frame (Type: %d)", eapol.Type)
	}

	payload := eapol.LayerPayload()
	// 1 (DescType) + 2 (KeyInfo) + 2 (KeyLen) + 8 (Replay) + 32 (Nonce) +
	// 16 (IV) + 8 (RSC) + 8 (ID) + 16 (MIC) + 2 (DataLen) = 95 bytes
	if len(payload) < 95 {
		return nil, fmt.Errorf("payload too short for EAPOL Key: %d bytes", len(payload))
	}

	frame := &EAPOLKeyFrame{}
	frame.DescriptorType = payload[0]

	frame.KeyInformation = binary.BigEndian.Uint16(payload[1:3])
	frame.KeyLength = binary.BigEndian.Uint16(payload[3:5])
	frame.ReplayCounter = binary.BigEndian.Uint64(payload[5:13])
	copy(frame.Nonce[:], payload[13:45])
	frame.KeyIV = payload[45:61]
	frame.KeyRSC = binary.BigEndian.Uint64(payload[61:69])
	frame.KeyID = binary.BigEndian.Uint64(payload[69:77])
	copy(frame.MIC[:], payload[77:93])
	frame.KeyDataLength = binary.BigEndian.Uint16(payload[93:95])

	if len(payload) >= 95+int(frame.KeyDataLength) {
		frame.KeyData = payload[95 : 95+int(frame.KeyDataLength)]
	} else {
		frame.KeyData = payload[95:]
	}

	frame.HasMIC = (frame.KeyInformation & KeyInfoKeyMIC) != 0
	frame.HasAck = (frame.KeyInformation & KeyInfoKeyAck) != 0
	frame.IsPairwise = (frame.KeyInformation & KeyInfoKeyType) != 0
	frame.Version = uint8(frame.KeyInformation & KeyInfoKeyDescriptorVersionMask)

	header := []byte{eapol.Version, uint8(eapol.Type), 0, 0}
	binary.BigEndian.PutUint16(header[2:4], eapol.Length)
	frame.Raw = append(append([]byte(nil), header...), payload[:95+len(frame.KeyData)]...)
	frame.MICOffset = len(header) + 77

	if meta := packet.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		frame.Timestamp = meta.Timestamp
	} else {
		frame.Timestamp = time.Now()
	}

	return frame, nil
}

// MessageType classifies the frame into the five variants spec.md §3 / §9
// describes (or MessageUnknown: pairwise, no MIC, no Ack), mirroring
// original_source/src/auth.rs's determine_key_type() heuristic (no MIC +
// Ack => M1; MIC + Ack => M3; MIC + no Ack + Secure => M4; MIC + no Ack +
// !Secure => M2; non-pairwise => GTK).
func (f *EAPOLKeyFrame) MessageType() MessageType {
	if !f.IsPairwise {
		return MessageGTK
	}

	if !f.HasMIC {
		if f.HasAck {
			return Message1
		}
		return MessageUnknown
	}

	if f.HasAck {
		return Message3
	}

	isSecure := (f.KeyInformation & KeyInfoSecure) != 0
	if !isSecure {
		return Message2
	}
	return Message4
}

// IsMICZero checks if the MIC is all zeros (invalid/absent).
func (f *EAPOLKeyFrame) IsMICZero() bool {
	var zero [16]byte
	return f.MIC == zero
}

// IsNonceZero checks if the key nonce is all zeros (invalid/absent).
func (f *EAPOLKeyFrame) IsNonceZero() bool {
	var zero [32]byte
	return f.Nonce == zero
}
