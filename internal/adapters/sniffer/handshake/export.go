package handshake

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
)

// messagePairByte computes the 8-bit message-pair value spec.md §4.6
// describes: the high nibble flags are independent of which message
// pair selected the low nibble (spec.md §8 invariant 4).
func (h *FourWayHandshake) messagePairByte() byte {
	var b byte
	if h.Apless {
		b |= 0x10
	}
	if h.NC {
		b |= 0x80
	}
	if h.LEndian {
		b |= 0x20
	}
	if h.BEndian {
		b |= 0x40
	}

	switch {
	case h.Msg2 != nil && h.Msg3 != nil:
		b |= 0x02
	case h.Msg1 != nil && h.Msg2 != nil:
		b |= 0x00
	case h.Msg1 != nil && h.Msg4 != nil:
		b |= 0x01
	case h.Msg3 != nil && h.Msg4 != nil:
		b |= 0x05
	}
	return b
}

func hexLower(b []byte) string {
	return hex.EncodeToString(b)
}

func macHex(mac domain.MacAddress) string {
	return mac.HexNoSeparator()
}

// ToHashcat22000Format renders the canonical offline-cracker line(s) for
// this handshake per spec.md §4.6: a WPA*01* PMKID line when a valid
// PMKID was captured, and/or a WPA*02* handshake line once complete,
// joined by a single newline. Returns ok=false when neither applies.
func (h *FourWayHandshake) ToHashcat22000Format() (string, bool) {
	var lines []string

	if h.HasPmkid {
		lines = append(lines, fmt.Sprintf(
			"WPA*01*%s*%s*%s*%s***%02x",
			hexLower(h.Pmkid.Value[:]),
			macHex(h.MacAP),
			macHex(h.MacClient),
			hexLower([]byte(h.Essid)),
			h.messagePairByte(),
		))
	}

	if !h.Complete() {
		if len(lines) == 0 {
			return "", false
		}
		return strings.Join(lines, "\n"), true
	}

	lines = append(lines, fmt.Sprintf(
		"WPA*02*%s*%s*%s*%s*%s*%s*%02x",
		hexLower(h.MIC[:]),
		macHex(h.MacAP),
		macHex(h.MacClient),
		hexLower([]byte(h.Essid)),
		hexLower(h.ANonce[:]),
		hexLower(h.EapolClient),
		h.messagePairByte(),
	))

	return strings.Join(lines, "\n"), true
}
