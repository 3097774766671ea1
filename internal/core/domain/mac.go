package domain

import (
	"encoding/hex"
	"fmt"
	"net"
)

// MacAddress is a 6-byte 802.11 hardware address. Equality and use as a
// map key are byte-wise, matching spec.md §3.
type MacAddress [6]byte

// Broadcast is the all-ones MAC address.
var Broadcast = MacAddress{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseMAC parses a colon-separated MAC string ("aa:bb:cc:dd:ee:ff").
func ParseMAC(s string) (MacAddress, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MacAddress{}, fmt.Errorf("parse mac %q: %w", s, err)
	}
	if len(hw) != 6 {
		return MacAddress{}, fmt.Errorf("parse mac %q: expected 6 bytes, got %d", s, len(hw))
	}
	var m MacAddress
	copy(m[:], hw)
	return m, nil
}

// MustParseMAC is ParseMAC but panics on error; intended for tests and
// static configuration defaults.
func MustParseMAC(s string) MacAddress {
	m, err := ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String renders the address as lowercase colon-separated hex.
func (m MacAddress) String() string {
	return net.HardwareAddr(m[:]).String()
}

// HardwareAddr converts to the stdlib net.HardwareAddr representation,
// the shape the gopacket-based frame builders expect.
func (m MacAddress) HardwareAddr() net.HardwareAddr {
	return net.HardwareAddr(m[:])
}

// IsBroadcast reports whether the address is the all-ones broadcast MAC.
func (m MacAddress) IsBroadcast() bool {
	return m == Broadcast
}

// HexNoSeparator renders the address as 12 lowercase hex characters with
// no separators, the form the hashcat 22000 export line uses.
func (m MacAddress) HexNoSeparator() string {
	return hex.EncodeToString(m[:])
}
