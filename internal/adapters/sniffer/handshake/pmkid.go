package handshake

// Pmkid is the 22-byte RSN PMKID key-data element carried in EAPOL
// Message 1, per spec.md §3. A Pmkid is only ever constructed once all
// four structural checks in parsePmkid have passed.
type Pmkid struct {
	ID      byte
	Len     byte
	OUI     [3]byte
	OUIType byte
	Value   [16]byte
}

var pmkidRSNOUI = [3]byte{0x00, 0x0f, 0xac}

// parsePmkid validates and extracts a Pmkid from a 22-byte M1 key-data
// block. It returns ok=false (not an error) when the block doesn't match
// the RSN PMKID shape or carries an all-zero value — spec.md §7 treats
// this as "out-of-spec input", not a rejection of the M1 itself.
func parsePmkid(data []byte) (Pmkid, bool) {
	var p Pmkid
	if len(data) != 22 {
		return p, false
	}
	p.ID = data[0]
	p.Len = data[1]
	copy(p.OUI[:], data[2:5])
	p.OUIType = data[5]
	copy(p.Value[:], data[6:22])

	if p.OUI != pmkidRSNOUI || p.Len != 0x14 || p.OUIType != 4 {
		return p, false
	}
	var zero [16]byte
	if p.Value == zero {
		return p, false
	}
	return p, true
}
