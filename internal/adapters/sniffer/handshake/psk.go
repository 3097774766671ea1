package handshake

import (
	"bytes"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"errors"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

// VerifyPSK confirms whether candidate is the pre-shared key that
// produced this handshake's captured MIC, per IEEE 802.11i §8.5.1.1/§8.5.2:
// PMK = PBKDF2-SHA1(passphrase, ssid, 4096, 32); PTK = PRF-512(PMK,
// "Pairwise key expansion", Min(AA,SA)||Max(AA,SA)||Min(ANonce,SNonce)||
// Max(ANonce,SNonce)); KCK = PTK[0:16]; MIC = HMAC(KCK, eapol frame with
// MIC field zeroed), using HMAC-MD5 or HMAC-SHA1-128 depending on the
// EAPOL key descriptor version. This is additive tooling confirming a
// single caller-supplied candidate, not a dictionary search — spec.md's
// Non-goal excludes "offline cracking itself", not verification of an
// already-known key.
func (h *FourWayHandshake) VerifyPSK(candidate string) (bool, error) {
	if !h.HasEssid {
		return false, errors.New("handshake has no essid to derive PMK against")
	}
	if h.EapolClient == nil || !h.HasMIC {
		return false, errors.New("handshake has no captured MIC to verify against")
	}
	src := h.sourceOfEapolClient()
	if src == nil {
		return false, errors.New("handshake has no source key frame for eapol_client")
	}
	if !h.HasMacAP || !h.HasClient {
		return false, errors.New("handshake has no AP/client identity to order the PTK derivation")
	}

	pmk := pbkdf2.Key([]byte(candidate), []byte(h.Essid), 4096, 32, sha1.New)
	ptk := prf512(pmk, h.MacAP[:], h.MacClient[:], h.ANonce[:], h.SNonce[:])
	kck := ptk[:16]

	computed := eapolMIC(kck, src.Raw, src.MICOffset, src.Version)
	return hmac.Equal(computed, h.MIC[:]), nil
}

// sourceOfEapolClient returns the slot that supplied eapol_client/mic:
// M2 normally, or M4 in the AP-less/M2-missing recovery path.
func (h *FourWayHandshake) sourceOfEapolClient() *EAPOLKeyFrame {
	if h.Msg2 != nil {
		return h.Msg2
	}
	return h.Msg4
}

// prf512 is IEEE 802.11i's PRF-X built on HMAC-SHA1, producing 512 bits
// (64 bytes) — enough to cover KCK||KEK||TK for CCMP/TKIP pairwise keys.
func prf512(key, aAddr, sAddr, aNonce, sNonce []byte) []byte {
	minMAC, maxMAC := orderBytes(aAddr, sAddr)
	minNonce, maxNonce := orderBytes(aNonce, sNonce)

	var b bytes.Buffer
	b.Write(minMAC)
	b.Write(maxMAC)
	b.Write(minNonce)
	b.Write(maxNonce)

	const label = "Pairwise key expansion"
	const outBytes = 64

	var out []byte
	for i := 0; len(out) < outBytes; i++ {
		mac := hmac.New(sha1.New, key)
		mac.Write([]byte(label))
		mac.Write([]byte{0x00})
		mac.Write(b.Bytes())
		mac.Write([]byte{byte(i)})
		out = append(out, mac.Sum(nil)...)
	}
	return out[:outBytes]
}

func orderBytes(a, b []byte) (lo, hi []byte) {
	if bytes.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// eapolMIC recomputes the 16-byte EAPOL-Key MIC over frame with the MIC
// field (at micOffset, 16 bytes) zeroed, selecting HMAC-MD5 for key
// descriptor version 1 and HMAC-SHA1-128 (truncated) for version 2+, per
// IEEE 802.11i Table 8-4.
func eapolMIC(kck, frame []byte, micOffset int, version uint8) []byte {
	zeroed := append([]byte(nil), frame...)
	for i := 0; i < 16 && micOffset+i < len(zeroed); i++ {
		zeroed[micOffset+i] = 0
	}

	var h func() hash.Hash
	if version == 1 {
		h = md5.New
	} else {
		h = sha1.New
	}
	mac := hmac.New(h, kck)
	mac.Write(zeroed)
	sum := mac.Sum(nil)
	if len(sum) > 16 {
		sum = sum[:16]
	}
	return sum
}
