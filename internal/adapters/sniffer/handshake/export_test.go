package handshake

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pmkidBearingHandshake(t *testing.T) *FourWayHandshake {
	t.Helper()
	hs := NewFourWayHandshake()
	data := make([]byte, 22)
	data[0], data[1] = 0x14, 0x14
	data[2], data[3], data[4], data[5] = 0x00, 0x0f, 0xac, 0x04
	copy(data[6:], nonZeroMIC(0x09)[:])

	require.NoError(t, hs.AddKey(keyFrame(Message1, 1, time.Now(), nonZeroNonce(0xAA), [16]byte{}, data)))
	hs.MacAP = [6]byte{1, 2, 3, 4, 5, 6}
	hs.HasMacAP = true
	hs.MacClient = [6]byte{6, 5, 4, 3, 2, 1}
	hs.HasClient = true
	hs.Essid = "pmkidnet"
	hs.HasEssid = true
	return hs
}

func TestToHashcat22000Format_PmkidOnly(t *testing.T) {
	hs := pmkidBearingHandshake(t)
	line, ok := hs.ToHashcat22000Format()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(line, "WPA*01*"))
	assert.False(t, strings.Contains(line, "\n"))
	assert.True(t, strings.HasSuffix(line, "***00"), "M1-only selects the fallback 0x00 message-pair branch")
}

func TestToHashcat22000Format_NeitherPmkidNorComplete(t *testing.T) {
	hs := NewFourWayHandshake()
	_, ok := hs.ToHashcat22000Format()
	assert.False(t, ok)
}

func TestToHashcat22000Format_CompleteAddsSecondLine(t *testing.T) {
	hs := pmkidBearingHandshake(t)
	base := time.Now()
	anonce := hs.ANonce
	require.NoError(t, hs.AddKey(keyFrame(Message2, 2, base, nonZeroNonce(0xBB), nonZeroMIC(0x01), nil)))
	require.NoError(t, hs.AddKey(keyFrame(Message3, 3, base, anonce, nonZeroMIC(0x02), nil)))
	require.NoError(t, hs.AddKey(keyFrame(Message4, 4, base, [32]byte{}, nonZeroMIC(0x03), nil)))

	line, ok := hs.ToHashcat22000Format()
	require.True(t, ok)
	lines := strings.Split(line, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "WPA*01*"))
	assert.True(t, strings.HasPrefix(lines[1], "WPA*02*"))
}

func TestMessagePairByte_HighNibbleIndependentOfSelection(t *testing.T) {
	a := NewFourWayHandshake()
	a.NC, a.LEndian = true, true
	a.Msg2, a.Msg3 = &EAPOLKeyFrame{}, &EAPOLKeyFrame{} // selects 0x02

	b := NewFourWayHandshake()
	b.NC, b.LEndian = true, true
	b.Msg1, b.Msg4 = &EAPOLKeyFrame{}, &EAPOLKeyFrame{} // selects 0x01

	assert.Equal(t, a.messagePairByte()&0xF0, b.messagePairByte()&0xF0)
	assert.NotEqual(t, a.messagePairByte()&0x0F, b.messagePairByte()&0x0F)
}

func TestPmkidEquality(t *testing.T) {
	data := make([]byte, 22)
	data[0], data[1] = 0x14, 0x14
	data[2], data[3], data[4], data[5] = 0x00, 0x0f, 0xac, 0x04
	copy(data[6:], nonZeroMIC(0x03)[:])

	p1, ok1 := parsePmkid(data)
	p2, ok2 := parsePmkid(append([]byte(nil), data...))
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, p1, p2)
}
