package handshake

import (
	"context"
	"testing"
	"time"

	"github.com/lcalzada-xor/wmapattack/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOrUpdateHandshake_FirstKeyStartsNewHandshake(t *testing.T) {
	s := NewStorage()
	ap := domain.MustParseMAC("00:11:22:33:44:55")
	client := domain.MustParseMAC("aa:bb:cc:dd:ee:ff")

	m1 := keyFrame(Message1, 1, time.Now(), nonZeroNonce(0xAA), [16]byte{}, nil)
	hs, err := s.AddOrUpdateHandshake(context.Background(), ap, client, m1, "testnet", true)
	require.NoError(t, err)
	assert.Equal(t, ap, hs.MacAP)
	assert.Equal(t, client, hs.MacClient)
	assert.Equal(t, "testnet", hs.Essid)
	assert.Equal(t, 1, s.Count())
}

func TestAddOrUpdateHandshake_SecondKeyAttachesToSameSession(t *testing.T) {
	s := NewStorage()
	ap := domain.MustParseMAC("00:11:22:33:44:55")
	client := domain.MustParseMAC("aa:bb:cc:dd:ee:ff")
	base := time.Now()

	m1 := keyFrame(Message1, 1, base, nonZeroNonce(0xAA), [16]byte{}, nil)
	_, err := s.AddOrUpdateHandshake(context.Background(), ap, client, m1, "testnet", true)
	require.NoError(t, err)

	m2 := keyFrame(Message2, 2, base, nonZeroNonce(0xBB), nonZeroMIC(0x01), nil)
	hs, err := s.AddOrUpdateHandshake(context.Background(), ap, client, m2, "testnet", true)
	require.NoError(t, err)
	assert.True(t, hs.HasSNonce)
	assert.Equal(t, 1, s.Count(), "second key should attach to the existing handshake, not start a new one")
}

func TestAddOrUpdateHandshake_RepeatedKeyStartsNewHandshakeWhenFirstSlotFull(t *testing.T) {
	s := NewStorage()
	ap := domain.MustParseMAC("00:11:22:33:44:55")
	client := domain.MustParseMAC("aa:bb:cc:dd:ee:ff")
	base := time.Now()

	m1 := keyFrame(Message1, 1, base, nonZeroNonce(0xAA), [16]byte{}, nil)
	_, err := s.AddOrUpdateHandshake(context.Background(), ap, client, m1, "testnet", true)
	require.NoError(t, err)

	// Another M1 (e.g. AP re-sent) doesn't fit the first handshake's full
	// msg1 slot, so the ordering rule starts a second handshake attempt.
	m1b := keyFrame(Message1, 5, base, nonZeroNonce(0xCC), [16]byte{}, nil)
	_, err = s.AddOrUpdateHandshake(context.Background(), ap, client, m1b, "testnet", true)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())
}

func TestAddOrUpdateHandshake_FailingFirstKeyPropagatesError(t *testing.T) {
	s := NewStorage()
	ap := domain.MustParseMAC("00:11:22:33:44:55")
	client := domain.MustParseMAC("aa:bb:cc:dd:ee:ff")

	badM1 := keyFrame(Message1, 1, time.Now(), nonZeroNonce(0xAA), nonZeroMIC(0x01), nil) // MIC present: invalid M1
	_, err := s.AddOrUpdateHandshake(context.Background(), ap, client, badM1, "testnet", true)
	assert.ErrorIs(t, err, ErrM1MICPresent)
	assert.Equal(t, 0, s.Count(), "a handshake that fails its founding key must not be stored")
}

func TestAddOrUpdateHandshake_EssidOverwrittenUnconditionally(t *testing.T) {
	s := NewStorage()
	ap := domain.MustParseMAC("00:11:22:33:44:55")
	client := domain.MustParseMAC("aa:bb:cc:dd:ee:ff")
	base := time.Now()

	m1 := keyFrame(Message1, 1, base, nonZeroNonce(0xAA), [16]byte{}, nil)
	hs, err := s.AddOrUpdateHandshake(context.Background(), ap, client, m1, "testnet", true)
	require.NoError(t, err)
	assert.Equal(t, "testnet", hs.Essid)
	assert.True(t, hs.HasEssid)

	m2 := keyFrame(Message2, 2, base, nonZeroNonce(0xBB), nonZeroMIC(0x01), nil)
	hs, err = s.AddOrUpdateHandshake(context.Background(), ap, client, m2, "", false)
	require.NoError(t, err)
	assert.Empty(t, hs.Essid, "essid is overwritten unconditionally, matching original_source/src/auth.rs's add_or_update_handshake")
	assert.False(t, hs.HasEssid)
}

func TestHasCompleteHandshakeForAP(t *testing.T) {
	s := NewStorage()
	ap := domain.MustParseMAC("00:11:22:33:44:55")
	client := domain.MustParseMAC("aa:bb:cc:dd:ee:ff")
	base := time.Now()

	assert.False(t, s.HasCompleteHandshakeForAP(ap))

	anonce := nonZeroNonce(0xAA)
	_, _ = s.AddOrUpdateHandshake(context.Background(), ap, client, keyFrame(Message1, 1, base, anonce, [16]byte{}, nil), "net", true)
	assert.False(t, s.HasCompleteHandshakeForAP(ap))
	// M1+M2 already supplies eapol_client, mic, anonce and snonce.
	_, _ = s.AddOrUpdateHandshake(context.Background(), ap, client, keyFrame(Message2, 2, base, nonZeroNonce(0xBB), nonZeroMIC(0x01), nil), "net", true)

	_, _ = s.AddOrUpdateHandshake(context.Background(), ap, client, keyFrame(Message3, 3, base, anonce, nonZeroMIC(0x02), nil), "net", true)
	_, _ = s.AddOrUpdateHandshake(context.Background(), ap, client, keyFrame(Message4, 4, base, [32]byte{}, nonZeroMIC(0x03), nil), "net", true)
	assert.True(t, s.HasCompleteHandshakeForAP(ap))
}

func TestHasM1ForAP(t *testing.T) {
	s := NewStorage()
	ap := domain.MustParseMAC("00:11:22:33:44:55")
	client := domain.MustParseMAC("aa:bb:cc:dd:ee:ff")

	assert.False(t, s.HasM1ForAP(ap))
	_, err := s.AddOrUpdateHandshake(context.Background(), ap, client, keyFrame(Message1, 1, time.Now(), nonZeroNonce(0xAA), [16]byte{}, nil), "net", true)
	require.NoError(t, err)
	assert.True(t, s.HasM1ForAP(ap))
}

func TestFindHandshakesByAP(t *testing.T) {
	s := NewStorage()
	ap := domain.MustParseMAC("00:11:22:33:44:55")
	client := domain.MustParseMAC("aa:bb:cc:dd:ee:ff")
	_, err := s.AddOrUpdateHandshake(context.Background(), ap, client, keyFrame(Message1, 1, time.Now(), nonZeroNonce(0xAA), [16]byte{}, nil), "net", true)
	require.NoError(t, err)

	byClient := s.FindHandshakesByAP(ap)
	assert.Len(t, byClient, 1)
	assert.Contains(t, byClient, client)
}
