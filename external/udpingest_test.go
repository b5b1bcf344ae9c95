package external

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDatagram(packetType byte, fragIdx int, payload []byte) []byte {
	header := make([]byte, packetHeaderLen)
	header[0] = packetType
	binary.BigEndian.PutUint16(header[1:3], uint16(fragIdx))
	return append(header, payload...)
}

func TestParsePacket(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6}
	datagram := buildDatagram(PacketTypeImageData, 3, payload)

	pt, idx, body, err := ParsePacket(datagram)
	require.NoError(t, err)
	assert.Equal(t, PacketTypeImageData, pt)
	assert.Equal(t, 3, idx)
	assert.Equal(t, payload, body)
}

func TestParsePacketRejectsShortDatagram(t *testing.T) {
	_, _, _, err := ParsePacket([]byte{1, 2})
	assert.Error(t, err)
}

func TestLineAssemblerCompletesAcrossFragments(t *testing.T) {
	const pixelsPerFragment = 4
	const fragments = 3
	a := NewLineAssembler(pixelsPerFragment, fragments)

	for f := 0; f < fragments; f++ {
		payload := make([]byte, 3*pixelsPerFragment)
		for i := range payload {
			payload[i] = byte(f*10 + i)
		}
		require.NoError(t, a.AddFragment(f, payload))
	}

	require.True(t, a.Complete())
	line := a.Line()
	assert.Len(t, line.R, pixelsPerFragment*fragments)
}

func TestLineAssemblerRejectsBadFragment(t *testing.T) {
	a := NewLineAssembler(4, 2)
	assert.Error(t, a.AddFragment(5, make([]byte, 12)))
	assert.Error(t, a.AddFragment(0, make([]byte, 3)))
}

func TestLineAssemblerResetClearsCompletion(t *testing.T) {
	a := NewLineAssembler(2, 2)
	require.NoError(t, a.AddFragment(0, make([]byte, 6)))
	require.NoError(t, a.AddFragment(1, make([]byte, 6)))
	require.True(t, a.Complete())

	a.Reset()
	assert.False(t, a.Complete())
}
