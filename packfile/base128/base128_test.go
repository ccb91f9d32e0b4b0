package base128

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLERoundTrip(t *testing.T) {
	for _, x := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 63, ^uint64(0)} {
		var buf bytes.Buffer
		_, err := WriteLE(&buf, x)
		require.NoError(t, err)

		got, err := ReadLE(&buf)
		require.NoError(t, err)
		require.Equal(t, x, got)
	}
}

func TestDecodeLE(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteLE(&buf, 300)
	require.NoError(t, err)
	buf.WriteByte(0xFF) // trailing garbage after the encoded value

	got, n := DecodeLE(buf.Bytes())
	require.Equal(t, uint64(300), got)
	require.Equal(t, 2, n)
}

func TestDecodeLEIncomplete(t *testing.T) {
	// A single byte with the continuation bit set is not a complete value.
	_, n := DecodeLE([]byte{0x80})
	require.LessOrEqual(t, n, 0)
}

func TestMBERoundTrip(t *testing.T) {
	for _, x := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40} {
		var buf bytes.Buffer
		_, err := WriteMBE(&buf, x)
		require.NoError(t, err)

		got, err := ReadMBE(&buf)
		require.NoError(t, err)
		require.Equal(t, x, got)
	}
}

func TestMBESingleByteBoundary(t *testing.T) {
	// A value below 0x80 is written by WriteMBE as one byte holding the
	// value itself, as in the LE encoding: the two encodings differ only
	// in how continuation bytes are combined.
	var buf bytes.Buffer
	_, err := WriteMBE(&buf, 0x7F)
	require.NoError(t, err)
	require.Equal(t, []byte{0x7F}, buf.Bytes())
}
