package pktline

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	cases := []string{
		"a",
		"want deadbeef multi_ack\n",
		"done\n",
	}
	for _, s := range cases {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		_, err := w.WriteString(s)
		require.NoError(t, err)

		r := NewReader(&buf)
		require.NoError(t, r.Next())
		got, err := r.ReadMsgString()
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestWantLineFraming(t *testing.T) {
	line := "want 0000000000000000000000000000000000000000 multi_ack\n"
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, err := w.WriteString(line)
	require.NoError(t, err)
	// 4-byte length prefix + 56-byte line == 60 == 0x3c.
	require.Equal(t, "003c"+line, buf.String())
}

func TestFlush(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Flush())
	require.Equal(t, "0000", buf.String())

	// A flush-pkt closes the (here empty) substream that Next enters.
	r := NewReader(&buf)
	require.NoError(t, r.Next())
	_, err := r.ReadMsg()
	require.ErrorIs(t, err, io.EOF)
}

func TestWriteTooLong(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, err := w.Write(make([]byte, MaxPayloadLen+1))
	require.ErrorIs(t, err, ErrTooLong)
}
