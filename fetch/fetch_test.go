package fetch

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example-labs/gitclone/object"
	"github.com/example-labs/gitclone/pktline"
)

func TestBuildWantRequestFraming(t *testing.T) {
	tip, err := object.DecodeID("ce013625030ba8dba906f756967f9e9ca394464a")
	require.NoError(t, err)

	body := BuildWantRequest(tip)
	r := pktline.NewReader(bytes.NewReader(body))

	require.NoError(t, r.Next())
	line, err := r.ReadMsgString()
	require.NoError(t, err)
	require.Equal(t, "want ce013625030ba8dba906f756967f9e9ca394464a multi_ack\n", line)

	_, err = r.ReadMsgString()
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, r.Next())
	line, err = r.ReadMsgString()
	require.NoError(t, err)
	require.Equal(t, "done\n", line)
}

func TestExtractPackFindsSignatureAfterNAK(t *testing.T) {
	// The common non-side-band case: a single "NAK\n" pkt-line,
	// followed immediately by the raw (unframed) packfile bytes.
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)
	_, err := w.WriteString("NAK\n")
	require.NoError(t, err)

	packBytes := []byte("PACK\x00\x00\x00\x02\x00\x00\x00\x00restofpack")
	buf.Write(packBytes)

	r, err := ExtractPack(&buf)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, packBytes, got)
}

func TestExtractPackSideBandChannelPrefix(t *testing.T) {
	// Side-band mode multiplexes pack data into pkt-lines prefixed
	// with a one-byte channel number; ExtractPack locates "PACK"
	// inside the payload rather than requiring it at the very start.
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)
	_, err := w.WriteString("NAK\n")
	require.NoError(t, err)

	packBytes := []byte("PACK\x00\x00\x00\x02\x00\x00\x00\x00restofpack")
	_, err = w.Write(append([]byte{0x01}, packBytes...))
	require.NoError(t, err)

	r, err := ExtractPack(&buf)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, packBytes, got)
}

func TestExtractPackNoPack(t *testing.T) {
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)
	_, err := w.WriteString("NAK\n")
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	_, err = ExtractPack(&buf)
	require.ErrorIs(t, err, ErrNoPack)
}

func TestExtractPackRawStream(t *testing.T) {
	packBytes := []byte("PACKrestofpack")
	r, err := ExtractPack(bytes.NewReader(packBytes))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, packBytes, got)
}
