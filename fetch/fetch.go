// Package fetch builds the git-upload-pack request body and extracts
// the packfile from its response, the second phase of the Git smart
// HTTP transport.
package fetch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/example-labs/gitclone/object"
	"github.com/example-labs/gitclone/pktline"
)

// ErrNoPack is returned by ExtractPack if the literal bytes "PACK" are
// never found in the response body.
var ErrNoPack = errors.New("fetch: no packfile in response")

// packSignature is the four-byte marker that begins every packfile.
var packSignature = []byte("PACK")

// BuildWantRequest returns the body of a git-upload-pack POST request
// asking for the single commit named by tip: a "want" line, a
// flush-pkt, and a "done" line, all pkt-line framed.
func BuildWantRequest(tip object.ID) []byte {
	var buf bytes.Buffer
	pktw := pktline.NewWriter(&buf)
	pktw.WriteString(fmt.Sprintf("want %s multi_ack\n", tip))
	pktw.Flush()
	pktw.WriteString("done\n")
	return buf.Bytes()
}

// ExtractPack scans r, the body of a git-upload-pack response, as a
// sequence of pkt-lines, discarding each one, until it finds a
// payload that contains the literal bytes "PACK" (at its start, or
// after a side-band channel byte). It returns a reader over the first
// "P" onward — the packfile itself, header and
// trailing checksum included — along with whatever of r had already
// been buffered past that point.
//
// ExtractPack also tolerates the degenerate case where the caller
// passes it a connection that never framed its response in pkt-lines
// to begin with and the packfile begins at the very first byte: the
// byte scan below finds "PACK" there just as well as inside a
// pkt-line payload.
func ExtractPack(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	pktr := pktline.NewReader(br)
	for {
		peek, err := br.Peek(len(packSignature))
		if err == nil && bytes.Equal(peek, packSignature) {
			return br, nil
		}

		// pktr prereads the next frame's length after each payload, so
		// a new frame is entered only when no length is pending.
		if pktr.Len() < 0 {
			if nextErr := pktr.Next(); nextErr != nil {
				if err == io.EOF || nextErr == io.EOF {
					return nil, ErrNoPack
				}
				return nil, nextErr
			}
		}
		msg, msgErr := pktr.ReadMsg()
		if msgErr != nil && msgErr != io.EOF {
			return nil, msgErr
		}
		if i := bytes.Index(msg, packSignature); i >= 0 {
			return io.MultiReader(bytes.NewReader(msg[i:]), br), nil
		}
	}
}
