// Git packfiles end with a SHA-1 checksum of their own contents, and
// entries reference each other by byte offset from the start of the
// stream. This file defines small wrappers around a Reader/Writer
// that track both as data flows through them, plus the packfile
// object header codec (type + size packed into one base128 number).

package packfile

import (
	"bufio"
	"compress/flate"
	"errors"
	"hash"
	"io"

	"github.com/example-labs/gitclone/object"
	"github.com/example-labs/gitclone/packfile/base128"
)

// A packfile object header is a little-endian base128 number where
// bits 4-6 hold the object's type and the rest its size.

func readObjHeader(r io.ByteReader) (object.Type, int64, error) {
	hdr, err := base128.ReadLE(r)
	if err != nil {
		return 0, 0, err
	}
	objType := object.Type(hdr >> 4 & 0x7)
	size := int64((hdr >> 3 &^ 0xF) | (hdr & 0xF))
	return objType, size, err
}

func writeObjHeader(w io.Writer, objType object.Type, size int64) error {
	// Objects larger than 0x1FFFFFFFFFFFFFFF bytes cannot be
	// represented: three of the header's bits are reserved for the
	// object type.
	if size < 0 || size > 0x1FFFFFFFFFFFFFFF {
		return errors.New("packfile: object size out of range")
	}
	hdr := uint64((size &^ 0xF << 3) | int64(objType<<4) | (size & 0xF))
	_, err := base128.WriteLE(w, hdr)
	return err
}

// digestReader tracks the number of bytes read from, and the SHA-1
// checksum of, an underlying io.Reader. It also implements
// io.ByteReader, wrapping the source in a bufio.Reader if it doesn't
// provide one itself — which may cause more bytes to be pulled from
// the source than digestReader ever reports read.
type digestReader struct {
	r      flate.Reader
	pos    int64
	digest hash.Hash
}

func newDigestReader(r io.Reader, h hash.Hash) *digestReader {
	fr, ok := r.(flate.Reader)
	if !ok {
		fr = bufio.NewReader(r)
	}
	return &digestReader{fr, 0, h}
}

func (r *digestReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.pos += int64(n)
	if n > 0 {
		r.digest.Write(p[:n])
	}
	return n, err
}

func (r *digestReader) ReadByte() (byte, error) {
	c, err := r.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	r.digest.Write([]byte{c})
	return c, nil
}

func (r *digestReader) Sum(b []byte) []byte {
	return r.digest.Sum(b)
}

func (r *digestReader) Tell() int64 {
	return r.pos
}

// digestWriter tracks the number of bytes written to, and the SHA-1
// checksum of, an underlying io.Writer.
type digestWriter struct {
	w      io.Writer
	pos    int64
	digest hash.Hash
}

func newDigestWriter(w io.Writer, h hash.Hash) *digestWriter {
	return &digestWriter{w, 0, h}
}

func (w *digestWriter) Sum(b []byte) []byte {
	return w.digest.Sum(b)
}

func (w *digestWriter) Tell() int64 {
	return w.pos
}

func (w *digestWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	if n > 0 {
		w.digest.Write(p[:n])
	}
	return n, err
}
