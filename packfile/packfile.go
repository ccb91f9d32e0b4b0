// Package packfile reads and writes version 2/3 Git packfiles. See
// http://git.rsbx.net/Documents/Git_Data_Formats.txt for details.
package packfile

// BUG: thin packfiles whose ref-deltas reference objects outside both
// the pack and the caller-supplied Base are rejected with
// ErrBadBase; there is no mechanism for deferring their resolution
// until such a base becomes available.

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/example-labs/gitclone/object"
	"github.com/example-labs/gitclone/packfile/base128"
	"github.com/example-labs/gitclone/packfile/delta"
)

var (
	// ErrBadBase is returned when reading packfile data whose delta
	// offset or ID does not refer to a resolvable base object.
	ErrBadBase = errors.New("packfile: unknown base for delta object")
	// ErrChecksum is returned when reading packfile data with an
	// invalid trailing checksum.
	ErrChecksum = errors.New("packfile: invalid checksum")
	// ErrHeader is returned when reading packfile data with an
	// invalid header.
	ErrHeader = errors.New("packfile: invalid header")
	// ErrTooManyObjects is returned when creating a packfile with an
	// object count outside the range of an unsigned 32-bit integer.
	ErrTooManyObjects = errors.New("packfile: too many objects")
	// ErrVersion is returned when reading packfile data whose
	// version is not 2 or 3.
	ErrVersion = errors.New("packfile: unsupported version")
)

var signature = [4]byte{'P', 'A', 'C', 'K'}

type header struct {
	Signature [4]byte
	Version   uint32
	Nobjects  uint32
}

const (
	offsetDelta object.Type = 6
	refDelta    object.Type = 7
)

// A Base resolves object IDs to objects outside the current pack. A
// store.Store satisfies it. Reader consults a Base only when a
// ref-delta's base is not an earlier object in the same pack.
type Base interface {
	Get(id object.ID) (object.Interface, error)
}

type baseObj struct {
	objType object.Type
	payload []byte
}

// A Reader reads Git objects from a packfile stream.
type Reader struct {
	r    *digestReader
	n    int64
	base Base

	// Every object read so far is kept around, keyed both by its
	// starting offset and by its ID, since either one can be used by
	// a later delta to reference it as a base. This is the memory
	// cost the format imposes on a streaming decoder; it is released
	// when the Reader is discarded.
	ofs map[int64]*baseObj
	ref map[object.ID]*baseObj
}

// NewReader creates a Reader that decodes the packfile in r. base, if
// not nil, is consulted to resolve a ref-delta whose base object is
// not itself found earlier in the same pack; a nil base causes such
// deltas to fail with ErrBadBase. NewReader returns an error if r does
// not begin with a valid packfile header. It is the caller's
// responsibility to call Close once every object has been read.
func NewReader(r io.Reader, base Base) (*Reader, error) {
	dr := newDigestReader(r, sha1.New())
	var h header
	err := binary.Read(dr, binary.BigEndian, &h)
	switch {
	case err != nil:
		return nil, err
	case h.Signature != signature:
		return nil, ErrHeader
	case h.Version < 2 || h.Version > 3:
		return nil, ErrVersion
	}
	return &Reader{
		r:    dr,
		n:    int64(h.Nobjects),
		base: base,
		ofs:  make(map[int64]*baseObj),
		ref:  make(map[object.ID]*baseObj),
	}, nil
}

// Len returns the number of objects remaining in the packfile.
func (r *Reader) Len() int64 {
	return r.n
}

// Read decodes and returns the next object in the stream along with
// its ID, or ZeroID, nil, io.EOF once every declared object has been
// read.
func (r *Reader) Read() (object.ID, object.Interface, error) {
	if r.n == 0 {
		return object.ZeroID, nil, io.EOF
	}

	pos := r.r.Tell()
	objType, size, err := readObjHeader(r.r)
	if err != nil {
		return object.ZeroID, nil, err
	}

	var base *baseObj
	switch objType {
	case offsetDelta:
		negOfs, err := base128.ReadMBE(r.r)
		if err != nil {
			return object.ZeroID, nil, err
		}
		basePos := pos - int64(negOfs)
		b, ok := r.ofs[basePos]
		if !ok {
			return object.ZeroID, nil, ErrBadBase
		}
		base = b
	case refDelta:
		var baseID object.ID
		if _, err := io.ReadFull(r.r, baseID[:]); err != nil {
			return object.ZeroID, nil, err
		}
		b, ok := r.ref[baseID]
		if !ok {
			b, err = r.lookupBase(baseID)
			if err != nil {
				return object.ZeroID, nil, err
			}
		}
		base = b
	}

	zr, err := zlib.NewReader(r.r)
	if err != nil {
		return object.ZeroID, nil, err
	}
	data := make([]byte, size)
	if _, err = io.ReadFull(zr, data); err != nil {
		zr.Close()
		return object.ZeroID, nil, err
	}
	// Reading the exact inflated length leaves the zlib checksum
	// unread, which would throw the packfile stream out of sync;
	// reading past the end of the data forces it to be consumed.
	var dummy [4]byte
	zr.Read(dummy[:])
	zr.Close()

	if base != nil {
		objType = base.objType
		data, err = delta.Apply(base.payload, data)
		if err != nil {
			return object.ZeroID, nil, err
		}
	}

	obj, err := object.New(objType)
	if err != nil {
		return object.ZeroID, nil, err
	}
	objHeader := []byte(fmt.Sprintf("%s %d\x00", objType, len(data)))
	if err := obj.UnmarshalBinary(append(objHeader, data...)); err != nil {
		return object.ZeroID, nil, err
	}

	id := object.ID(sha1.Sum(append(objHeader, data...)))
	entry := &baseObj{objType, data}
	r.ofs[pos] = entry
	r.ref[id] = entry
	r.n--
	return id, obj, nil
}

// lookupBase resolves baseID against r.base when it is not an earlier
// object in the current pack.
func (r *Reader) lookupBase(baseID object.ID) (*baseObj, error) {
	if r.base == nil {
		return nil, ErrBadBase
	}
	obj, err := r.base.Get(baseID)
	if err != nil {
		return nil, ErrBadBase
	}
	data, err := obj.MarshalBinary()
	if err != nil {
		return nil, err
	}
	i := bytes.IndexByte(data, 0)
	return &baseObj{object.TypeOf(obj), data[i+1:]}, nil
}

// Close reads and verifies the packfile's trailing SHA-1 checksum. It
// returns ErrChecksum if the checksum is invalid. It does not close
// the underlying reader, and should only be called once every object
// has been read.
func (r *Reader) Close() error {
	var read, expected [sha1.Size]byte
	copy(expected[:], r.r.Sum(nil))
	if _, err := io.ReadFull(r.r, read[:]); err != nil {
		return err
	}
	if read != expected {
		return ErrChecksum
	}
	return nil
}

// A Writer writes Git objects to a packfile stream. It never delta
// compresses its input.
type Writer struct {
	w *digestWriter
	n int64
}

// NewWriter creates a Writer that will write n objects to w. It
// returns ErrTooManyObjects if n is outside the range of an unsigned
// 32-bit integer. It is the caller's responsibility to call Close
// once every object has been written.
func NewWriter(w io.Writer, n int64) (*Writer, error) {
	if int64(uint32(n)) != n {
		return nil, ErrTooManyObjects
	}
	dw := newDigestWriter(w, sha1.New())
	h := header{signature, 3, uint32(n)}
	if err := binary.Write(dw, binary.BigEndian, h); err != nil {
		return nil, err
	}
	return &Writer{dw, n}, nil
}

// Len returns the number of objects still to be written.
func (w *Writer) Len() int64 {
	return w.n
}

// Write writes a single Git object to the stream. It returns
// ErrTooManyObjects if more objects are written than were declared to
// NewWriter.
func (w *Writer) Write(obj object.Interface) error {
	if w.n == 0 {
		return ErrTooManyObjects
	}
	data, err := obj.MarshalBinary()
	if err != nil {
		return err
	}
	i := bytes.IndexByte(data, 0)
	payload := data[i+1:]

	if err := writeObjHeader(w.w, object.TypeOf(obj), int64(len(payload))); err != nil {
		return err
	}
	z := zlib.NewWriter(w.w)
	if _, err := z.Write(payload); err != nil {
		return err
	}
	w.n--
	return z.Close()
}

// Close writes the packfile's trailing SHA-1 checksum. It does not
// close the underlying writer, and should only be called once every
// object has been written.
func (w *Writer) Close() error {
	_, err := w.w.Write(w.w.Sum(nil))
	return err
}
