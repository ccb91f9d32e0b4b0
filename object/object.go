// Package object implements the Git object model: the four object
// types (commit, tree, blob, tag) and the content-addressing scheme
// that names them.
package object

import (
	"bytes"
	"crypto/sha1"
	"encoding"
	"encoding/hex"
	"errors"
	"fmt"
)

var errBadIDLen = errors.New("object: invalid ID length")

// Interface defines the functionality expected of a Git object.
//
// A Git object has a canonical binary representation (the textual
// representation prefixed with a "<type> <size>\x00" header), whose
// SHA-1 digest is the object's ID. MarshalBinary and UnmarshalBinary
// encode and decode that representation. MarshalText and
// UnmarshalText handle the header-less textual form; for every object
// but Tree, the binary representation is just the textual one with
// the header prepended.
//
// Though it is possible for an external type to satisfy this
// interface, functions operating on it should not be expected to work
// with implementations other than the ones defined in this package.
type Interface interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	encoding.TextMarshaler
	encoding.TextUnmarshaler
}

// NOTE: the (Un)marshalBinary methods include the object header in
// their in/output for type checking purposes. Without it, any byte
// slice would unmarshal successfully into a Blob.

// BUG: the (Un)marshal* methods perform no input sanitization, so it
// is possible to unmarshal objects the reference Git implementation
// would never produce, and to construct objects that do not
// round-trip. Use care when manipulating decoded objects directly.

// New returns a pointer to a newly allocated zero value of a Git
// object of the given type. It returns a *TypeError containing objType
// if it is not one of the standard Git object types.
func New(objType Type) (Interface, error) {
	switch objType {
	case TypeCommit:
		return new(Commit), nil
	case TypeTree:
		return new(Tree), nil
	case TypeBlob:
		return new(Blob), nil
	case TypeTag:
		return new(Tag), nil
	default:
		return nil, &TypeError{objType}
	}
}

// Marshal returns the canonical binary representation and the ID of
// the given object. It returns a *TypeError containing obj if it is
// not one of the standard Git objects.
func Marshal(obj Interface) ([]byte, ID, error) {
	if TypeOf(obj) == TypeUnknown {
		return nil, ZeroID, &TypeError{obj}
	}
	data, err := obj.MarshalBinary()
	return data, ID(sha1.Sum(data)), err
}

// Unmarshal decodes a Git object from its canonical binary
// representation. If the type recorded in the header does not match
// one of the standard Git ones, it is returned as a string inside a
// *TypeError.
func Unmarshal(data []byte) (Interface, error) {
	r := bytes.NewReader(data)
	var objType Type
	var length int
	if _, err := fmt.Fscanf(r, "%s %d\x00", &objType, &length); err != nil {
		return nil, err
	}
	obj, err := New(objType)
	if err != nil {
		return nil, err
	}
	return obj, obj.UnmarshalBinary(data)
}

// An ID is the name of a Git object: the SHA-1 digest of its
// canonical binary representation.
type ID [sha1.Size]byte

// ZeroID (20 zero bytes) designates a nonexistent object.
var ZeroID ID

// Hash computes the ID of a Git object. It returns a *TypeError
// containing obj if it is not one of the standard Git objects.
func Hash(obj Interface) (ID, error) {
	_, id, err := Marshal(obj)
	return id, err
}

// DecodeID parses a 40-character hexadecimal string as a Git ID.
func DecodeID(s string) (id ID, err error) {
	b, err := hex.DecodeString(s)
	switch {
	case err != nil:
		return id, err
	case len(b) != len(id):
		return id, errBadIDLen
	}
	copy(id[:], b)
	return id, err
}

// String returns the ID as a lowercase 40-digit hexadecimal string.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the all-zero ID.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// Scan is a support routine for fmt.Scanner. The format verb is
// ignored; Scan always attempts to read 40 hexadecimal digits from
// the input.
func (id *ID) Scan(ss fmt.ScanState, verb rune) error {
	var p []byte
	if _, err := fmt.Fscanf(ss, "%40x", &p); err != nil {
		return err
	}
	if copy((*id)[:], p) != len(*id) {
		return errBadIDLen
	}
	return nil
}
