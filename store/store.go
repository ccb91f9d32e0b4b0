// Package store implements the on-disk, content-addressed Git object
// store: the same loose-object layout the reference Git client keeps
// under .git/objects.
package store

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example-labs/gitclone/object"
)

// ErrNotFound is returned when the requested object does not exist in
// the store.
var ErrNotFound = errors.New("store: object not found")

// ErrCorrupt is returned when a loose object cannot be inflated or
// its contents cannot be decoded.
var ErrCorrupt = errors.New("store: corrupt object")

// A Store is a content-addressed database of Git objects.
type Store interface {
	// Has reports whether an object with the given ID exists.
	Has(id object.ID) (bool, error)
	// Get retrieves the decoded object named by id.
	Get(id object.ID) (object.Interface, error)
	// Put writes obj to the store and returns its ID. Writing the
	// same object twice is idempotent.
	Put(obj object.Interface) (object.ID, error)
}

// Filesystem is a Store backed by a directory tree in the layout
// objects/<aa>/<bb...>, one file per object, each holding
// zlib(header || payload). It satisfies the bit-exact on-disk layout
// a clone must reproduce.
type Filesystem struct {
	root string
}

// Open returns a Filesystem store rooted at root. The objects
// subdirectory, and root itself, are created if they do not already
// exist.
func Open(root string) (*Filesystem, error) {
	dir := filepath.Join(root, "objects")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Filesystem{root: root}, nil
}

func (fs *Filesystem) path(id object.ID) string {
	hex := id.String()
	return filepath.Join(fs.root, "objects", hex[:2], hex[2:])
}

// Has reports whether an object with the given ID exists on disk.
func (fs *Filesystem) Has(id object.ID) (bool, error) {
	_, err := os.Stat(fs.path(id))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// Get reads and decodes the object named by id.
func (fs *Filesystem) Get(id object.ID) (object.Interface, error) {
	f, err := os.Open(fs.path(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("store: %w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("store: %w: %v", ErrCorrupt, err)
	}
	obj, err := object.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("store: %w: %v", ErrCorrupt, err)
	}
	return obj, nil
}

// Put deflates and writes obj under its content address. If an object
// already exists at the computed address, Put leaves it untouched and
// returns the address — writes are idempotent.
func (fs *Filesystem) Put(obj object.Interface) (object.ID, error) {
	data, id, err := object.Marshal(obj)
	if err != nil {
		return object.ZeroID, err
	}
	return id, fs.putRaw(id, data)
}

// PutRaw deflates and writes the already-headered binary
// representation data under id, skipping the marshal step. It is used
// by the pack streamer, which already has both the object's ID and
// its canonical bytes in hand.
func (fs *Filesystem) PutRaw(id object.ID, data []byte) error {
	return fs.putRaw(id, data)
}

func (fs *Filesystem) putRaw(id object.ID, data []byte) error {
	if ok, err := fs.Has(id); err != nil {
		return err
	} else if ok {
		return nil
	}

	hex := id.String()
	dir := filepath.Join(fs.root, "objects", hex[:2])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	// Write to a temporary file and rename into place so that a
	// concurrent reader in this process never observes a partially
	// written object.
	tmp, err := os.CreateTemp(dir, "obj-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, hex[2:]))
}

// GetCommit recursively dereferences id to a commit object, following
// tag indirection, and returns it along with its own ID.
func GetCommit(s Store, id object.ID) (*object.Commit, object.ID, error) {
	obj, err := s.Get(id)
	if err != nil {
		return nil, id, err
	}
	switch obj := obj.(type) {
	case *object.Commit:
		return obj, id, nil
	case *object.Tag:
		switch obj.Type {
		case object.TypeCommit, object.TypeTag:
			return GetCommit(s, obj.Object)
		default:
			return nil, id, &object.TypeError{Value: obj}
		}
	default:
		return nil, id, &object.TypeError{Value: obj}
	}
}

// GetTree recursively dereferences id to a tree object, following
// commit and tag indirection, and returns it along with its own ID.
func GetTree(s Store, id object.ID) (*object.Tree, object.ID, error) {
	obj, err := s.Get(id)
	if err != nil {
		return nil, id, err
	}
	switch obj := obj.(type) {
	case *object.Tree:
		return obj, id, nil
	case *object.Commit:
		return GetTree(s, obj.Tree)
	case *object.Tag:
		switch obj.Type {
		case object.TypeTree, object.TypeCommit, object.TypeTag:
			return GetTree(s, obj.Object)
		default:
			return nil, id, &object.TypeError{Value: obj}
		}
	default:
		return nil, id, &object.TypeError{Value: obj}
	}
}
