// Package checkout materializes a commit's tree onto the filesystem:
// the final phase of a clone.
package checkout

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/example-labs/gitclone/object"
	"github.com/example-labs/gitclone/store"
)

// ErrBadCommit is returned when the commit named by a checkout's tip
// cannot be dereferenced to a tree.
var ErrBadCommit = errors.New("checkout: commit has no tree")

// ErrUnsupportedMode is returned when a tree entry's mode is a
// symlink or gitlink: neither is materialized on disk.
var ErrUnsupportedMode = errors.New("checkout: unsupported tree entry mode")

// Checkout walks the tree reachable from tip, read out of s, and
// writes it under dir, which must already exist. Subtrees become
// directories (mode 0755); blobs become regular files, executable
// (mode 0755) or not (mode 0644) according to their tree entry mode.
// Symlinks and gitlinks are reported via ErrUnsupportedMode rather
// than silently mismaterialized.
func Checkout(s store.Store, tip object.ID, dir string) error {
	tree, _, err := store.GetTree(s, tip)
	if err != nil {
		return ErrBadCommit
	}
	return checkoutTree(s, tree, dir)
}

func checkoutTree(s store.Store, tree *object.Tree, dir string) error {
	for _, name := range tree.Names() {
		ti := (*tree)[name]
		full := filepath.Join(dir, name)
		switch ti.Mode {
		case object.ModeTree:
			if err := os.MkdirAll(full, 0755); err != nil {
				return err
			}
			subtree, _, err := store.GetTree(s, ti.Object)
			if err != nil {
				return err
			}
			if err := checkoutTree(s, subtree, full); err != nil {
				return err
			}
		case object.ModeBlob, object.ModeExec:
			if err := checkoutBlob(s, ti, full); err != nil {
				return err
			}
		case object.ModeSymlink, object.ModeGitlink:
			return ErrUnsupportedMode
		default:
			return ErrUnsupportedMode
		}
	}
	return nil
}

func checkoutBlob(s store.Store, ti object.TreeInfo, full string) error {
	obj, err := s.Get(ti.Object)
	if err != nil {
		return err
	}
	blob, ok := obj.(*object.Blob)
	if !ok {
		return &object.TypeError{Value: obj}
	}
	mode := os.FileMode(0644)
	if ti.Mode == object.ModeExec {
		mode = 0755
	}
	return os.WriteFile(full, *blob, mode)
}
