package clone

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example-labs/gitclone/object"
	"github.com/example-labs/gitclone/packfile"
	"github.com/example-labs/gitclone/pktline"
)

type fakeTransport struct {
	refBody []byte
	packResp []byte
}

func (f *fakeTransport) DiscoverRefs(ctx context.Context, repoURL string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.refBody)), nil
}

func (f *fakeTransport) UploadPack(ctx context.Context, repoURL string, body []byte) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.packResp)), nil
}

func buildRefBody(t *testing.T, tip object.ID) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)
	_, err := w.WriteString("# service=git-upload-pack\n")
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	_, err = w.WriteString(tip.String() + " HEAD\x00multi_ack\n")
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	return buf.Bytes()
}

func buildPackResponse(t *testing.T, objs ...object.Interface) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)
	_, err := w.WriteString("NAK\n")
	require.NoError(t, err)

	var packBuf bytes.Buffer
	pw, err := packfile.NewWriter(&packBuf, int64(len(objs)))
	require.NoError(t, err)
	for _, obj := range objs {
		require.NoError(t, pw.Write(obj))
	}
	require.NoError(t, pw.Close())
	buf.Write(packBuf.Bytes())
	return buf.Bytes()
}

func TestCloneEndToEnd(t *testing.T) {
	blob := object.Blob("contents of a.txt\n")
	blobID, err := object.Hash(&blob)
	require.NoError(t, err)

	tree := &object.Tree{"a.txt": {Mode: object.ModeBlob, Object: blobID}}
	treeID, err := object.Hash(tree)
	require.NoError(t, err)

	commit := &object.Commit{Tree: treeID}
	commitID, err := object.Hash(commit)
	require.NoError(t, err)

	refBody := buildRefBody(t, commitID)
	packResp := buildPackResponse(t, &blob, tree, commit)

	targetDir := t.TempDir()
	opts := Options{
		Transport: &fakeTransport{refBody: refBody, packResp: packResp},
	}
	err = Clone(context.Background(), "http://example.invalid/repo.git", targetDir, opts)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(targetDir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, []byte(blob), got)

	exists, err := os.Stat(filepath.Join(targetDir, "objects", blobID.String()[:2], blobID.String()[2:]))
	require.NoError(t, err)
	require.False(t, exists.IsDir())
}

func TestCloneNoTransport(t *testing.T) {
	err := Clone(context.Background(), "http://example.invalid/repo.git", t.TempDir(), Options{})
	require.Error(t, err)
}
