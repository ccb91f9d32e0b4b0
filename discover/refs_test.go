package discover

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example-labs/gitclone/pktline"
)

func writePktLines(t *testing.T, lines ...string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)
	for _, l := range lines {
		if l == "" {
			require.NoError(t, w.Flush())
			continue
		}
		_, err := w.WriteString(l)
		require.NoError(t, err)
	}
	return &buf
}

func TestDiscoverParsesTipAndCapabilities(t *testing.T) {
	const tip = "ce013625030ba8dba906f756967f9e9ca394464a"
	body := writePktLines(t,
		"# service=git-upload-pack\n",
		"",
		tip+" HEAD\x00multi_ack thin-pack side-band\n",
		tip+" refs/heads/master\n",
		"",
	)

	adv, err := Discover(body)
	require.NoError(t, err)
	require.Equal(t, tip, adv.Tip.String())
	require.True(t, adv.Caps["multi_ack"])
	require.True(t, adv.Caps["thin-pack"])
	require.Len(t, adv.Refs, 2)
	require.Equal(t, tip, adv.Refs["HEAD"].String())
	require.Equal(t, tip, adv.Refs["refs/heads/master"].String())
}

func TestDiscoverNoTip(t *testing.T) {
	const id = "ce013625030ba8dba906f756967f9e9ca394464a"
	body := writePktLines(t, id+" refs/heads/feature-branch\n")

	_, err := Discover(body)
	require.ErrorIs(t, err, ErrNoTip)
}

func TestDiscoverEmptyBody(t *testing.T) {
	_, err := Discover(strings.NewReader(""))
	require.ErrorIs(t, err, ErrNoTip)
}

func TestParseCapabilities(t *testing.T) {
	caps := ParseCapabilities("multi_ack thin-pack side-band-64k ofs-delta")
	require.True(t, caps["ofs-delta"])
	require.False(t, caps["shallow"])
}
