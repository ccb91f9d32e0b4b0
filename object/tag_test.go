package object

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagMarshalUnmarshalBinaryRoundTrip(t *testing.T) {
	tag := &Tag{
		Object:  mustID(t, 0x44),
		Type:    TypeCommit,
		Tag:     "v1.0.0",
		Tagger:  testSignature(t, "A U Thor", "author@example.com", 1700000000, -7*60*60),
		Message: "release v1.0.0\n",
	}
	data, err := tag.MarshalBinary()
	require.NoError(t, err)

	got := new(Tag)
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, tag, got)
}

func TestTypeStringAndScan(t *testing.T) {
	for _, tc := range []struct {
		typ Type
		str string
	}{
		{TypeCommit, "commit"},
		{TypeTree, "tree"},
		{TypeBlob, "blob"},
		{TypeTag, "tag"},
	} {
		require.Equal(t, tc.str, tc.typ.String())

		var got Type
		_, err := fmt.Sscan(tc.str, &got)
		require.NoError(t, err)
		require.Equal(t, tc.typ, got)
	}
}

func TestTypeStringUnknown(t *testing.T) {
	require.Equal(t, "", TypeUnknown.String())
}
