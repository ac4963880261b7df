package bencode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	root, err := Strict().Decode([]byte(torrent))
	require.NoError(t, err)

	name, err := Find(root, "info", "name")
	require.NoError(t, err)
	require.Equal(t, Bytes("hello"), name)

	// an empty path returns the root
	self, err := Find(root)
	require.NoError(t, err)
	require.Equal(t, root, self)

	_, err = Find(root, "info", "missing")
	require.ErrorIs(t, err, ErrNoValue)

	_, err = Find(root, "announce", "host")
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestFindSpan(t *testing.T) {
	data := []byte(torrent)

	root, err := New(WithDecoration()).Decode(data)
	require.NoError(t, err)

	span, err := FindSpan(root, "info", "name")
	require.NoError(t, err)

	raw, err := span.Slice(data)
	require.NoError(t, err)
	require.Equal(t, "5:hello", string(raw))
	require.Equal(t, int64(7), span.Len())

	span, err = FindSpan(root)
	require.NoError(t, err)
	require.Equal(t, Span{Start: 0, End: int64(len(data))}, span)

	// spans are only recorded with decoration
	undecorated, err := Strict().Decode(data)
	require.NoError(t, err)

	_, err = FindSpan(undecorated, "info")
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestSpanSliceOutOfBounds(t *testing.T) {
	_, err := Span{Start: 2, End: 10}.Slice([]byte("abc"))
	require.ErrorIs(t, err, ErrUnderrun)

	_, err = Span{Start: 2, End: 1}.Slice([]byte("abc"))
	require.ErrorIs(t, err, ErrUnderrun)
}
