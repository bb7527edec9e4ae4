package bytechan

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOpen_RoundTrip(t *testing.T) {
	for _, name := range []string{"plain.txt", "packed.gz", "packed.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			w, err := Create(path)
			require.NoError(t, err)
			_, err = w.WriteString("3[ 1 2 3 ] ")
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := Open(path)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.Equal(t, "3[ 1 2 3 ] ", string(got))
		})
	}
}

func TestOpen_Directory(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
}

func TestOpenFile_Duplex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duplex")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	ch, err := OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	require.True(t, ch.Readable())
	require.True(t, ch.Writable())

	b, err := ch.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('a'), b)
	require.NoError(t, ch.Close())
}
