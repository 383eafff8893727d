package dictcore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileArenaAllocWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	arena, err := NewFileArena(filepath.Join(dir, "test.dictcore"), nil)
	require.NoError(t, err)
	defer arena.Close()

	ref, err := arena.Alloc(64)
	require.NoError(t, err)

	payload := []byte("hello, clustered dictionary")
	require.NoError(t, arena.WriteBack(ref, payload))

	got, err := arena.Deref(ref)
	require.NoError(t, err)
	require.Equal(t, payload, got[:len(payload)])
}

func TestFileArenaMultipleAllocsGetDistinctRefs(t *testing.T) {
	dir := t.TempDir()
	arena, err := NewFileArena(filepath.Join(dir, "test.dictcore"), nil)
	require.NoError(t, err)
	defer arena.Close()

	ref1, err := arena.Alloc(16)
	require.NoError(t, err)
	ref2, err := arena.Alloc(16)
	require.NoError(t, err)
	require.NotEqual(t, ref1, ref2)
}

func TestFileArenaFreeThenReallocReusesPage(t *testing.T) {
	dir := t.TempDir()
	arena, err := NewFileArena(filepath.Join(dir, "test.dictcore"), nil)
	require.NoError(t, err)
	defer arena.Close()

	ref, err := arena.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, arena.Free(ref))

	_, err = arena.Alloc(16)
	require.NoError(t, err)
}

func TestFileArenaWithCipherRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cipher, err := NewAseCipher([]byte("0123456789abcdef"), 4096)
	require.NoError(t, err)
	arena, err := NewFileArena(filepath.Join(dir, "encrypted.dictcore"), cipher)
	require.NoError(t, err)
	defer arena.Close()

	ref, err := arena.Alloc(64)
	require.NoError(t, err)

	payload := []byte("encrypted page contents round-trip")
	require.NoError(t, arena.WriteBack(ref, payload))

	got, err := arena.Deref(ref)
	require.NoError(t, err)
	require.Equal(t, payload, got[:len(payload)])
}

func TestDictionaryOverEncryptedArena(t *testing.T) {
	dir := t.TempDir()
	p := newTestParent()
	cfg := Config{
		RootDir:    dir,
		Name:       "secure",
		Persistent: true,
		CipherFactory: func() (Cipher, error) {
			return NewAseCipher([]byte("0123456789abcdef"), 4096)
		},
	}
	d, err := NewDictionary(1, KeyTypeInt, ValueTypeString, false, p, cfg)
	require.NoError(t, err)
	defer d.arena.Close()

	for i := int64(0); i < 20; i++ {
		_, _, err := d.Insert(MixedInt(i), MixedString("value"))
		require.NoError(t, err)
	}
	require.Equal(t, 20, d.Size())

	v, err := d.Get(MixedInt(5))
	require.NoError(t, err)
	s, _ := v.AsString()
	require.Equal(t, "value", s)
}

func TestFileBackedClusterTreeSurvivesManyInserts(t *testing.T) {
	dir := t.TempDir()
	arena, err := NewFileArena(filepath.Join(dir, "test.dictcore"), nil)
	require.NoError(t, err)
	defer arena.Close()

	tree := newClusterTree(arena, KeyTypeInt, 8, nil)
	for i := uint64(0); i < 128; i++ {
		require.NoError(t, tree.Insert(i, MixedInt(int64(i)), MixedInt(int64(i*2))))
	}
	require.Equal(t, 128, tree.Size())
	_, value, err := tree.Get(64)
	require.NoError(t, err)
	v, _ := value.AsInt()
	require.Equal(t, int64(128), v)
}
