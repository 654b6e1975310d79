package leftovers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestScanListsFilesInOutputFolders(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "recup_dir.1", "f0000999.png"), 10)
	touch(t, filepath.Join(base, "recup_dir.1", "report.xml"), 3)
	touch(t, filepath.Join(base, "recup_dir.2", "nested", "f0001000.JPG"), 20)
	touch(t, filepath.Join(base, "recup_dir.2", "f0001001"), 5)
	// Sorted output and unrelated folders are not leftovers.
	touch(t, filepath.Join(base, "JPG", "f0000000.jpg"), 100)
	touch(t, filepath.Join(base, "other", "notes.txt"), 100)
	touch(t, filepath.Join(base, "recup_dir.file"), 1)

	res, err := Scan(context.Background(), Options{Base: base, Ignore: []string{"report.xml"}})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Folders)
	require.Len(t, res.Files, 3)
	assert.Equal(t, filepath.Join("recup_dir.1", "f0000999.png"), res.Files[0].Rel)
	assert.Equal(t, filepath.Join("recup_dir.2", "f0001001"), res.Files[1].Rel)
	assert.Equal(t, filepath.Join("recup_dir.2", "nested", "f0001000.JPG"), res.Files[2].Rel)
	assert.Equal(t, int64(35), res.TotalBytes)
	assert.Empty(t, res.Errors)

	assert.Equal(t, map[string]int{"png": 1, "jpg": 1, "": 1}, res.ByExt())
}

func TestScanCustomMarker(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "carve.1", "a.bin"), 4)
	touch(t, filepath.Join(base, "recup_dir.1", "b.bin"), 4)

	res, err := Scan(context.Background(), Options{Base: base, Marker: "carve"})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "a.bin", filepath.Base(res.Files[0].Path))
	assert.Equal(t, "bin", res.Files[0].Ext)
}

func TestScanNoOutputFolders(t *testing.T) {
	res, err := Scan(context.Background(), Options{Base: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Folders)
	assert.NotNil(t, res.Files)
	assert.Empty(t, res.Files)
}

func TestScanInvalidBase(t *testing.T) {
	_, err := Scan(context.Background(), Options{Base: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "plain")
	touch(t, file, 1)
	_, err = Scan(context.Background(), Options{Base: file})
	assert.Error(t, err)
}

func TestScanCancelled(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "recup_dir.1", "a.jpg"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, Options{Base: base})
	assert.ErrorIs(t, err, context.Canceled)
}
