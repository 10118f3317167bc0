package localstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrdersParser/internal/domain"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestSearchMatchesNamePredicates(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "etsy", "12x8 3012345678.png"))
	touch(t, filepath.Join(root, "labels", "3012345678.pdf"))
	touch(t, filepath.Join(root, "other.png"))

	store := New(root, t.TempDir(), nil)

	art, err := store.Search(context.Background(), domain.ArtworkQuery("3012345678"))
	require.NoError(t, err)
	require.Len(t, art, 1)
	assert.Equal(t, "12x8 3012345678.png", art[0].Name)
	assert.True(t, strings.HasPrefix(art[0].Link, "file://"))

	labels, err := store.Search(context.Background(), domain.LabelQuery("3012345678"))
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "3012345678.pdf", labels[0].Name)
}

func TestSearchMissingRootIsEmpty(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "absent"), "", nil)
	files, err := store.Search(context.Background(), domain.ArtworkQuery("x"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestUploadLabelMovesFile(t *testing.T) {
	root := t.TempDir()
	labels := t.TempDir()
	touch(t, filepath.Join(labels, "111.pdf"))

	store := New(root, labels, nil)
	link, err := store.UploadLabel(context.Background(), "111")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(link, "/111.pdf"))

	_, err = os.Stat(filepath.Join(labels, "111.pdf"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(filepath.Join(root, "111.pdf"))
	assert.NoError(t, err)

	_, err = store.UploadLabel(context.Background(), "111")
	assert.ErrorIs(t, err, domain.ErrLabelNotFound)
}
