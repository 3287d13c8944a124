package drive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files     []*File
	content   map[string]string
	downloads int
}

func (f *fakeSource) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeSource) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	f.downloads++
	body, ok := f.content[fileID]
	if !ok {
		return errors.New("not found")
	}
	_, err := io.WriteString(w, body)
	return err
}

func TestDownloaderSkipsSeenFiles(t *testing.T) {
	src := &fakeSource{
		files: []*File{
			{ID: "1", Name: "movimientos.csv", ModifiedTime: "2024-06-01T08:00:00Z"},
			{ID: "2", Name: "notes.pdf", ModifiedTime: "2024-06-01T08:00:00Z"},
			{ID: "3", Name: "norte.xlsx", ModifiedTime: "garbage"},
		},
		content: map[string]string{"1": "a,b\n", "3": "xlsx"},
	}
	d := NewDownloader(src)
	dir := t.TempDir()
	opts := DownloadOptions{FolderID: "folder", DownloadDir: dir}

	paths, err := d.Download(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "20240601_movimientos.csv"), paths[0])
	assert.Equal(t, filepath.Join(dir, "norte.xlsx"), paths[1])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	paths, err = d.Download(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.Equal(t, 2, src.downloads)

	src.files[0].ModifiedTime = "2024-06-02T08:00:00Z"
	paths, err = d.Download(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.True(t, strings.HasSuffix(paths[0], "20240602_movimientos.csv"))
}

func TestDownloaderRemovesPartialFile(t *testing.T) {
	src := &fakeSource{files: []*File{{ID: "9", Name: "lost.csv"}}}
	dir := t.TempDir()

	_, err := NewDownloader(src).Download(context.Background(), DownloadOptions{DownloadDir: dir})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWatcherPoll(t *testing.T) {
	src := &fakeSource{
		files:   []*File{{ID: "1", Name: "a.csv", ModifiedTime: "2024-06-01T08:00:00Z"}},
		content: map[string]string{"1": "x"},
	}
	var ingested []string
	w := NewWatcher(NewDownloader(src), DownloadOptions{DownloadDir: t.TempDir()}, 0, func(ctx context.Context, paths []string) error {
		ingested = append(ingested, paths...)
		return nil
	})

	paths, err := w.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, paths, 1)
	assert.Equal(t, paths, ingested)

	paths, err = w.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.Len(t, ingested, 1)
}
