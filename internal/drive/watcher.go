package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FileSource is the part of Service the downloader needs.
type FileSource interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
}

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader copies movement exports from a Drive folder, skipping files it
// has already fetched unless they were modified since.
type Downloader struct {
	source FileSource
	mu     sync.Mutex
	seen   map[string]string // file ID -> modifiedTime
}

func NewDownloader(source FileSource) *Downloader {
	return &Downloader{source: source, seen: make(map[string]string)}
}

// Download fetches new or changed CSV and XLSX files into DownloadDir and
// returns their local paths. Local names carry the modification date as a
// YYYYMMDD_ prefix so the ingest pipeline can group them by day.
func (d *Downloader) Download(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.source.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		if !d.changed(f) {
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, localName(f))
		if err := d.fetch(ctx, f, localPath); err != nil {
			return nil, err
		}
		d.markSeen(f)
		localPaths = append(localPaths, localPath)
	}
	return localPaths, nil
}

func (d *Downloader) fetch(ctx context.Context, f *File, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := d.source.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		_ = os.Remove(localPath)
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}

func (d *Downloader) changed(f *File) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.seen[f.ID]
	return !ok || prev != f.ModifiedTime
}

func (d *Downloader) markSeen(f *File) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[f.ID] = f.ModifiedTime
}

func localName(f *File) string {
	name := filepath.Base(f.Name)
	modified, err := time.Parse(time.RFC3339, f.ModifiedTime)
	if err != nil {
		return name
	}
	return modified.UTC().Format("20060102") + "_" + name
}

// Watcher polls a Drive folder and hands new files to an ingest callback.
type Watcher struct {
	downloader *Downloader
	opts       DownloadOptions
	interval   time.Duration
	ingest     func(ctx context.Context, paths []string) error
}

func NewWatcher(d *Downloader, opts DownloadOptions, interval time.Duration, ingest func(ctx context.Context, paths []string) error) *Watcher {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Watcher{downloader: d, opts: opts, interval: interval, ingest: ingest}
}

// Poll runs a single download and ingest pass and returns the files handled.
func (w *Watcher) Poll(ctx context.Context) ([]string, error) {
	paths, err := w.downloader.Download(ctx, w.opts)
	if err != nil {
		return nil, fmt.Errorf("drive download: %w", err)
	}
	if len(paths) == 0 {
		return nil, nil
	}
	if err := w.ingest(ctx, paths); err != nil {
		return paths, fmt.Errorf("drive ingest: %w", err)
	}
	return paths, nil
}

// Run polls until ctx is cancelled. Errors are logged and the next tick retries.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		paths, err := w.Poll(ctx)
		if err != nil {
			log.Error().Err(err).Msg("drive: poll failed")
		} else if len(paths) > 0 {
			log.Info().Int("files", len(paths)).Msg("drive: ingested new files")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
