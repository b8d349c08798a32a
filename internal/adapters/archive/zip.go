package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/3-lines-studio/lander/internal/core"
	"github.com/3-lines-studio/lander/internal/usecase"
)

const defaultMaxArchiveBytes = 512 << 20

// epoch is stamped on every entry so identical content yields identical
// archive bytes.
var epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// storedExtensions are formats that are already compressed.
var storedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".avif": true,
	".mp4": true, ".webm": true, ".mov": true, ".ogv": true,
	".woff": true, ".woff2": true, ".zip": true, ".gz": true,
}

type Config struct {
	MaxBytes int64
	Level    int
}

type ZipWriter struct {
	cfg Config
}

func NewZipWriter(cfg Config) *ZipWriter {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxArchiveBytes
	}
	if cfg.Level == 0 {
		cfg.Level = flate.BestCompression
	}
	return &ZipWriter{cfg: cfg}
}

func (w *ZipWriter) Write(ctx context.Context, entries []core.ArchiveEntry) ([]byte, error) {
	var buf bytes.Buffer
	limited := &capWriter{w: &buf, max: w.cfg.MaxBytes}

	zw := zip.NewWriter(limited)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, w.cfg.Level)
	})

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := core.ValidateArchivePath(e.Path); err != nil {
			return nil, err
		}
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true

		header := &zip.FileHeader{
			Name:     e.Path,
			Method:   methodFor(e.Path),
			Modified: epoch,
		}
		header.SetMode(0o644)

		fw, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", e.Path, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func methodFor(name string) uint16 {
	if storedExtensions[strings.ToLower(path.Ext(name))] {
		return zip.Store
	}
	return zip.Deflate
}

type capWriter struct {
	w   io.Writer
	n   int64
	max int64
}

func (c *capWriter) Write(p []byte) (int, error) {
	if c.n+int64(len(p)) > c.max {
		return 0, fmt.Errorf("%w: more than %d bytes", usecase.ErrArchiveTooLarge, c.max)
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// ReadEntries lists the files of an archive with their contents.
func ReadEntries(data []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		files[f.Name] = content
	}
	return files, nil
}

// Open exposes an archive as a read-only file system.
func Open(data []byte) (iofs.FS, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return zr, nil
}
