package bytechan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// NewFile creates a duplex channel over f. When owned is true, f is closed
// with the channel.
func NewFile(f *os.File, owned bool, opts ...Option) *Channel {
	base := []Option{Name(f.Name())}
	if owned {
		base = append(base, Owns(f))
	}
	return New(f, f, append(base, opts...)...)
}

// Open opens path for reading. Files ending in .gz or .zst are
// decompressed transparently.
func Open(path string, opts ...Option) (*Channel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bytechan: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("bytechan: %w", err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("bytechan: %s is a directory", path)
	}

	base := []Option{Name(path)}
	switch compression(path) {
	case "gzip":
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("bytechan: open %s: %w", path, err)
		}
		return New(zr, nil, append(base, append([]Option{Owns(zr, f)}, opts...)...)...), nil
	case "zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("bytechan: open %s: %w", path, err)
		}
		release := &closerFunc{fn: func() error { zr.Close(); return nil }}
		return New(zr, nil, append(base, append([]Option{Owns(release, f)}, opts...)...)...), nil
	}
	return New(f, nil, append(base, append([]Option{Owns(f)}, opts...)...)...), nil
}

// Create creates or truncates path for writing. Files ending in .gz or .zst
// are compressed; the compressed trailer is written on Close.
func Create(path string, opts ...Option) (*Channel, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("bytechan: %w", err)
	}

	base := []Option{Name(path)}
	switch compression(path) {
	case "gzip":
		zw := gzip.NewWriter(f)
		return New(nil, zw, append(base, append([]Option{Owns(zw, f)}, opts...)...)...), nil
	case "zstd":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("bytechan: create %s: %w", path, err)
		}
		return New(nil, zw, append(base, append([]Option{Owns(zw, f)}, opts...)...)...), nil
	}
	return New(nil, f, append(base, append([]Option{Owns(f)}, opts...)...)...), nil
}

// OpenFile opens path with the given flags and returns a channel reading
// and/or writing according to flag. The file is closed once even when it
// serves both directions.
func OpenFile(path string, flag int, perm os.FileMode, opts ...Option) (*Channel, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, fmt.Errorf("bytechan: %w", err)
	}
	var (
		src io.Reader
		dst io.Writer
	)
	switch flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_RDONLY:
		src = f
	case os.O_WRONLY:
		dst = f
	default:
		src, dst = f, f
	}
	return New(src, dst, append([]Option{Name(path), Owns(f)}, opts...)...), nil
}

func compression(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return "gzip"
	case ".zst", ".zstd":
		return "zstd"
	}
	return ""
}
