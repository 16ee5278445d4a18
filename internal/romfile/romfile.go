// Package romfile loads cartridge images from disk. Plain .gb/.gbc files are
// returned as is; .gz, .xz, .zip and .7z archives are decompressed and the
// first ROM inside is returned.
package romfile

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/ulikunitz/xz"
)

// MaxSize is the largest image accepted after decompression.
const MaxSize = 8 * 1024 * 1024

var (
	// ErrEmptyArchive indicates an archive without any regular file in it.
	ErrEmptyArchive = errors.New("archive contains no files")

	// ErrTooLarge indicates a decompressed image above MaxSize.
	ErrTooLarge = errors.New("image too large")
)

// romExtensions are the entry names preferred when an archive holds several files.
var romExtensions = []string{".gb", ".gbc", ".sgb"}

// Load reads the given file and decompresses it if necessary.
func Load(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Decode(filename, data)
}

// Decode decompresses data according to the extension of name. Unknown
// extensions are treated as raw images.
func Decode(name string, data []byte) ([]byte, error) {
	var (
		decoded []byte
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".gz":
		decoded, err = decodeGzip(data)
	case ".xz":
		decoded, err = decodeXZ(data)
	case ".zip":
		decoded, err = decodeZip(data)
	case ".7z":
		decoded, err = decode7z(data)
	default:
		if len(data) > MaxSize {
			return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
		}
		return data, nil
	}

	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", filepath.Base(name), err)
	}
	return decoded, nil
}

func decodeGzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return readLimited(r)
}

func decodeXZ(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return readLimited(r)
}

func decodeZip(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	f := pick(files, func(f *zip.File) string { return f.Name })
	if f == nil {
		return nil, ErrEmptyArchive
	}
	return readEntry(f.Open)
}

func decode7z(data []byte) ([]byte, error) {
	r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	files := make([]*sevenzip.File, 0, len(r.File))
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	f := pick(files, func(f *sevenzip.File) string { return f.Name })
	if f == nil {
		return nil, ErrEmptyArchive
	}
	return readEntry(f.Open)
}

// pick returns the first entry with a ROM extension, or the first entry.
func pick[T any](entries []T, name func(T) string) T {
	var zero T
	if len(entries) == 0 {
		return zero
	}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(name(e)))
		for _, romExt := range romExtensions {
			if ext == romExt {
				return e
			}
		}
	}
	return entries[0]
}

func readEntry(open func() (io.ReadCloser, error)) ([]byte, error) {
	rc, err := open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return readLimited(rc)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxSize)
	}
	return data, nil
}
