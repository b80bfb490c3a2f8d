// Package dataset reads and writes JSON Lines corpora, optionally
// lz4-compressed, together with the byte-offset indexes and run manifests
// that accompany produced datasets.
package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/treefeed/pkg/textutil"
)

// CompressedExt marks lz4-framed corpora. Compression is inferred from the
// path on both ends.
const CompressedExt = ".lz4"

// readBufSize is the initial buffer for line reads. Lines grow past it
// freely; corpus trees routinely serialize to megabytes.
const readBufSize = 256 * 1024

// Reader streams one corpus line at a time.
type Reader struct {
	file *os.File
	buf  *bufio.Reader
	line int
}

// OpenReader opens a corpus for line-by-line reading, decompressing
// transparently when the path carries CompressedExt.
func OpenReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}

	var src io.Reader = file
	if strings.HasSuffix(path, CompressedExt) {
		src = lz4.NewReader(file)
	}

	return &Reader{file: file, buf: bufio.NewReaderSize(src, readBufSize)}, nil
}

// Next returns the next line without its trailing newline. Blank lines are
// returned as empty slices so callers can count or skip them. At end of
// input Next returns io.EOF.
func (r *Reader) Next() ([]byte, error) {
	line, err := r.buf.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read corpus line %d: %w", r.line+1, err)
	}

	if len(line) == 0 {
		return nil, io.EOF
	}

	r.line++

	return bytes.TrimSuffix(line, []byte{'\n'}), nil
}

// Line returns the 1-based number of the most recently returned line.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll slurps every line of the corpus at path. Intended for corpora
// known to fit in memory.
func ReadAll(path string) ([][]byte, error) {
	return ReadLimit(path, 0)
}

// ReadLimit slurps up to limit lines of the corpus at path. A non-positive
// limit reads everything.
func ReadLimit(path string, limit int) ([][]byte, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var lines [][]byte

	for {
		line, err := r.Next()
		if err == io.EOF {
			return lines, nil
		}

		if err != nil {
			return nil, err
		}

		lines = append(lines, append([]byte(nil), line...))

		if limit > 0 && len(lines) == limit {
			return lines, nil
		}
	}
}

// CountLines counts corpus lines, seeing through compression.
func CountLines(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open corpus: %w", err)
	}
	defer file.Close()

	var src io.Reader = file
	if strings.HasSuffix(path, CompressedExt) {
		src = lz4.NewReader(file)
	}

	n, err := textutil.CountLines(src)
	if err != nil {
		return 0, fmt.Errorf("count corpus lines: %w", err)
	}

	return n, nil
}
