package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
)

const writeBufSize = 256 * 1024

// Writer appends JSON lines to a corpus file, lz4-framing the stream when
// the path carries CompressedExt. Close flushes; a Writer abandoned without
// Close leaves a truncated frame.
type Writer struct {
	file  *os.File
	lz    *lz4.Writer
	buf   *bufio.Writer
	lines int
}

// NewWriter creates (or truncates) the corpus at path.
func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create corpus: %w", err)
	}

	var (
		sink io.Writer = file
		lz   *lz4.Writer
	)

	if strings.HasSuffix(path, CompressedExt) {
		lz = lz4.NewWriter(file)
		sink = lz
	}

	return &Writer{file: file, lz: lz, buf: bufio.NewWriterSize(sink, writeBufSize)}, nil
}

// WriteLine appends one line, adding the newline.
func (w *Writer) WriteLine(line []byte) error {
	_, err := w.buf.Write(line)
	if err != nil {
		return fmt.Errorf("write corpus line: %w", err)
	}

	err = w.buf.WriteByte('\n')
	if err != nil {
		return fmt.Errorf("write corpus line: %w", err)
	}

	w.lines++

	return nil
}

// WriteJSON marshals v onto one line.
func (w *Writer) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode corpus line: %w", err)
	}

	return w.WriteLine(data)
}

// Count returns the number of lines written so far.
func (w *Writer) Count() int {
	return w.lines
}

// Close flushes buffered data, finishes the lz4 frame, and closes the file.
func (w *Writer) Close() error {
	err := w.buf.Flush()
	if err != nil {
		w.file.Close()

		return fmt.Errorf("flush corpus: %w", err)
	}

	if w.lz != nil {
		err = w.lz.Close()
		if err != nil {
			w.file.Close()

			return fmt.Errorf("finish corpus frame: %w", err)
		}
	}

	err = w.file.Close()
	if err != nil {
		return fmt.Errorf("close corpus: %w", err)
	}

	return nil
}
