// Package textutil provides streaming text utilities: line counting and
// line-start offset scanning over readers of arbitrary size.
package textutil

import (
	"bytes"
	"io"
)

// scanChunkSize is the read granularity for the streaming scanners. Corpus
// lines routinely exceed bufio's default token limit, so both scanners work
// on raw chunks instead of line tokens.
const scanChunkSize = 32 * 1024

// CountLines returns the number of newline-delimited lines read from r.
// A non-empty stream without a trailing newline counts the last partial line.
// Returns 0 for an empty stream.
func CountLines(r io.Reader) (int, error) {
	var (
		lines int
		last  byte = '\n'
	)

	buf := make([]byte, scanChunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			lines += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}

		if err == io.EOF {
			if last != '\n' {
				lines++
			}

			return lines, nil
		}

		if err != nil {
			return 0, err
		}
	}
}

// LinePositions returns the byte offset of the first byte of every line
// read from r. The first line of a non-empty stream starts at offset 0.
// A trailing newline does not open a new line.
func LinePositions(r io.Reader) ([]int64, error) {
	var (
		positions []int64
		offset    int64
	)

	atLineStart := true
	buf := make([]byte, scanChunkSize)

	for {
		n, err := r.Read(buf)

		for _, b := range buf[:n] {
			if atLineStart {
				positions = append(positions, offset)
				atLineStart = false
			}

			if b == '\n' {
				atLineStart = true
			}

			offset++
		}

		if err == io.EOF {
			return positions, nil
		}

		if err != nil {
			return nil, err
		}
	}
}
