package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/Sumatoshi-tech/treefeed/pkg/textutil"
)

// IndexExt is appended to a corpus path to name its line index.
const IndexExt = ".idx"

// WriteIndex stores line-start byte offsets, one decimal per line, so
// loaders can seek straight to the k-th example.
func WriteIndex(path string, offsets []int64) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	for _, off := range offsets {
		_, err = w.WriteString(strconv.FormatInt(off, 10))
		if err != nil {
			return fmt.Errorf("write index: %w", err)
		}

		err = w.WriteByte('\n')
		if err != nil {
			return fmt.Errorf("write index: %w", err)
		}
	}

	err = w.Flush()
	if err != nil {
		return fmt.Errorf("flush index: %w", err)
	}

	return nil
}

// ReadIndex loads the offsets written by WriteIndex.
func ReadIndex(path string) ([]int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer file.Close()

	var offsets []int64

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		off, err := strconv.ParseInt(scanner.Text(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse index entry %d: %w", len(offsets)+1, err)
		}

		offsets = append(offsets, off)
	}

	err = scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	return offsets, nil
}

// BuildIndex scans the finished corpus at dataPath and writes its line
// index next to it. Offsets are positions in the plain byte stream, so
// compressed corpora cannot be indexed.
func BuildIndex(dataPath, indexPath string) error {
	file, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("open corpus for indexing: %w", err)
	}
	defer file.Close()

	offsets, err := textutil.LinePositions(file)
	if err != nil {
		return fmt.Errorf("scan corpus for indexing: %w", err)
	}

	return WriteIndex(indexPath, offsets)
}
