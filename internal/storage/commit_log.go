package storage

import (
	"fmt"
	"io"
	"os"
)

// Note: WAL access is intended to be single-writer during normal operation,
// with readers only during crash recovery. Current helpers do not coordinate
// concurrent writers/readers; add external synchronization if used outside
// that pattern.

// Write appends data to the given open file handle. Caller owns file
// lifecycle; a short write is reported as io.ErrShortWrite.
func Write(file *os.File, data []byte) error {
	n, err := file.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("write %d bytes: %w", len(data), err)
	}
	return nil
}

// Read reads exactly length bytes starting from the given offset on the
// provided file handle. A record cut short by the end of the file is reported
// as io.ErrUnexpectedEOF.
func Read(file *os.File, offset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := file.ReadAt(buf, offset)
	if err == io.EOF && n < length {
		err = io.ErrUnexpectedEOF
	} else if err == io.EOF {
		err = nil
	}
	if err != nil {
		return buf[:n], fmt.Errorf("read %d bytes at %d: %w", length, offset, err)
	}
	return buf, nil
}
