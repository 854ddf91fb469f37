// Package snapshot encodes boards as fixed-size records and keeps the
// resumable match on disk.
//
// Record layout (65 bytes):
//
//	byte 0      format version, currently 1
//	bytes 1-64  cells in row-major order: 0 empty, 1 dark, 2 light
//
// The same record is used on the wire and in the save file. Scores and
// move counts are never stored; they are recomputed from the grid.
//
// The leading version byte is also sent on the wire, where a bare 64-cell
// grid with no header would otherwise be expected. One versioned record
// for both uses was chosen over two formats.
package snapshot

import (
	"errors"
	"fmt"
	"io"

	"termversi/types"
)

const (
	// Version is the record format written by Encode.
	Version byte = 1
	// RecordSize is the encoded length of one snapshot.
	RecordSize = 1 + types.Size*types.Size
)

// ErrFormat is returned for records with the wrong size, an unknown
// version or an invalid cell value.
var ErrFormat = errors.New("malformed snapshot record")

// Encode serializes s into a new RecordSize-byte slice.
func Encode(s types.Snapshot) []byte {
	buf := make([]byte, RecordSize)
	buf[0] = Version
	b := s.Board()
	for row := 0; row < types.Size; row++ {
		for col := 0; col < types.Size; col++ {
			buf[1+row*types.Size+col] = byte(b[row][col])
		}
	}
	return buf
}

// Decode parses one record produced by Encode.
func Decode(buf []byte) (types.Snapshot, error) {
	if len(buf) != RecordSize {
		return types.Snapshot{}, fmt.Errorf("%w: %d bytes, want %d", ErrFormat, len(buf), RecordSize)
	}
	if buf[0] != Version {
		return types.Snapshot{}, fmt.Errorf("%w: unknown version %d", ErrFormat, buf[0])
	}
	var b types.Board
	for i, v := range buf[1:] {
		c := types.Cell(v)
		if !c.Valid() {
			return types.Snapshot{}, fmt.Errorf("%w: cell %d has value %d", ErrFormat, i, v)
		}
		b[i/types.Size][i%types.Size] = c
	}
	return types.NewSnapshot(b), nil
}

// Write writes one record to w.
func Write(w io.Writer, s types.Snapshot) error {
	_, err := w.Write(Encode(s))
	return err
}

// Read blocks until one full record has been read from r. A stream that
// ends cleanly between records yields io.EOF; one that ends mid-record
// yields io.ErrUnexpectedEOF.
func Read(r io.Reader) (types.Snapshot, error) {
	buf := make([]byte, RecordSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return types.Snapshot{}, err
	}
	return Decode(buf)
}
