// Package irbinary implements a length-prefixed little-endian binary
// IR stream: each node record begins with a 4-byte little-endian
// length followed by a 1-byte kind tag, the node's InstrIdx as a 4-byte
// little-endian integer, and the kind's payload. The
// exact byte layout is owned by this package rather than internal/ir,
// which only guarantees that what this package writes, it can read
// back into an IR equal under structural comparison of kinds, indices,
// and payloads.
package irbinary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/iancoleman/strcase"
)

// DebugLabel renders an internal Go field name (e.g. "PointerDepth")
// as a snake_case label — the same wire-naming convention
// internal/astdecode accepts on the way in, applied here on the way
// out. The encoder and decoder do not call it.
func DebugLabel(fieldName string) string {
	return strcase.ToSnake(fieldName)
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeInt32(w io.Writer, v int32) error { return writeUint32(w, uint32(v)) }

func readInt32(r io.Reader) (int32, error) {
	u, err := readUint32(r)
	return int32(u), err
}

func writeInt64(w io.Writer, v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	_, err := w.Write(b[:])
	return err
}

func readInt64(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func writeFloat64(w io.Writer, v float64) error {
	return writeInt64(w, int64(math.Float64bits(v)))
}

func readFloat64(r io.Reader) (float64, error) {
	v, err := readInt64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(r, b[:])
	return b[0], err
}

func writeBool(w io.Writer, b bool) error {
	if b {
		return writeByte(w, 1)
	}
	return writeByte(w, 0)
}

func readBool(r io.Reader) (bool, error) {
	b, err := readByte(r)
	return b != 0, err
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// readFramed reads one length-prefixed record and returns a reader
// positioned at its payload (kind byte + body), bounded to exactly the
// record's declared length so a malformed length can never read past
// its own record into the next.
func readFramed(r io.Reader) (*bytes.Reader, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("irbinary: truncated record (want %d bytes): %w", n, err)
	}
	return bytes.NewReader(buf), nil
}

func writeFramed(w io.Writer, body []byte) error {
	if err := writeUint32(w, uint32(len(body))); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
