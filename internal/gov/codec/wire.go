// Package codec implements the byte-exact OP_RETURN wire format for
// Proposal and Vote records, and the hashes derived from it.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// writer accumulates a governance record payload using the same
// CompactSize-prefixed, little-endian primitives as the host chain's wire
// format. Proposal and Vote hashes are a function of this exact encoding.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *writer) WriteInt32LE(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf.Write(b[:])
}

func (w *writer) WriteUint32LE(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) WriteInt64LE(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}

func (w *writer) WriteHash(h [32]byte) {
	w.buf.Write(h[:])
}

// WriteVarBytes writes a CompactSize length prefix followed by the bytes.
func (w *writer) WriteVarBytes(b []byte) error {
	if err := wire.WriteVarBytes(&w.buf, 0, b); err != nil {
		return fmt.Errorf("write varbytes: %w", err)
	}
	return nil
}

// WriteVarString writes a CompactSize length prefix followed by the string
// bytes (not null-terminated).
func (w *writer) WriteVarString(s string) error {
	return w.WriteVarBytes([]byte(s))
}

func (w *writer) Bytes() []byte {
	return w.buf.Bytes()
}

// reader consumes a governance record payload written by writer.
type reader struct {
	r *bytes.Reader
}

func newReader(b []byte) *reader {
	return &reader{r: bytes.NewReader(b)}
}

func (r *reader) ReadUint8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("read u8: %w", err)
	}
	return b, nil
}

func (r *reader) ReadInt32LE() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, fmt.Errorf("read i32: %w", err)
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

func (r *reader) ReadUint32LE() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, fmt.Errorf("read u32: %w", err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *reader) ReadInt64LE() (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, fmt.Errorf("read i64: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func (r *reader) ReadHash() ([32]byte, error) {
	var h [32]byte
	if _, err := io.ReadFull(r.r, h[:]); err != nil {
		return h, fmt.Errorf("read hash256: %w", err)
	}
	return h, nil
}

// ReadVarBytes reads a CompactSize length prefix and that many bytes,
// capped at maxSize to reject absurd lengths in a truncated/malicious
// payload before allocating.
func (r *reader) ReadVarBytes(maxSize uint32) ([]byte, error) {
	b, err := wire.ReadVarBytes(r.r, 0, maxSize, "payload")
	if err != nil {
		return nil, fmt.Errorf("read varbytes: %w", err)
	}
	return b, nil
}

func (r *reader) ReadVarString(maxSize uint32) (string, error) {
	b, err := r.ReadVarBytes(maxSize)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) Remaining() int {
	return r.r.Len()
}
