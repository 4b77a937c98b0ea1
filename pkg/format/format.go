// Package format holds the wire-level primitives shared by pkg/entry and
// pkg/archive: the magic constants identifying each container version,
// the uint16 little-endian length-prefixed byte-string codec used for the
// V4 relative-path field, and fixed-width little-endian integer helpers.
package format

import (
	"encoding/binary"
	"io"

	"kittypress/pkg/kerrors"
)

// Magic values identifying each on-disk format. All are 4 bytes.
var (
	MagicV1 = [4]byte{'K', 'P', '0', '1'}
	MagicV2 = [4]byte{'K', 'P', '0', '2'}
	MagicV3 = [4]byte{'K', 'P', '0', '3'}
	MagicV4 = [4]byte{'K', 'P', '0', '4'}
)

// EntryFlagCompressedContainer marks a V4 entry as wrapping a compressed
// container. Readers must not branch on it (the wrapped V3 container
// carries its own is_compressed flag); writers always emit 0x01.
const EntryFlagCompressedContainer = 0x01

// ReadMagic reads the leading 4 bytes of r and returns them as read; it
// does not check them against the known magics (see KnownMagic).
func ReadMagic(r io.Reader) ([4]byte, error) {
	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return m, kerrors.New(kerrors.Truncated, "format.ReadMagic", "", err)
		}
		return m, kerrors.New(kerrors.IO, "format.ReadMagic", "", err)
	}
	return m, nil
}

// KnownMagic reports whether m is one of the four recognized magics.
func KnownMagic(m [4]byte) bool {
	return m == MagicV1 || m == MagicV2 || m == MagicV3 || m == MagicV4
}

// WriteLenPrefixed writes a uint16 little-endian length followed by b's
// bytes. b must be shorter than 65536 bytes.
func WriteLenPrefixed(w io.Writer, b []byte) error {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return kerrors.New(kerrors.IO, "format.WriteLenPrefixed", "", err)
	}
	if len(b) == 0 {
		return nil
	}
	if _, err := w.Write(b); err != nil {
		return kerrors.New(kerrors.IO, "format.WriteLenPrefixed", "", err)
	}
	return nil
}

// ReadLenPrefixed reads a uint16 little-endian length followed by that
// many bytes.
func ReadLenPrefixed(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, kerrors.New(kerrors.Truncated, "format.ReadLenPrefixed", "", err)
	}
	n := binary.LittleEndian.Uint16(lenBuf[:])
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, kerrors.New(kerrors.Truncated, "format.ReadLenPrefixed", "", err)
	}
	return b, nil
}

// WriteUint64 writes v as 8 little-endian bytes.
func WriteUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return kerrors.New(kerrors.IO, "format.WriteUint64", "", err)
	}
	return nil
}

// ReadUint64 reads 8 little-endian bytes into a uint64.
func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, kerrors.New(kerrors.Truncated, "format.ReadUint64", "", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// WriteUint32 writes v as 4 little-endian bytes.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return kerrors.New(kerrors.IO, "format.WriteUint32", "", err)
	}
	return nil
}

// ReadUint32 reads 4 little-endian bytes into a uint32.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, kerrors.New(kerrors.Truncated, "format.ReadUint32", "", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
