package bitio

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundtrip(t *testing.T) {
	cases := []string{
		"",
		"0",
		"1",
		"01101",
		"11111111",
		"000000001",
		"1010101010101010101",
	}

	for _, bits := range cases {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		if err := w.WriteBits(bits); err != nil {
			t.Fatalf("WriteBits(%q): %v", bits, err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}

		r := NewReader(&buf)
		got := make([]byte, len(bits))
		for i := range bits {
			bit, err := r.ReadBit()
			if err != nil {
				t.Fatalf("ReadBit at %d: %v", i, err)
			}
			if bit == 0 {
				got[i] = '0'
			} else {
				got[i] = '1'
			}
		}
		if string(got) != bits {
			t.Errorf("roundtrip mismatch: want %q, got %q", bits, string(got))
		}
	}
}

func TestFlushEmptyIsNoop(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush on empty writer: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no bytes written, got %d", buf.Len())
	}
}

func TestWriterReusableAfterFlush(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteBits("101")
	w.Flush()
	w.WriteBits("110")
	w.Flush()

	if buf.Len() != 2 {
		t.Fatalf("expected 2 bytes, got %d", buf.Len())
	}
}

func TestReadEOF(t *testing.T) {
	var buf bytes.Buffer
	r := NewReader(&buf)
	if _, err := r.ReadBit(); err == nil {
		t.Fatal("expected error reading from empty stream")
	}
}
