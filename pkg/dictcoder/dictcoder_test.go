package dictcoder

import (
	"bytes"
	"testing"
)

// streamChunk mirrors how pkg/entry drives a StreamCompressor: fixed-size
// reads across multiple Feed calls, so back-references form both within a
// chunk and across chunk boundaries.
const streamChunk = 64 * 1024

func compressStreamed(b []byte) (tokens []Token, serialized []byte) {
	c := NewStreamCompressor(0, 0)
	for off := 0; off < len(b); off += streamChunk {
		end := off + streamChunk
		if end > len(b) {
			end = len(b)
		}
		c.Feed(b[off:end], end == len(b))
		serialized = append(serialized, c.ConsumeOutput()...)
	}
	if len(b) == 0 {
		c.Feed(nil, true)
		serialized = append(serialized, c.ConsumeOutput()...)
	}
	return Deserialize(serialized), serialized
}

func compressAll(b []byte) []Token {
	tokens, _ := compressStreamed(b)
	return tokens
}

func TestStreamRoundtrip(t *testing.T) {
	sizes := []int{0, 1, 2, MinMatch - 1, MinMatch, WindowSizeDefault, WindowSizeDefault + 1}
	for _, n := range sizes {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(i % 251)
		}
		tokens := compressAll(b)
		got, err := Decompress(tokens)
		if err != nil {
			t.Fatalf("size %d: Decompress: %v", n, err)
		}
		if !bytes.Equal(got, b) {
			t.Fatalf("size %d: roundtrip mismatch", n)
		}
	}
}

func TestRepeatingByteCompressesWell(t *testing.T) {
	b := bytes.Repeat([]byte{0x41}, 1_000_000)
	tokens, serialized := compressStreamed(b)

	if len(serialized) >= len(b) {
		t.Fatalf("expected serialized tokens smaller than input, got %d >= %d", len(serialized), len(b))
	}

	got, err := Decompress(tokens)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, b) {
		t.Fatal("roundtrip mismatch on repeating input")
	}
}

func TestBackReferenceOverlap(t *testing.T) {
	tokens := []Token{
		{Kind: TokenLiteral, Literal: 'a'},
		{Kind: TokenBackRef, Offset: 1, Length: 5},
	}
	got, err := Decompress(tokens)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(got) != "aaaaaa" {
		t.Fatalf("want %q, got %q", "aaaaaa", string(got))
	}
}

func TestDecompressRejectsBadOffset(t *testing.T) {
	tokens := []Token{
		{Kind: TokenBackRef, Offset: 1, Length: 1},
	}
	if _, err := Decompress(tokens); err == nil {
		t.Fatal("expected error for back-reference into empty output")
	}
}

func TestSerializeDeserializeRoundtrip(t *testing.T) {
	tokens := []Token{
		{Kind: TokenLiteral, Literal: 'x'},
		{Kind: TokenBackRef, Offset: 300, Length: 10},
		{Kind: TokenLiteral, Literal: 0},
	}
	got := Deserialize(Serialize(tokens))
	if len(got) != len(tokens) {
		t.Fatalf("want %d tokens, got %d", len(tokens), len(got))
	}
	for i := range tokens {
		if got[i] != tokens[i] {
			t.Errorf("token %d: want %+v, got %+v", i, tokens[i], got[i])
		}
	}
}

func TestDeserializeStopsCleanlyOnTruncation(t *testing.T) {
	// A back-reference tag with only one byte following it is truncated;
	// deserialization should stop, not panic or error.
	raw := []byte{0x00, 'a', 0x01, 0x05}
	tokens := Deserialize(raw)
	if len(tokens) != 1 {
		t.Fatalf("want 1 complete token before truncation, got %d", len(tokens))
	}
}

func TestDeserializeStopsCleanlyOnUnknownTag(t *testing.T) {
	raw := []byte{0x00, 'a', 0xFF, 'b'}
	tokens := Deserialize(raw)
	if len(tokens) != 1 {
		t.Fatalf("want 1 token before unknown tag, got %d", len(tokens))
	}
}
