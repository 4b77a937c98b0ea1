package entropy

import (
	"bytes"
	"strings"
	"testing"
)

func freqOf(b []byte) [256]int {
	var freq [256]int
	for _, c := range b {
		freq[c]++
	}
	return freq
}

func TestSingleSymbolGetsCodeZero(t *testing.T) {
	freq := freqOf([]byte("aaaaaa"))
	lengths := BuildCodeLengths(freq)
	table := CanonicalCodes(lengths)

	if len(table) != 1 {
		t.Fatalf("want 1 symbol, got %d", len(table))
	}
	if table['a'] != "0" {
		t.Fatalf("want code %q for single symbol, got %q", "0", table['a'])
	}
}

func TestPrefixFree(t *testing.T) {
	freq := freqOf([]byte("the quick brown fox jumps over the lazy dog"))
	lengths := BuildCodeLengths(freq)
	table := CanonicalCodes(lengths)

	codes := make([]string, 0, len(table))
	for _, c := range table {
		codes = append(codes, c)
	}
	for i := range codes {
		for j := range codes {
			if i == j {
				continue
			}
			if strings.HasPrefix(codes[j], codes[i]) {
				t.Fatalf("code %q is a prefix of %q", codes[i], codes[j])
			}
		}
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, repeatedly")
	freq := freqOf(payload)
	lengths := BuildCodeLengths(freq)
	table := CanonicalCodes(lengths)

	var encoded bytes.Buffer
	if err := EncodeReader(bytes.NewReader(payload), &encoded, table); err != nil {
		t.Fatalf("EncodeReader: %v", err)
	}

	bitLen := EncodedBitLen(freq, table)
	got, err := Decode(bytes.NewReader(encoded.Bytes()), bitLen, table)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("roundtrip mismatch: want %q, got %q", payload, got)
	}
}

func TestEmptyFrequencyTableProducesNoCodes(t *testing.T) {
	var freq [256]int
	lengths := BuildCodeLengths(freq)
	table := CanonicalCodes(lengths)
	if len(table) != 0 {
		t.Fatalf("want empty table, got %d entries", len(table))
	}
}
