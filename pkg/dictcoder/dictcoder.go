// Package dictcoder implements the streaming sliding-window dictionary
// coder: the first stage of the KittyPress compression pipeline. It turns
// a byte stream into a sequence of literal and back-reference tokens,
// serializes that sequence to bytes, and can reverse both steps.
package dictcoder

import (
	"fmt"

	"kittypress/pkg/hashindex"
	"kittypress/pkg/kerrors"
)

// Tuning constants from the format's data model.
const (
	WindowSizeDefault = 65535
	MaxMatchDefault   = 255
	MinMatch          = 3
	KeyLen            = 3
	MaxTries          = 32
)

// TokenKind discriminates the two token variants.
type TokenKind uint8

const (
	// TokenLiteral carries one uncompressed byte.
	TokenLiteral TokenKind = iota
	// TokenBackRef copies Length bytes starting Offset bytes before the
	// current output position.
	TokenBackRef
)

// Token is either a Literal or a Back-reference. Offset == 0 && Length ==
// 0 is reserved for literal framing and never appears on a TokenBackRef.
type Token struct {
	Kind    TokenKind
	Literal byte
	Offset  uint16
	Length  uint8
}

// StreamCompressor performs the streaming match search over successive
// chunks of input, maintaining a sliding window and hash index between
// calls to Feed.
type StreamCompressor struct {
	windowSize int
	maxMatch   int

	window      []byte
	index       *hashindex.Index
	absolutePos int64
	pending     []Token
}

// NewStreamCompressor returns a compressor with the given window and
// match-length bounds. Passing 0 for either uses the format defaults.
func NewStreamCompressor(windowSize, maxMatch int) *StreamCompressor {
	if windowSize <= 0 {
		windowSize = WindowSizeDefault
	}
	if maxMatch <= 0 {
		maxMatch = MaxMatchDefault
	}
	return &StreamCompressor{
		windowSize: windowSize,
		maxMatch:   maxMatch,
		index:      hashindex.New(),
	}
}

func makeKey(a, b, c byte) uint32 {
	return uint32(a)<<16 | uint32(b)<<8 | uint32(c)
}

// Feed consumes the next chunk of input, appending any tokens it emits to
// the pending queue drained by ConsumeOutput. isLast has no effect on the
// match search itself; it exists for parity with callers that stream a
// file in fixed-size reads and signal the final, possibly short, read.
func (c *StreamCompressor) Feed(chunk []byte, isLast bool) {
	_ = isLast
	n := len(chunk)
	i := 0
	for i < n {
		bestLen, bestOffset := 0, int64(0)

		if i+KeyLen <= n {
			key := makeKey(chunk[i], chunk[i+1], chunk[i+2])
			candidates := c.index.Candidates(key)
			base := c.absolutePos - int64(len(c.window))
			tries := 0
			for idx := len(candidates) - 1; idx >= 0 && tries < MaxTries; idx-- {
				tries++
				j := candidates[idx]
				offset := c.absolutePos + int64(i) - j
				if offset <= 0 || offset > int64(c.windowSize) {
					continue
				}

				limit := c.maxMatch
				if rem := n - i; rem < limit {
					limit = rem
				}
				k := 0
				for k < limit {
					// Source bytes before absolutePos come from the window;
					// later ones come from the already-processed part of
					// chunk, which always lies behind i+k since offset > 0.
					p := j + int64(k)
					var src byte
					if p < c.absolutePos {
						wp := int(p - base)
						if wp < 0 {
							break
						}
						src = c.window[wp]
					} else {
						src = chunk[p-c.absolutePos]
					}
					if src != chunk[i+k] {
						break
					}
					k++
				}
				if k > bestLen {
					bestLen = k
					bestOffset = offset
					if bestLen == c.maxMatch {
						break
					}
				}
			}
		}

		if bestLen >= MinMatch {
			offset := bestOffset
			if offset > 0xFFFF {
				offset = 0xFFFF
			}
			length := bestLen
			if length > 0xFF {
				length = 0xFF
			}
			c.pending = append(c.pending, Token{Kind: TokenBackRef, Offset: uint16(offset), Length: uint8(length)})

			end := i + length
			for p := i; p < end; p++ {
				if p+KeyLen <= n {
					c.index.Add(makeKey(chunk[p], chunk[p+1], chunk[p+2]), c.absolutePos+int64(p))
				}
			}
			i += length
		} else {
			c.pending = append(c.pending, Token{Kind: TokenLiteral, Literal: chunk[i]})
			if i+KeyLen <= n {
				c.index.Add(makeKey(chunk[i], chunk[i+1], chunk[i+2]), c.absolutePos+int64(i))
			}
			i++
		}
	}

	c.window = append(c.window, chunk...)
	if len(c.window) > c.windowSize {
		drop := len(c.window) - c.windowSize
		c.window = append(c.window[:0], c.window[drop:]...)
	}
	c.absolutePos += int64(n)
}

// ConsumeOutput serializes and drains every token emitted so far.
func (c *StreamCompressor) ConsumeOutput() []byte {
	out := Serialize(c.pending)
	c.pending = c.pending[:0]
	return out
}

// Serialize concatenates the on-wire form of each token: 0x00,byte for a
// literal, 0x01,offset_lo,offset_hi,length for a back-reference.
func Serialize(tokens []Token) []byte {
	out := make([]byte, 0, len(tokens)*3)
	for _, t := range tokens {
		if t.Kind == TokenLiteral {
			out = append(out, 0x00, t.Literal)
		} else {
			out = append(out, 0x01, byte(t.Offset), byte(t.Offset>>8), t.Length)
		}
	}
	return out
}

// Deserialize parses a serialized token stream back into tokens. It stops
// cleanly — treating the remainder as absent, not as an error — on
// truncated input or an unrecognized leading tag byte.
func Deserialize(b []byte) []Token {
	var tokens []Token
	i, n := 0, len(b)
	for i < n {
		tag := b[i]
		i++
		switch tag {
		case 0x00:
			if i >= n {
				return tokens
			}
			tokens = append(tokens, Token{Kind: TokenLiteral, Literal: b[i]})
			i++
		case 0x01:
			if i+3 > n {
				return tokens
			}
			offset := uint16(b[i]) | uint16(b[i+1])<<8
			length := b[i+2]
			tokens = append(tokens, Token{Kind: TokenBackRef, Offset: offset, Length: length})
			i += 3
		default:
			return tokens
		}
	}
	return tokens
}

// Decompress replays a token sequence into the bytes it represents. A
// back-reference whose offset reaches past the output built so far means
// the stream is corrupt.
func Decompress(tokens []Token) ([]byte, error) {
	out := make([]byte, 0, len(tokens)*2)
	for _, t := range tokens {
		if t.Kind == TokenLiteral {
			out = append(out, t.Literal)
			continue
		}
		if t.Offset == 0 || int(t.Offset) > len(out) {
			return nil, kerrors.New(kerrors.Corrupt, "dictcoder.Decompress", "",
				fmt.Errorf("back-reference offset %d exceeds %d bytes decoded so far", t.Offset, len(out)))
		}
		start := len(out) - int(t.Offset)
		for k := 0; k < int(t.Length); k++ {
			out = append(out, out[start+k])
		}
	}
	return out, nil
}
