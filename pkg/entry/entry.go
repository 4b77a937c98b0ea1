// Package entry implements the per-file compressed container: the
// EntryCodec that wraps a single file's bytes through the dictionary and
// entropy coders, decides between compressing and storing raw, and reads
// back the three per-file container versions (V1, V2, V3); a V4 archive
// magic is rejected as an unsupported version.
package entry

import (
	"bufio"
	"io"
	"math"
	"os"
	"path/filepath"

	"kittypress/pkg/dictcoder"
	"kittypress/pkg/entropy"
	"kittypress/pkg/format"
	"kittypress/pkg/kerrors"
	"kittypress/pkg/progress"
)

const (
	// entropySampleSize bounds how much of the input is read to decide
	// whether compression is worth attempting.
	entropySampleSize = 1 << 20
	// entropySkipThreshold is the bits-per-byte Shannon entropy above
	// which the input is assumed incompressible.
	entropySkipThreshold = 7.7
	streamChunkSize      = 64 * 1024
)

// Compress reads inputPath and writes a V3 container to outputPath,
// choosing between the compressed and store-raw layouts per the adopt-
// or-store rule: the compressed form is kept only if strictly smaller
// than the original.
func Compress(inputPath, outputPath string) error {
	const op = "entry.Compress"

	info, err := os.Stat(inputPath)
	if err != nil {
		return kerrors.New(kerrors.IO, op, inputPath, err)
	}
	originalSize := info.Size()
	ext := filepath.Ext(inputPath)

	skip, err := entropyExceedsThreshold(inputPath)
	if err != nil {
		return err
	}
	if skip {
		return storeRaw(inputPath, outputPath, ext, originalSize, op)
	}

	tokenTmpPath := outputPath + ".lz77.tmp"
	freq, tokenSize, err := runDictCoderPass(inputPath, tokenTmpPath, op)
	if err != nil {
		return err
	}
	if tokenSize == 0 {
		os.Remove(tokenTmpPath)
		return storeRaw(inputPath, outputPath, ext, originalSize, op)
	}

	lengths := entropy.BuildCodeLengths(freq)
	table := entropy.CanonicalCodes(lengths)
	encodedBits := entropy.EncodedBitLen(freq, table)

	encTmpPath := outputPath + ".enc.tmp"
	if err := writeCompressedContainer(encTmpPath, ext, table, encodedBits, tokenTmpPath, op); err != nil {
		os.Remove(tokenTmpPath)
		os.Remove(encTmpPath)
		return err
	}
	os.Remove(tokenTmpPath)

	encInfo, err := os.Stat(encTmpPath)
	if err != nil {
		os.Remove(encTmpPath)
		return kerrors.New(kerrors.IO, op, encTmpPath, err)
	}

	if encInfo.Size() < originalSize {
		if err := os.Rename(encTmpPath, outputPath); err != nil {
			os.Remove(encTmpPath)
			return kerrors.New(kerrors.IO, op, outputPath, err)
		}
		return nil
	}
	os.Remove(encTmpPath)
	return storeRaw(inputPath, outputPath, ext, originalSize, op)
}

// entropyExceedsThreshold reads up to entropySampleSize bytes from the
// head of path and reports whether their Shannon entropy meets or
// exceeds entropySkipThreshold.
func entropyExceedsThreshold(path string) (bool, error) {
	const op = "entry.Compress"
	f, err := os.Open(path)
	if err != nil {
		return false, kerrors.New(kerrors.IO, op, path, err)
	}
	defer f.Close()

	buf := make([]byte, entropySampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, kerrors.New(kerrors.IO, op, path, err)
	}
	if n == 0 {
		return false, nil
	}

	var freq [256]int
	for i := 0; i < n; i++ {
		freq[buf[i]]++
	}
	var h float64
	total := float64(n)
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h >= entropySkipThreshold, nil
}

// runDictCoderPass streams inputPath through a StreamCompressor in
// fixed-size chunks, appending the serialized token bytes to tmpPath and
// accumulating a byte-frequency table over them as it goes.
func runDictCoderPass(inputPath, tmpPath, op string) ([256]int, int64, error) {
	var freq [256]int

	in, err := os.Open(inputPath)
	if err != nil {
		return freq, 0, kerrors.New(kerrors.IO, op, inputPath, err)
	}
	defer in.Close()

	out, err := os.Create(tmpPath)
	if err != nil {
		return freq, 0, kerrors.New(kerrors.IO, op, tmpPath, err)
	}
	defer out.Close()

	comp := dictcoder.NewStreamCompressor(0, 0)
	buf := make([]byte, streamChunkSize)
	var tokenSize int64

	writeOut := func() error {
		tokBytes := comp.ConsumeOutput()
		if len(tokBytes) == 0 {
			return nil
		}
		for _, b := range tokBytes {
			freq[b]++
		}
		if _, err := out.Write(tokBytes); err != nil {
			return kerrors.New(kerrors.IO, op, tmpPath, err)
		}
		tokenSize += int64(len(tokBytes))
		return nil
	}

	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			comp.Feed(buf[:n], false)
			if err := writeOut(); err != nil {
				return freq, 0, err
			}
		}
		if rerr == io.EOF {
			comp.Feed(nil, true)
			if err := writeOut(); err != nil {
				return freq, 0, err
			}
			break
		}
		if rerr != nil {
			return freq, 0, kerrors.New(kerrors.IO, op, inputPath, rerr)
		}
	}

	return freq, tokenSize, nil
}

// writeCompressedContainer writes a compressed V3 container to path: the
// magic and prelude, the code table, the encoded bit count, and the
// entropy-coded bit stream read from the token temporary at tokenTmpPath.
func writeCompressedContainer(path, ext string, table entropy.CodeTable, encodedBits uint64, tokenTmpPath, op string) error {
	out, err := os.Create(path)
	if err != nil {
		return kerrors.New(kerrors.IO, op, path, err)
	}
	defer out.Close()
	bw := bufio.NewWriter(out)

	if _, err := bw.Write(format.MagicV3[:]); err != nil {
		return kerrors.New(kerrors.IO, op, path, err)
	}
	if err := writeBool(bw, true); err != nil {
		return err
	}
	if err := writeExt(bw, ext); err != nil {
		return err
	}
	if err := writeCodeTable(bw, table); err != nil {
		return err
	}
	if err := format.WriteUint64(bw, encodedBits); err != nil {
		return err
	}

	tok, err := os.Open(tokenTmpPath)
	if err != nil {
		return kerrors.New(kerrors.IO, op, tokenTmpPath, err)
	}
	defer tok.Close()

	if err := entropy.EncodeReader(bufio.NewReader(tok), &progress.Writer{W: bw}, table); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return kerrors.New(kerrors.IO, op, path, err)
	}
	return nil
}

// storeRaw writes a V3 container with is_compressed=false, embedding the
// original bytes of inputPath verbatim.
func storeRaw(inputPath, outputPath, ext string, size int64, op string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return kerrors.New(kerrors.IO, op, inputPath, err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return kerrors.New(kerrors.IO, op, outputPath, err)
	}
	defer out.Close()
	bw := bufio.NewWriter(out)

	if _, err := bw.Write(format.MagicV3[:]); err != nil {
		return kerrors.New(kerrors.IO, op, outputPath, err)
	}
	if err := writeBool(bw, false); err != nil {
		return err
	}
	if err := writeExt(bw, ext); err != nil {
		return err
	}
	if err := format.WriteUint64(bw, uint64(size)); err != nil {
		return err
	}
	if _, err := io.Copy(&progress.Writer{W: bw}, in); err != nil {
		return kerrors.New(kerrors.IO, op, outputPath, err)
	}
	if err := bw.Flush(); err != nil {
		return kerrors.New(kerrors.IO, op, outputPath, err)
	}
	return nil
}

// Decompress reads inputPath, dispatching on its magic to the correct
// legacy or current reader, and writes the recovered bytes to
// outputPath.
func Decompress(inputPath, outputPath string) error {
	const op = "entry.Decompress"

	in, err := os.Open(inputPath)
	if err != nil {
		return kerrors.New(kerrors.IO, op, inputPath, err)
	}
	defer in.Close()
	br := bufio.NewReader(in)

	magic, err := format.ReadMagic(br)
	if err != nil {
		return err
	}
	if magic == format.MagicV4 {
		return kerrors.New(kerrors.UnsupportedVersion, op, inputPath, nil)
	}
	if !format.KnownMagic(magic) {
		return kerrors.New(kerrors.BadSignature, op, inputPath, nil)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return kerrors.New(kerrors.IO, op, outputPath, err)
	}
	defer out.Close()
	bw := bufio.NewWriter(out)

	switch magic {
	case format.MagicV1:
		if err := decodeEntropyBodyTo(br, bw, op, inputPath); err != nil {
			return err
		}
	case format.MagicV2, format.MagicV3:
		compressed, err := readBool(br, op, inputPath)
		if err != nil {
			return err
		}
		if _, err := readExt(br, op, inputPath); err != nil {
			return err
		}
		if !compressed {
			rawSize, err := format.ReadUint64(br)
			if err != nil {
				return kerrors.New(kerrors.Truncated, op, inputPath, err)
			}
			if _, err := io.CopyN(bw, br, int64(rawSize)); err != nil {
				return kerrors.New(kerrors.Truncated, op, inputPath, err)
			}
			break
		}
		if magic == format.MagicV2 {
			if err := decodeEntropyBodyTo(br, bw, op, inputPath); err != nil {
				return err
			}
			break
		}
		tokenBytes, err := decodeEntropyBody(br, op, inputPath)
		if err != nil {
			return err
		}
		tokens := dictcoder.Deserialize(tokenBytes)
		plain, err := dictcoder.Decompress(tokens)
		if err != nil {
			return err
		}
		if _, err := bw.Write(plain); err != nil {
			return kerrors.New(kerrors.IO, op, outputPath, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return kerrors.New(kerrors.IO, op, outputPath, err)
	}
	return nil
}

// decodeEntropyBody reads a code table, an encoded bit count, and a bit
// stream, decoding it back to the original entropy-coded payload bytes.
func decodeEntropyBody(r io.Reader, op, path string) ([]byte, error) {
	table, err := readCodeTable(r)
	if err != nil {
		return nil, err
	}
	encodedBits, err := format.ReadUint64(r)
	if err != nil {
		return nil, kerrors.New(kerrors.Truncated, op, path, err)
	}
	out, err := entropy.Decode(r, encodedBits, table)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeEntropyBodyTo(r io.Reader, w io.Writer, op, path string) error {
	out, err := decodeEntropyBody(r, op, path)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return kerrors.New(kerrors.IO, op, path, err)
	}
	return nil
}

func writeBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	if _, err := w.Write([]byte{b}); err != nil {
		return kerrors.New(kerrors.IO, "entry", "", err)
	}
	return nil
}

func readBool(r io.Reader, op, path string) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, kerrors.New(kerrors.Truncated, op, path, err)
	}
	return b[0] != 0, nil
}

func writeExt(w io.Writer, ext string) error {
	if err := format.WriteUint64(w, uint64(len(ext))); err != nil {
		return err
	}
	if len(ext) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, ext); err != nil {
		return kerrors.New(kerrors.IO, "entry", "", err)
	}
	return nil
}

func readExt(r io.Reader, op, path string) (string, error) {
	n, err := format.ReadUint64(r)
	if err != nil {
		return "", kerrors.New(kerrors.Truncated, op, path, err)
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", kerrors.New(kerrors.Truncated, op, path, err)
	}
	return string(buf), nil
}

func writeCodeTable(w io.Writer, table entropy.CodeTable) error {
	if err := format.WriteUint64(w, uint64(len(table))); err != nil {
		return err
	}
	for sym := 0; sym < 256; sym++ {
		code, ok := table[byte(sym)]
		if !ok {
			continue
		}
		if _, err := w.Write([]byte{byte(sym)}); err != nil {
			return kerrors.New(kerrors.IO, "entry", "", err)
		}
		if err := format.WriteUint64(w, uint64(len(code))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, code); err != nil {
			return kerrors.New(kerrors.IO, "entry", "", err)
		}
	}
	return nil
}

func readCodeTable(r io.Reader) (entropy.CodeTable, error) {
	const op = "entry.readCodeTable"
	mapSize, err := format.ReadUint64(r)
	if err != nil {
		return nil, kerrors.New(kerrors.Truncated, op, "", err)
	}
	table := make(entropy.CodeTable, mapSize)
	for i := uint64(0); i < mapSize; i++ {
		var sym [1]byte
		if _, err := io.ReadFull(r, sym[:]); err != nil {
			return nil, kerrors.New(kerrors.Truncated, op, "", err)
		}
		codeLen, err := format.ReadUint64(r)
		if err != nil {
			return nil, kerrors.New(kerrors.Truncated, op, "", err)
		}
		codeBuf := make([]byte, codeLen)
		if _, err := io.ReadFull(r, codeBuf); err != nil {
			return nil, kerrors.New(kerrors.Truncated, op, "", err)
		}
		table[sym[0]] = string(codeBuf)
	}
	return table, nil
}
