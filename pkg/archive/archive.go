// Package archive implements the V4 multi-file container: it wraps a set
// of files, each compressed through pkg/entry, behind a single magic-
// prefixed header, and reverses the process on extraction.
package archive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"kittypress/pkg/entry"
	"kittypress/pkg/format"
	"kittypress/pkg/kerrors"
	"kittypress/pkg/progress"
)

func errAbsolutePath(p string) error { return fmt.Errorf("entry path %q is absolute", p) }
func errPathEscape(p string) error   { return fmt.Errorf("entry path %q escapes the output directory", p) }

// FileInput names one file to add to an archive: AbsPath is where to read
// its bytes from, RelPath is the path it is stored under inside the
// archive (and later restored to, relative to the extraction directory).
type FileInput struct {
	AbsPath string
	RelPath string
}

// ProgressFunc, if non-nil, is invoked after each entry is processed with
// the number of entries done and the total entry count.
type ProgressFunc func(done, total int)

// CreateArchive writes a V4 archive at outputPath containing entries,
// processed sequentially in the order given. It returns the compressed
// (embedded EntryCodec stream) size written for each entry, in the same
// order as entries, for callers that want to report on the result.
func CreateArchive(entries []FileInput, outputPath string, onProgress ProgressFunc) ([]int64, error) {
	const op = "archive.CreateArchive"

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, kerrors.New(kerrors.IO, op, outputPath, err)
	}
	defer out.Close()
	bw := bufio.NewWriter(out)

	if _, err := bw.Write(format.MagicV4[:]); err != nil {
		return nil, kerrors.New(kerrors.IO, op, outputPath, err)
	}
	if _, err := bw.Write([]byte{0x04}); err != nil {
		return nil, kerrors.New(kerrors.IO, op, outputPath, err)
	}
	if err := format.WriteUint32(bw, uint32(len(entries))); err != nil {
		return nil, err
	}

	compressedSizes := make([]int64, len(entries))
	for i, e := range entries {
		size, err := writeEntry(bw, e, outputPath, op)
		if err != nil {
			return nil, err
		}
		compressedSizes[i] = size
		if onProgress != nil {
			onProgress(i+1, len(entries))
		}
	}

	if err := bw.Flush(); err != nil {
		return nil, kerrors.New(kerrors.IO, op, outputPath, err)
	}
	return compressedSizes, nil
}

func writeEntry(bw *bufio.Writer, e FileInput, archivePath, op string) (int64, error) {
	info, err := os.Stat(e.AbsPath)
	if err != nil {
		return 0, kerrors.New(kerrors.IO, op, e.AbsPath, err)
	}
	origSize := info.Size()

	relSlash := filepath.ToSlash(e.RelPath)
	if err := format.WriteLenPrefixed(bw, []byte(relSlash)); err != nil {
		return 0, err
	}
	if _, err := bw.Write([]byte{format.EntryFlagCompressedContainer}); err != nil {
		return 0, kerrors.New(kerrors.IO, op, archivePath, err)
	}
	if err := format.WriteUint64(bw, uint64(origSize)); err != nil {
		return 0, err
	}

	tmpPath := archivePath + ".tmpkitty"
	if err := entry.Compress(e.AbsPath, tmpPath); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	data, err := os.ReadFile(tmpPath)
	os.Remove(tmpPath)
	if err != nil {
		return 0, kerrors.New(kerrors.IO, op, tmpPath, err)
	}

	if err := format.WriteUint64(bw, uint64(len(data))); err != nil {
		return 0, err
	}
	if _, err := (&progress.Writer{W: bw}).Write(data); err != nil {
		return 0, kerrors.New(kerrors.IO, op, archivePath, err)
	}
	return int64(len(data)), nil
}

// ExtractArchive reads a V4 archive at archivePath and restores its
// entries under outDir, processed sequentially in on-disk order.
func ExtractArchive(archivePath, outDir string, onProgress ProgressFunc) error {
	const op = "archive.ExtractArchive"

	in, err := os.Open(archivePath)
	if err != nil {
		return kerrors.New(kerrors.IO, op, archivePath, err)
	}
	defer in.Close()
	br := bufio.NewReader(in)

	magic, err := format.ReadMagic(br)
	if err != nil {
		return err
	}
	if magic != format.MagicV4 {
		if format.KnownMagic(magic) {
			return kerrors.New(kerrors.UnsupportedVersion, op, archivePath, nil)
		}
		return kerrors.New(kerrors.BadSignature, op, archivePath, nil)
	}

	var versionByte [1]byte
	if _, err := io.ReadFull(br, versionByte[:]); err != nil {
		return kerrors.New(kerrors.Truncated, op, archivePath, err)
	}

	count, err := format.ReadUint32(br)
	if err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		if err := readEntry(br, outDir, archivePath, op); err != nil {
			return err
		}
		if onProgress != nil {
			onProgress(int(i)+1, int(count))
		}
	}
	return nil
}

func readEntry(br *bufio.Reader, outDir, archivePath, op string) error {
	relBytes, err := format.ReadLenPrefixed(br)
	if err != nil {
		return err
	}
	relPath := string(relBytes)

	var flags [1]byte
	if _, err := io.ReadFull(br, flags[:]); err != nil {
		return kerrors.New(kerrors.Truncated, op, archivePath, err)
	}

	if _, err := format.ReadUint64(br); err != nil { // orig_size, unused on extraction
		return err
	}
	dataSize, err := format.ReadUint64(br)
	if err != nil {
		return err
	}

	destPath, err := safeJoin(outDir, relPath)
	if err != nil {
		return kerrors.New(kerrors.Corrupt, op, relPath, err)
	}

	tmpPath := destPath + ".tmpkitty"
	if err := os.MkdirAll(filepath.Dir(tmpPath), 0o755); err != nil {
		return kerrors.New(kerrors.IO, op, tmpPath, err)
	}
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return kerrors.New(kerrors.IO, op, tmpPath, err)
	}
	if _, err := io.CopyN(&progress.Writer{W: tmp}, br, int64(dataSize)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return kerrors.New(kerrors.Truncated, op, archivePath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return kerrors.New(kerrors.IO, op, tmpPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		os.Remove(tmpPath)
		return kerrors.New(kerrors.IO, op, destPath, err)
	}
	if err := entry.Decompress(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	os.Remove(tmpPath)
	return nil
}

// safeJoin joins outDir and relPath, rejecting absolute paths and any
// path that would escape outDir via ".." traversal.
func safeJoin(outDir, relPath string) (string, error) {
	cleanRel := filepath.FromSlash(relPath)
	if filepath.IsAbs(cleanRel) {
		return "", errAbsolutePath(relPath)
	}
	joined := filepath.Join(outDir, cleanRel)
	base := filepath.Clean(outDir)
	if joined != base && !strings.HasPrefix(joined, base+string(filepath.Separator)) {
		return "", errPathEscape(relPath)
	}
	return joined, nil
}
