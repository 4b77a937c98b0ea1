// Package lib provides a stable, minimal entry point for embedding
// KittyPress in another program without pulling in the CLI's argument
// handling: create or extract an archive, or compress/decompress a
// single file's container directly.
package lib

import (
	"kittypress/pkg/archive"
	"kittypress/pkg/entry"
	"kittypress/pkg/format"
	"kittypress/pkg/progress"
)

// Magic constants re-exported from pkg/format.
var (
	MagicV1 = format.MagicV1
	MagicV2 = format.MagicV2
	MagicV3 = format.MagicV3
	MagicV4 = format.MagicV4
)

// FileInput re-exported from pkg/archive.
type FileInput = archive.FileInput

// InitProgress initializes the progress tracking system for a run whose
// total input size is known up front.
func InitProgress(totalSize uint64) {
	progress.Init(totalSize)
}

// StopProgress stops the progress tracking system.
func StopProgress() {
	progress.Stop()
}

// CreateArchive is a wrapper around archive.CreateArchive that reports
// per-entry progress through the package's progress tracker.
func CreateArchive(entries []FileInput, outputPath string) ([]int64, error) {
	return archive.CreateArchive(entries, outputPath, progress.EntryProgress)
}

// ExtractArchive is a wrapper around archive.ExtractArchive that reports
// per-entry progress through the package's progress tracker.
func ExtractArchive(archivePath, outDir string) error {
	return archive.ExtractArchive(archivePath, outDir, progress.EntryProgress)
}

// CompressFile is a wrapper around entry.Compress, for embedding a
// single file's V3 container without building a full archive.
func CompressFile(inputPath, outputPath string) error {
	return entry.Compress(inputPath, outputPath)
}

// DecompressFile is a wrapper around entry.Decompress.
func DecompressFile(inputPath, outputPath string) error {
	return entry.Decompress(inputPath, outputPath)
}
