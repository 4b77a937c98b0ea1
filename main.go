package main

import (
	"fmt"
	"os"
	"path/filepath"

	"kittypress/pkg/archive"
	"kittypress/pkg/progress"
	"kittypress/pkg/report"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	operation := os.Args[1]
	var err error
	switch operation {
	case "compress":
		err = handleCompress(os.Args[2:])
	case "decompress":
		err = handleDecompress(os.Args[2:])
	default:
		fmt.Println("Invalid operation:", operation)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  kittypress compress <input1> [<input2> ...] <output.kitty> [--report <path.svg>]")
	fmt.Println("  kittypress decompress <archive.kitty> <out_dir>")
}

// handleCompress gathers the positional inputs and optional --report
// flag, flattens any directory inputs into individual files, and writes
// a V4 archive.
func handleCompress(args []string) error {
	var reportPath string
	var positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--report" {
			if i+1 >= len(args) {
				return fmt.Errorf("--report requires a path argument")
			}
			reportPath = args[i+1]
			i++
			continue
		}
		positional = append(positional, args[i])
	}
	if len(positional) < 2 {
		printUsage()
		os.Exit(1)
	}

	inputs := positional[:len(positional)-1]
	output := positional[len(positional)-1]

	files, err := gatherFiles(inputs)
	if err != nil {
		return err
	}

	var totalSize uint64
	for _, f := range files {
		if info, err := os.Stat(f.AbsPath); err == nil {
			totalSize += uint64(info.Size())
		}
	}

	progress.Init(totalSize)
	defer progress.Stop()

	compressedSizes, err := archive.CreateArchive(files, output, progress.EntryProgress)
	if err != nil {
		return err
	}

	if reportPath != "" {
		return writeReport(files, compressedSizes, reportPath)
	}
	return nil
}

func writeReport(files []archive.FileInput, compressedSizes []int64, reportPath string) error {
	entries := make([]report.Entry, 0, len(files))
	for i, f := range files {
		var origSize int64
		if info, err := os.Stat(f.AbsPath); err == nil {
			origSize = info.Size()
		}
		entries = append(entries, report.Entry{
			RelPath:        f.RelPath,
			OriginalSize:   origSize,
			CompressedSize: compressedSizes[i],
		})
	}
	return report.WriteSVG(reportPath, entries)
}

// gatherFiles flattens each input path into individual file entries: a
// plain file becomes one entry named by its base name, and a directory
// contributes one entry per regular file inside it, walked recursively,
// relative-pathed from the directory's parent.
func gatherFiles(inputs []string) ([]archive.FileInput, error) {
	var out []archive.FileInput
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, archive.FileInput{AbsPath: in, RelPath: filepath.Base(in)})
			continue
		}

		parent := filepath.Dir(in)
		err = filepath.Walk(in, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(parent, path)
			if err != nil {
				return err
			}
			out = append(out, archive.FileInput{AbsPath: path, RelPath: rel})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func handleDecompress(args []string) error {
	if len(args) != 2 {
		printUsage()
		os.Exit(1)
	}
	archivePath := args[0]
	outDir := args[1]

	var totalSize uint64
	if info, err := os.Stat(archivePath); err == nil {
		totalSize = uint64(info.Size())
	}

	progress.Init(totalSize)
	defer progress.Stop()

	return archive.ExtractArchive(archivePath, outDir, progress.EntryProgress)
}
