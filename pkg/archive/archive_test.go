package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCreateExtractRoundtrip(t *testing.T) {
	srcDir := t.TempDir()
	aContent := []byte("hello\nhello\nhello\n")
	bContent := make([]byte, 256)
	for i := range bContent {
		bContent[i] = byte(i)
	}

	aPath := writeFile(t, srcDir, "a.txt", aContent)
	bPath := writeFile(t, srcDir, "b.bin", bContent)

	entries := []FileInput{
		{AbsPath: aPath, RelPath: "a.txt"},
		{AbsPath: bPath, RelPath: "b.bin"},
	}

	archivePath := filepath.Join(t.TempDir(), "out.kitty")
	if _, err := CreateArchive(entries, archivePath, nil); err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}

	outDir := t.TempDir()
	if err := ExtractArchive(archivePath, outDir, nil); err != nil {
		t.Fatalf("ExtractArchive: %v", err)
	}

	gotA, err := os.ReadFile(filepath.Join(outDir, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile a.txt: %v", err)
	}
	if !bytes.Equal(gotA, aContent) {
		t.Fatal("a.txt content mismatch")
	}

	gotB, err := os.ReadFile(filepath.Join(outDir, "b.bin"))
	if err != nil {
		t.Fatalf("ReadFile b.bin: %v", err)
	}
	if !bytes.Equal(gotB, bContent) {
		t.Fatal("b.bin content mismatch")
	}
}

func TestIdempotentExtraction(t *testing.T) {
	srcDir := t.TempDir()
	content := []byte("some archive content, repeated repeated repeated")
	path := writeFile(t, srcDir, "f.txt", content)

	entries := []FileInput{{AbsPath: path, RelPath: "f.txt"}}
	archivePath := filepath.Join(t.TempDir(), "out.kitty")
	if _, err := CreateArchive(entries, archivePath, nil); err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}

	out1 := t.TempDir()
	out2 := t.TempDir()
	if err := ExtractArchive(archivePath, out1, nil); err != nil {
		t.Fatalf("ExtractArchive 1: %v", err)
	}
	if err := ExtractArchive(archivePath, out2, nil); err != nil {
		t.Fatalf("ExtractArchive 2: %v", err)
	}

	b1, _ := os.ReadFile(filepath.Join(out1, "f.txt"))
	b2, _ := os.ReadFile(filepath.Join(out2, "f.txt"))
	if !bytes.Equal(b1, b2) {
		t.Fatal("extraction is not idempotent")
	}
}

func TestPathTraversalRejected(t *testing.T) {
	if _, err := safeJoin("/out", "../escape.txt"); err == nil {
		t.Fatal("expected error for parent-directory traversal")
	}
	if _, err := safeJoin("/out", "/etc/passwd"); err == nil {
		t.Fatal("expected error for absolute path")
	}
	if _, err := safeJoin("/out", "nested/../../escape.txt"); err == nil {
		t.Fatal("expected error for nested traversal")
	}
	got, err := safeJoin("/out", "nested/file.txt")
	if err != nil {
		t.Fatalf("safeJoin: %v", err)
	}
	want := filepath.Join("/out", "nested/file.txt")
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestBadSignatureOnExtract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.kitty")
	os.WriteFile(path, []byte("XXXX"), 0o644)

	if err := ExtractArchive(path, t.TempDir(), nil); err == nil {
		t.Fatal("expected error for unrecognized magic")
	}
}
