package deb

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// tarEntry is a decoded tar entry used by the tests.
type tarEntry struct {
	Header *tar.Header
	Body   []byte
}

// readTarGz decodes a gzip-compressed tar stream with the standard library.
func readTarGz(t *testing.T, data []byte) []tarEntry {
	t.Helper()
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip.NewReader failed: %v", err)
	}
	defer gzr.Close()

	var entries []tarEntry
	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading tar: %v", err)
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("reading %s: %v", hdr.Name, err)
		}
		entries = append(entries, tarEntry{Header: hdr, Body: body})
	}
	return entries
}

func entryNames(entries []tarEntry) []string {
	var names []string
	for _, e := range entries {
		names = append(names, e.Header.Name)
	}
	return names
}

// writeSource creates a file below dir, creating parent directories.
func writeSource(t *testing.T, dir, name, content string, perm os.FileMode) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
	// WriteFile honours umask, force the mode.
	if err := os.Chmod(path, perm); err != nil {
		t.Fatal(err)
	}
}

// helloPackage returns the package of the "hello" example with its source in a temp dir.
func helloPackage(t *testing.T) *Package {
	t.Helper()
	dir := t.TempDir()
	writeSource(t, dir, "hello.sh", "#!/bin/sh\necho hi\n", 0644)
	return &Package{
		Metadata: Metadata{
			Package: "hello",
			Version: "1.0",
		},
		Files:   []File{{Src: "hello.sh", DestPath: "bin/hello"}},
		BaseDir: dir,
	}
}
