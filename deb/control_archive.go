package deb

import (
	"archive/tar"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
)

// BuildControlArchive writes control.tar.gz to w.
//
// The control file is stored first as "./control", followed by the maintainer
// scripts that are present, in ScriptFiles order. Scripts are executable.
func BuildControlArchive(w io.Writer, control []byte, scripts Scripts, modTime time.Time) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	// Helper to write a file to the tarball
	writeEntry := func(name ControlFile, content []byte, mode int64) error {
		header := newHeader("./"+string(name), tar.TypeReg, mode, int64(len(content)), modTime)
		if err := tw.WriteHeader(header); err != nil {
			return &Error{Kind: ErrIO, Path: string(name), Err: err}
		}
		if _, err := tw.Write(content); err != nil {
			return &Error{Kind: ErrIO, Path: string(name), Err: err}
		}
		return nil
	}

	if err := writeEntry(FileControl, control, ModeFile); err != nil {
		return err
	}

	for _, name := range ScriptFiles {
		body := scripts.Get(name)
		if body == nil {
			continue
		}
		if err := writeEntry(name, body, ModeExecutable); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return &Error{Kind: ErrIO, Path: string(PkgControlTarGz), Err: err}
	}
	if err := gw.Close(); err != nil {
		return &Error{Kind: ErrIO, Path: string(PkgControlTarGz), Err: err}
	}
	return nil
}
