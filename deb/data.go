package deb

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

var (
	shebang  = []byte("#!")
	elfMagic = []byte("\x7fELF")
)

// BuildDataArchive writes data.tar.gz for files to w and returns the installed
// size in bytes.
//
// Every file is read from baseDir/Src and stored as "./DestPath", in the order
// of files. Parent directories are stored once, before the first file beneath
// them. All entries carry modTime and root ownership.
//
// Destinations are checked before any source file is opened.
func BuildDataArchive(w io.Writer, files []File, baseDir string, modTime time.Time) (int64, error) {
	dests, err := destinations(files)
	if err != nil {
		return 0, err
	}

	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	dirs := make(map[string]bool)
	var installedSize int64

	for i, file := range files {
		dest := dests[i]
		if err := writeParents(tw, dest, dirs, modTime); err != nil {
			return 0, &Error{Kind: ErrIO, Path: string(PkgDataTarGz), Err: err}
		}

		content, perm, err := readSource(filepath.Join(baseDir, filepath.FromSlash(file.Src)))
		if err != nil {
			return 0, err
		}

		mode := file.Mode
		if mode == 0 {
			mode = detectMode(perm, content)
		}

		header := newHeader("./"+dest, tar.TypeReg, mode, int64(len(content)), modTime)
		if err := tw.WriteHeader(header); err != nil {
			return 0, &Error{Kind: ErrIO, Path: dest, Err: err}
		}
		if _, err := tw.Write(content); err != nil {
			return 0, &Error{Kind: ErrIO, Path: dest, Err: err}
		}
		installedSize += int64(len(content))
	}

	if err := tw.Close(); err != nil {
		return 0, &Error{Kind: ErrIO, Path: string(PkgDataTarGz), Err: err}
	}
	if err := gw.Close(); err != nil {
		return 0, &Error{Kind: ErrIO, Path: string(PkgDataTarGz), Err: err}
	}
	return installedSize, nil
}

// destinations cleans every destination and rejects duplicates, including a
// file whose path is also used as a directory by another file.
func destinations(files []File) ([]string, error) {
	dests := make([]string, len(files))
	seen := make(map[string]string, len(files))
	for i, f := range files {
		dest, err := cleanDestination(f.DestPath)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[dest]; ok {
			return nil, newError(ErrDuplicateDestination, dest, "both %q and %q install to %q", prev, f.Src, dest)
		}
		seen[dest] = f.Src
		dests[i] = dest
	}
	for _, dest := range dests {
		for dir := path.Dir(dest); dir != "."; dir = path.Dir(dir) {
			if src, ok := seen[dir]; ok {
				return nil, newError(ErrDuplicateDestination, dir, "%q installs a file where %q needs a directory", src, dest)
			}
		}
	}
	return dests, nil
}

// cleanDestination returns dest in canonical relative form ("bin/app").
func cleanDestination(dest string) (string, error) {
	slashed := filepath.ToSlash(dest)
	if strings.TrimSpace(slashed) == "" {
		return "", newError(ErrInvalidDestination, dest, "destination is empty")
	}
	if path.IsAbs(slashed) || filepath.IsAbs(dest) {
		return "", newError(ErrInvalidDestination, dest, "destination must be relative to the prefix")
	}
	for _, seg := range strings.Split(slashed, "/") {
		if seg == ".." {
			return "", newError(ErrInvalidDestination, dest, "destination must not contain '..'")
		}
	}
	clean := path.Clean(slashed)
	if clean == "." {
		return "", newError(ErrInvalidDestination, dest, "destination names no file")
	}
	return clean, nil
}

// writeParents writes a directory entry for every parent of dest not yet in dirs.
func writeParents(tw *tar.Writer, dest string, dirs map[string]bool, modTime time.Time) error {
	parts := strings.Split(dest, "/")
	for i := 1; i < len(parts); i++ {
		dir := strings.Join(parts[:i], "/")
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := tw.WriteHeader(newHeader("./"+dir+"/", tar.TypeDir, ModeDir, 0, modTime)); err != nil {
			return fmt.Errorf("writing directory %s: %w", dir, err)
		}
	}
	return nil
}

// readSource reads a payload file and returns its content and permission bits.
func readSource(src string) ([]byte, fs.FileMode, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, &Error{Kind: ErrSourceFileNotFound, Path: src, Err: err}
		}
		return nil, 0, &Error{Kind: ErrIO, Path: src, Err: err}
	}
	if info.IsDir() {
		return nil, 0, newError(ErrIO, src, "source is a directory")
	}
	content, err := os.ReadFile(src)
	if err != nil {
		return nil, 0, &Error{Kind: ErrIO, Path: src, Err: err}
	}
	return content, info.Mode().Perm(), nil
}

// detectMode picks the mode of a payload file that declares none.
func detectMode(perm fs.FileMode, content []byte) int64 {
	if perm&0111 != 0 || bytes.HasPrefix(content, shebang) || bytes.HasPrefix(content, elfMagic) {
		return ModeExecutable
	}
	return ModeFile
}

// newHeader returns a tar header owned by root with the given timestamp.
func newHeader(name string, typeflag byte, mode, size int64, modTime time.Time) *tar.Header {
	return &tar.Header{
		Typeflag: typeflag,
		Name:     name,
		Size:     size,
		Mode:     mode,
		ModTime:  modTime,
		Uid:      0,
		Gid:      0,
		Uname:    "root",
		Gname:    "root",
		Format:   tar.FormatGNU,
	}
}
