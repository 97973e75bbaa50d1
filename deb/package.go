package deb

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// Package represents the comprehensive definition of a Debian binary package.
// It separates metadata (Control), hooks (Scripts), and payload (Files).
//
// A Package is read-only for the builders: WriteTo and WriteFile never modify it.
type Package struct {
	Metadata Metadata
	Scripts  Scripts
	Files    []File

	// BaseDir is the directory that File.Src paths are relative to.
	// An empty BaseDir means the current working directory.
	BaseDir string

	// ModTime is stored in every tar and ar header.
	// If zero, Epoch is used so that builds are reproducible.
	ModTime time.Time
}

// Metadata maps directly to the fields in the Debian 'control' file.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#binary-package-control-files-debian-control
type Metadata struct {
	// Package is the name of the package.
	Package string

	// Version is the version of the package. It is opaque to this package.
	Version string

	// Architecture is one of Architectures. Empty means DefaultArchitecture.
	Architecture string

	// Maintainer is the person responsible for the package. Empty renders as DefaultMaintainer.
	Maintainer string

	// Description is the package synopsis, optionally followed by extended
	// description lines. Empty renders as DefaultDescription.
	Description string

	// Homepage is the URL of the upstream project. Empty omits the field.
	Homepage string

	// Relationship fields. Each item is an opaque package token, rendered in order.
	//
	// Reference: https://www.debian.org/doc/debian-policy/ch-relationships.html
	Depends    []string
	Recommends []string
	Suggests   []string
	Provides   []string
	Conflicts  []string
}

// Scripts holds the maintainer scripts. A nil body means the script is absent;
// a non-nil empty body is stored as an empty script.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-maintainerscripts.html
type Scripts struct {
	PreInst  []byte
	PostInst []byte
	PreRm    []byte
	PostRm   []byte
}

// Get returns the body of the named script, or nil when it is absent or the
// name is not a maintainer script.
func (s Scripts) Get(name ControlFile) []byte {
	switch name {
	case FilePreinst:
		return s.PreInst
	case FilePostinst:
		return s.PostInst
	case FilePrerm:
		return s.PreRm
	case FilePostrm:
		return s.PostRm
	}
	return nil
}

// Set stores body as the named script.
func (s *Scripts) Set(name ControlFile, body []byte) error {
	switch name {
	case FilePreinst:
		s.PreInst = body
	case FilePostinst:
		s.PostInst = body
	case FilePrerm:
		s.PreRm = body
	case FilePostrm:
		s.PostRm = body
	default:
		return fmt.Errorf("unknown maintainer script %q", name)
	}
	return nil
}

// File represents a single payload file to be installed on the target system.
type File struct {
	// Src is the path of the file to read, relative to Package.BaseDir.
	Src string

	// DestPath is the install path relative to the installation prefix (e.g. "bin/app").
	// It must not be absolute nor contain ".." segments.
	DestPath string

	// Mode is the file permission mode (e.g., 0755 for executables, 0644 for text).
	// If zero, the mode is detected from the source file.
	Mode int64
}

// Output describes a package file written by WriteFile.
type Output struct {
	Path          string
	Size          int64
	SHA256        string
	InstalledSize int64
}

// StandardFilename returns the canonical filename for the package.
// Format: {Package}_{Version}_{Architecture}.deb
//
// Reference: https://www.debian.org/doc/manuals/debian-faq/ch-pkg_basics.en.html#s-pkgname
func (p *Package) StandardFilename() string {
	return fmt.Sprintf("%s_%s_%s.deb", p.Metadata.Package, p.Metadata.Version, p.Metadata.architecture())
}

func (p *Package) modTime() time.Time {
	if p.ModTime.IsZero() {
		return Epoch
	}
	return p.ModTime.UTC().Truncate(time.Second)
}

// WriteTo generates the .deb package and writes it to the provided io.Writer.
// It returns the total number of bytes written and any error encountered.
// This satisfies the io.WriterTo interface.
//
// Nothing is written to w unless the metadata is valid and both archives were
// built successfully.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	_, err := p.write(cw)
	return cw.n, err
}

// write builds both archives in memory and then assembles the container.
// It returns the installed size of the payload.
func (p *Package) write(w io.Writer) (int64, error) {
	if err := p.Metadata.Validate(); err != nil {
		return 0, err
	}
	mtime := p.modTime()

	// 1. Build Data Archive (data.tar.gz)
	// Built first so that a missing source file fails before anything else is produced.
	dataBuf := new(bytes.Buffer)
	installedSize, err := BuildDataArchive(dataBuf, p.Files, p.BaseDir, mtime)
	if err != nil {
		return 0, fmt.Errorf("building data archive: %w", err)
	}

	// 2. Build Control Archive (control.tar.gz)
	controlBuf := new(bytes.Buffer)
	if err := BuildControlArchive(controlBuf, p.Metadata.Control(), p.Scripts, mtime); err != nil {
		return 0, fmt.Errorf("building control archive: %w", err)
	}

	// 3. Assemble the final AR archive
	err = Assemble(w, mtime,
		Member{Name: string(PkgDebianBinary), Body: []byte(DebianBinary)},
		Member{Name: string(PkgControlTarGz), Body: controlBuf.Bytes()},
		Member{Name: string(PkgDataTarGz), Body: dataBuf.Bytes()},
	)
	if err != nil {
		return 0, err
	}
	return installedSize, nil
}

// WriteFile builds the package and writes it to dir under its StandardFilename.
// The file is written to a temporary name and renamed into place, so a failed
// build never leaves a partial .deb behind.
func (p *Package) WriteFile(dir string) (*Output, error) {
	buf := new(bytes.Buffer)
	installedSize, err := p.write(buf)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, p.StandardFilename())
	if err := WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return nil, &Error{Kind: ErrIO, Path: path, Err: err}
	}

	sum := sha256.Sum256(buf.Bytes())
	return &Output{
		Path:          path,
		Size:          int64(buf.Len()),
		SHA256:        hex.EncodeToString(sum[:]),
		InstalledSize: installedSize,
	}, nil
}
