package manifest

import (
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/etnz/termux-create-package/deb"
)

// DefaultPrefix is the installation prefix of Termux.
const DefaultPrefix = "/data/data/com.termux/files/usr/"

// Signer signs a built package.
type Signer interface {
	SignDetached(message io.Reader) ([]byte, error)
}

// Options controls how a manifest is built.
type Options struct {
	// BaseDir is the directory source paths are relative to. Empty means the
	// current working directory.
	BaseDir string
	// Prefix is the installation prefix. It is only used to report installed
	// paths; the archive is always rooted at "./". Empty means DefaultPrefix.
	Prefix string
	// ModTime is stored in every archive header. Zero means deb.Epoch.
	ModTime time.Time
	// Signer, when set, writes a detached signature next to the package.
	Signer Signer
	// Listener receives build events. It may be nil.
	Listener Listener
}

func (m *Manifest) metadata() deb.Metadata {
	return deb.Metadata{
		Package:      m.Name,
		Version:      m.Version,
		Architecture: m.Arch,
		Maintainer:   m.Maintainer,
		Description:  m.Description,
		Homepage:     m.Homepage,
		Depends:      m.Depends,
		Recommends:   m.Recommends,
		Suggests:     m.Suggests,
		Provides:     m.Provides,
		Conflicts:    m.Conflicts,
	}
}

// Package validates the manifest and returns the package it describes.
func (m *Manifest) Package(opts Options) (*deb.Package, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	files := make([]deb.File, len(m.Files))
	for i, f := range m.Files {
		files[i] = deb.File{Src: f.Src, DestPath: f.Dst}
	}
	return &deb.Package{
		Metadata: m.metadata(),
		Scripts:  m.Scripts,
		Files:    files,
		BaseDir:  opts.BaseDir,
		ModTime:  opts.ModTime,
	}, nil
}

// Build writes the package described by m to outDir and, when opts.Signer is
// set, its detached signature to the same path with ".asc" appended.
// On failure neither file is left in outDir.
func Build(m *Manifest, outDir string, opts Options) (*deb.Output, error) {
	l := opts.Listener
	if l == nil {
		l = func(fmt.Stringer) {}
	}

	pkg, err := m.Package(opts)
	if err != nil {
		return nil, err
	}
	l(EventPackageBuild{
		Manifest:     m.filePath,
		Package:      pkg.Metadata.Package,
		Version:      pkg.Metadata.Version,
		Architecture: pkg.Metadata.Architecture,
		Files:        len(pkg.Files),
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	for _, f := range m.Files {
		l(EventFileMapped{Src: f.Src, Installed: path.Join(prefix, f.Dst)})
	}
	for _, name := range deb.ScriptFiles {
		if m.Scripts.Get(name) != nil {
			l(EventScriptIncluded{Name: string(name)})
		}
	}

	out, err := pkg.WriteFile(outDir)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", pkg.StandardFilename(), err)
	}
	l(EventPackageWrite{
		Path:          out.Path,
		Size:          out.Size,
		SHA256:        out.SHA256,
		InstalledSize: out.InstalledSize,
	})

	if opts.Signer != nil {
		sigPath, err := sign(out.Path, opts.Signer)
		if err != nil {
			os.Remove(out.Path)
			return nil, err
		}
		l(EventSignatureWrite{Path: sigPath})
	}
	return out, nil
}

func sign(debPath string, s Signer) (string, error) {
	f, err := os.Open(debPath)
	if err != nil {
		return "", deb.NewError(deb.ErrIO, debPath, err)
	}
	defer f.Close()

	sig, err := s.SignDetached(f)
	if err != nil {
		return "", deb.NewError(deb.ErrIO, debPath, err)
	}
	sigPath := debPath + ".asc"
	if err := deb.WriteFileAtomic(sigPath, sig, 0644); err != nil {
		return "", deb.NewError(deb.ErrIO, sigPath, err)
	}
	return sigPath, nil
}
