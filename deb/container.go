package deb

import (
	"io"
	"time"

	"github.com/blakesmith/ar"
)

// Member is a named entry of the ar container.
type Member struct {
	Name string
	Body []byte
}

// layout is the member order required by dpkg.
//
// Reference: https://manpages.debian.org/unstable/dpkg-dev/deb.5.en.html#FORMAT
var layout = []PackageFile{PkgDebianBinary, PkgControlTarGz, PkgDataTarGz}

// Assemble writes the .deb container holding members to w.
//
// members must be exactly debian-binary (holding DebianBinary), control.tar.gz
// and data.tar.gz, in that order. The layout is checked before anything is
// written. Every member header carries modTime, root ownership and mode 0644.
func Assemble(w io.Writer, modTime time.Time, members ...Member) error {
	if len(members) != len(layout) {
		return newError(ErrInvalidContainer, "", "expected %d members, got %d", len(layout), len(members))
	}
	for i, m := range members {
		if m.Name != string(layout[i]) {
			return newError(ErrInvalidContainer, m.Name, "member %d must be %s", i+1, layout[i])
		}
	}
	if string(members[0].Body) != DebianBinary {
		return newError(ErrInvalidContainer, members[0].Name, "unsupported format version %q", members[0].Body)
	}

	arW := ar.NewWriter(w)

	// Write AR Global Header (!<arch>\n)
	if err := arW.WriteGlobalHeader(); err != nil {
		return &Error{Kind: ErrIO, Path: "ar", Err: err}
	}
	for _, m := range members {
		if err := addBufferToAr(arW, m.Name, m.Body, modTime); err != nil {
			return &Error{Kind: ErrIO, Path: m.Name, Err: err}
		}
	}
	return nil
}
