// Package deb builds Debian binary packages (.deb) in pure Go.
//
// # Design Philosophy
//
// A package is assembled in memory and written to any io.Writer, so no external
// tool such as 'dpkg-deb' is needed. Every archive layer is normalized for
// reproducible output: tar entries carry a fixed modification time and root
// ownership, and the ar container uses the same fixed timestamp. Building the
// same Package twice yields byte-identical output.
//
// # Layout
//
// A .deb is an ar archive with exactly three members, in this order:
//   - debian-binary: the format version "2.0\n".
//   - control.tar.gz: the control file followed by the maintainer scripts.
//   - data.tar.gz: the payload, rooted at "./".
//
// # Features
//
//   - Render the control file from Metadata (Metadata.Control).
//   - Pack payload files from disk (BuildDataArchive) and control files
//     (BuildControlArchive).
//   - Frame the final container (Assemble) and write it atomically (Package.WriteFile).
//   - Read a .deb back for inspection (ReadPackage), including xz and zstd members.
//   - Produce detached OpenPGP signatures for built packages (Signer).
package deb
