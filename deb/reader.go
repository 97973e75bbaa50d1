package deb

import (
	"archive/tar"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const arMagic = "!<arch>\n"

// maxMemberSize bounds the size of an archive member read into memory.
const maxMemberSize = 1 << 32

// Contents is the decoded content of a .deb archive.
type Contents struct {
	// Members lists the ar member names in archive order.
	Members []string

	// FormatVersion is the content of debian-binary.
	FormatVersion string

	// Control is the raw control file, and Metadata its parsed fields.
	Control  string
	Metadata Metadata

	Scripts Scripts

	// Entries lists the data archive entries in archive order.
	Entries []Entry
}

// Entry is a single entry of the data archive.
type Entry struct {
	Name    string
	Dir     bool
	Mode    int64
	Size    int64
	Uid     int
	Gid     int
	ModTime time.Time
	Body    []byte
}

// ReadPackage decodes a .deb archive from r.
//
// The container must start with debian-binary and hold a control and a data
// archive. Members may be compressed with gzip, xz or zstd, or stored plain.
func ReadPackage(r io.Reader) (*Contents, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(arMagic))
	if err != nil || string(magic) != arMagic {
		return nil, newError(ErrInvalidContainer, "", "not an ar archive")
	}

	c := &Contents{}
	var hasControl, hasData bool

	arR := ar.NewReader(br)
	for {
		header, err := arR.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &Error{Kind: ErrInvalidContainer, Path: "ar", Err: fmt.Errorf("reading ar header: %w", err)}
		}
		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")
		c.Members = append(c.Members, name)

		if header.Size < 0 || header.Size > maxMemberSize {
			return nil, newError(ErrInvalidContainer, name, "member size %d out of range", header.Size)
		}
		body, err := io.ReadAll(io.LimitReader(arR, header.Size))
		if err != nil {
			return nil, &Error{Kind: ErrInvalidContainer, Path: name, Err: err}
		}
		if int64(len(body)) != header.Size {
			return nil, newError(ErrInvalidContainer, name, "truncated member: %d of %d bytes", len(body), header.Size)
		}

		switch {
		case len(c.Members) == 1:
			if name != string(PkgDebianBinary) {
				return nil, newError(ErrInvalidContainer, name, "first member must be %s", PkgDebianBinary)
			}
			c.FormatVersion = string(body)
		case strings.HasPrefix(name, "control.tar"):
			if err := c.readControl(name, body); err != nil {
				return nil, err
			}
			hasControl = true
		case strings.HasPrefix(name, "data.tar"):
			if err := c.readData(name, body); err != nil {
				return nil, err
			}
			hasData = true
		}
	}

	if len(c.Members) == 0 {
		return nil, newError(ErrInvalidContainer, "", "empty archive")
	}
	if !hasControl {
		return nil, newError(ErrInvalidContainer, "", "control archive not found")
	}
	if !hasData {
		return nil, newError(ErrInvalidContainer, "", "data archive not found")
	}
	return c, nil
}

func (c *Contents) readControl(member string, body []byte) error {
	return walkTar(member, body, func(th *tar.Header, content []byte) error {
		name := strings.TrimPrefix(th.Name, "./")
		switch ControlFile(name) {
		case FileControl:
			c.Control = string(content)
			parseControlFile(c.Control, &c.Metadata)
		case FilePreinst, FilePostinst, FilePrerm, FilePostrm:
			c.Scripts.Set(ControlFile(name), content)
		}
		return nil
	})
}

func (c *Contents) readData(member string, body []byte) error {
	return walkTar(member, body, func(th *tar.Header, content []byte) error {
		c.Entries = append(c.Entries, Entry{
			Name:    th.Name,
			Dir:     th.Typeflag == tar.TypeDir,
			Mode:    th.Mode,
			Size:    th.Size,
			Uid:     th.Uid,
			Gid:     th.Gid,
			ModTime: th.ModTime,
			Body:    content,
		})
		return nil
	})
}

// walkTar decompresses the archive member according to its extension and
// calls fn for every tar entry with the entry content.
func walkTar(member string, body []byte, fn func(*tar.Header, []byte) error) error {
	r, closeFn, err := decompress(member, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: ErrInvalidContainer, Path: member, Err: err}
	}
	defer closeFn()

	tr := tar.NewReader(r)
	for {
		th, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &Error{Kind: ErrInvalidContainer, Path: member, Err: fmt.Errorf("reading tar header: %w", err)}
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, tr); err != nil {
			return &Error{Kind: ErrInvalidContainer, Path: member, Err: fmt.Errorf("reading %s: %w", th.Name, err)}
		}
		if err := fn(th, buf.Bytes()); err != nil {
			return err
		}
	}
}

// decompress returns a reader for the uncompressed content of an archive member.
func decompress(member string, r io.Reader) (io.Reader, func(), error) {
	noop := func() {}
	switch {
	case strings.HasSuffix(member, ".gz"):
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return gr, func() { gr.Close() }, nil
	case strings.HasSuffix(member, ".xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return xr, noop, nil
	case strings.HasSuffix(member, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return zr, zr.Close, nil
	case strings.HasSuffix(member, ".tar"):
		return r, noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported compression for %s", member)
	}
}
