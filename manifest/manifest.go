// Package manifest loads declarative package manifests and builds .deb files from them.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/termux-create-package/deb"
	"go.yaml.in/yaml/v3"
)

// Manifest is the validated description of a package.
// It is not modified after Load or Parse returns it.
type Manifest struct {
	// Name is the package name. Mandatory.
	Name string `json:"name" yaml:"name"`
	// Version is the package version. Mandatory and opaque.
	Version string `json:"version" yaml:"version"`
	// Arch is one of deb.Architectures. Defaults to "all".
	Arch string `json:"arch" yaml:"arch"`

	Maintainer  string `json:"maintainer" yaml:"maintainer"`
	Description string `json:"description" yaml:"description"`
	Homepage    string `json:"homepage" yaml:"homepage"`

	Depends    []string `json:"depends" yaml:"depends"`
	Recommends []string `json:"recommends" yaml:"recommends"`
	Suggests   []string `json:"suggests" yaml:"suggests"`
	Provides   []string `json:"provides" yaml:"provides"`
	Conflicts  []string `json:"conflicts" yaml:"conflicts"`

	// Files maps source paths (relative to the build directory) to install
	// paths (relative to the prefix), in manifest order.
	Files FileMap `json:"files" yaml:"files"`

	// Scripts holds the maintainer scripts found next to the manifest file.
	Scripts deb.Scripts `json:"-" yaml:"-"`

	filePath string
}

// FileMapping is one entry of a FileMap.
type FileMapping struct {
	Src string
	Dst string
}

// FileMap is an ordered source to destination mapping with unique sources.
type FileMap []FileMapping

// UnmarshalJSON decodes a JSON object keeping the key order.
func (m *FileMap) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*m = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("files must be an object mapping source paths to install paths")
	}

	res := FileMap{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		src := tok.(string) // object keys are always strings
		var dst string
		if err := dec.Decode(&dst); err != nil {
			return fmt.Errorf("files[%q]: %w", src, err)
		}
		if err := res.add(src, dst); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = res
	return nil
}

// UnmarshalYAML decodes a YAML mapping keeping the key order.
func (m *FileMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*m = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: files must be a mapping of source paths to install paths", node.Line)
	}

	res := FileMap{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var src, dst string
		if err := node.Content[i].Decode(&src); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&dst); err != nil {
			return fmt.Errorf("files[%q]: %w", src, err)
		}
		if err := res.add(src, dst); err != nil {
			return err
		}
	}
	*m = res
	return nil
}

func (m *FileMap) add(src, dst string) error {
	for _, f := range *m {
		if f.Src == src {
			return fmt.Errorf("files: duplicate source %q", src)
		}
	}
	*m = append(*m, FileMapping{Src: src, Dst: dst})
	return nil
}

// Load reads, parses and validates the manifest at path, then loads the
// maintainer scripts found in the same directory.
func Load(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, deb.NewError(deb.ErrIO, path, fmt.Errorf("failed to read manifest: %w", err))
	}

	m, err := Parse(path, content)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	m.Scripts, err = LoadScripts(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	m.filePath = path
	return m, nil
}

// Parse decodes a manifest and applies defaults. The format is chosen from the
// extension of name: YAML for ".yaml" and ".yml", JSON otherwise. Unknown
// fields are rejected. Parse does not validate.
func Parse(name string, content []byte) (*Manifest, error) {
	var m Manifest
	if err := unmarshal(name, content, &m); err != nil {
		return nil, deb.NewError(deb.ErrManifestParse, name, err)
	}
	if m.Arch == "" {
		m.Arch = deb.DefaultArchitecture
	}
	if m.Description == "" {
		m.Description = deb.DefaultDescription
	}
	return &m, nil
}

// Validate checks the mandatory fields, the architecture, and the character
// set of the values copied into the package file name and control file.
func (m *Manifest) Validate() error {
	switch {
	case strings.TrimSpace(m.Name) == "":
		return deb.NewError(deb.ErrMissingField, "name", errors.New("missing mandatory name property"))
	case strings.TrimSpace(m.Version) == "":
		return deb.NewError(deb.ErrMissingField, "version", errors.New("missing mandatory version property"))
	case len(m.Files) == 0:
		return deb.NewError(deb.ErrMissingField, "files", errors.New("missing mandatory files property"))
	}
	if m.Arch != "" && !slices.Contains(deb.Architectures, m.Arch) {
		return deb.NewError(deb.ErrInvalidArchitecture, "arch",
			fmt.Errorf("invalid arch %q - must be one of %s", m.Arch, strings.Join(deb.Architectures, "/")))
	}
	return m.metadata().Validate()
}

// Filename returns the name of the .deb built from the manifest.
func (m *Manifest) Filename() string {
	pkg := deb.Package{Metadata: m.metadata()}
	return pkg.StandardFilename()
}

// LoadScripts reads the maintainer scripts present in dir.
// A missing script is absent from the result; any other read error fails.
func LoadScripts(dir string) (deb.Scripts, error) {
	var scripts deb.Scripts
	for _, name := range deb.ScriptFiles {
		path := filepath.Join(dir, string(name))
		body, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return deb.Scripts{}, deb.NewError(deb.ErrIO, path, err)
		}
		if body == nil {
			body = []byte{}
		}
		if err := scripts.Set(name, body); err != nil {
			return deb.Scripts{}, err
		}
	}
	return scripts, nil
}

// unmarshal parses JSON or YAML based on file extension.
// The content must hold exactly one document.
func unmarshal(path string, data []byte, v interface{}) error {
	ext := strings.ToLower(filepath.Ext(path))
	r := bytes.NewReader(data)
	if ext == ".yaml" || ext == ".yml" {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return err
		}
		var extra yaml.Node
		if err := dec.Decode(&extra); err != io.EOF {
			return fmt.Errorf("unexpected content after the first YAML document")
		}
		return nil
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected content after the JSON object")
	}
	return nil
}
