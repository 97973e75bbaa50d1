package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/etnz/termux-create-package/deb"
)

func TestParseJSONKeepsOrder(t *testing.T) {
	content := `{
		"name": "mypackage",
		"version": "0.1",
		"arch": "aarch64",
		"maintainer": "@MyGithubNick",
		"description": "This is a hello world package",
		"homepage": "https://example.com",
		"depends": ["python", "libc++"],
		"recommends": ["vim"],
		"suggests": ["vim-python"],
		"provides": ["vi"],
		"conflicts": ["vim-python-git"],
		"files": {
			"zeta.py": "bin/zeta",
			"alpha.txt": "share/doc/alpha.txt",
			"mid.conf": "etc/mid.conf"
		}
	}`
	m, err := Parse("manifest.json", []byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	expected := FileMap{
		{Src: "zeta.py", Dst: "bin/zeta"},
		{Src: "alpha.txt", Dst: "share/doc/alpha.txt"},
		{Src: "mid.conf", Dst: "etc/mid.conf"},
	}
	if !reflect.DeepEqual(m.Files, expected) {
		t.Errorf("expected files %v, got %v", expected, m.Files)
	}
	if m.Arch != "aarch64" || m.Homepage != "https://example.com" {
		t.Errorf("unexpected manifest %+v", m)
	}
	if !reflect.DeepEqual(m.Depends, []string{"python", "libc++"}) {
		t.Errorf("unexpected depends %q", m.Depends)
	}
}

func TestParseYAMLKeepsOrder(t *testing.T) {
	content := `
name: mypackage
version: "0.1"
depends: [python]
files:
  zeta.py: bin/zeta
  alpha.txt: share/doc/alpha.txt
  mid.conf: etc/mid.conf
`
	for _, name := range []string{"manifest.yaml", "manifest.yml"} {
		m, err := Parse(name, []byte(content))
		if err != nil {
			t.Fatalf("Parse(%s) failed: %v", name, err)
		}
		var srcs []string
		for _, f := range m.Files {
			srcs = append(srcs, f.Src)
		}
		if !reflect.DeepEqual(srcs, []string{"zeta.py", "alpha.txt", "mid.conf"}) {
			t.Errorf("%s: expected manifest order, got %q", name, srcs)
		}
		if m.Version != "0.1" {
			t.Errorf("%s: expected version 0.1, got %q", name, m.Version)
		}
	}
}

func TestParseDefaults(t *testing.T) {
	m, err := Parse("m.json", []byte(`{"name":"hello","version":"1.0","files":{"hello.sh":"bin/hello"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Arch != "all" {
		t.Errorf("expected default arch all, got %q", m.Arch)
	}
	if m.Description != "No description" {
		t.Errorf("expected default description, got %q", m.Description)
	}
	if m.Maintainer != "" {
		t.Errorf("expected empty maintainer, got %q", m.Maintainer)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"malformed json", "m.json", `{"name": `},
		{"unknown field", "m.json", `{"name":"a","version":"1","files":{"a":"b"},"colour":"red"}`},
		{"duplicate source", "m.json", `{"files":{"a":"x","a":"y"}}`},
		{"files not an object", "m.json", `{"files":["a","b"]}`},
		{"destination not a string", "m.json", `{"files":{"a":1}}`},
		{"yaml unknown field", "m.yaml", "name: a\ncolour: red\n"},
		{"yaml duplicate source", "m.yaml", "files:\n  a: x\n  a: y\n"},
		{"yaml files not a mapping", "m.yml", "files: [a, b]\n"},
		{"trailing json", "m.json", `{"name":"a","version":"1","files":{"a":"b"}} {"junk":`},
		{"second json object", "m.json", `{"name":"a","version":"1","files":{"a":"b"}}{"name":"b"}`},
		{"trailing garbage", "m.json", `{"name":"a","version":"1","files":{"a":"b"}} x`},
		{"second yaml document", "m.yaml", "name: a\nversion: '1'\nfiles:\n  a: b\n---\nname: b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.file, []byte(tt.content))
			if !deb.IsKind(err, deb.ErrManifestParse) {
				t.Errorf("expected ManifestParseError, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	files := FileMap{{Src: "a", Dst: "bin/a"}}
	tests := []struct {
		name    string
		m       Manifest
		wantErr bool
		kind    deb.ErrorKind
	}{
		{"valid", Manifest{Name: "a", Version: "1", Arch: "all", Files: files}, false, 0},
		{"every arch", Manifest{Name: "a", Version: "1", Arch: "x86_64", Files: files}, false, 0},
		{"missing name", Manifest{Version: "1", Files: files}, true, deb.ErrMissingField},
		{"blank name", Manifest{Name: "  ", Version: "1", Files: files}, true, deb.ErrMissingField},
		{"missing version", Manifest{Name: "a", Files: files}, true, deb.ErrMissingField},
		{"missing files", Manifest{Name: "a", Version: "1"}, true, deb.ErrMissingField},
		{"empty files", Manifest{Name: "a", Version: "1", Files: FileMap{}}, true, deb.ErrMissingField},
		{"invalid arch", Manifest{Name: "a", Version: "1", Arch: "mips", Files: files}, true, deb.ErrInvalidArchitecture},
		{"arch is case sensitive", Manifest{Name: "a", Version: "1", Arch: "ARM", Files: files}, true, deb.ErrInvalidArchitecture},
		{"name escapes output dir", Manifest{Name: "../escaped", Version: "1", Arch: "all", Files: files}, true, deb.ErrInvalidField},
		{"name with slash", Manifest{Name: "a/b", Version: "1", Arch: "all", Files: files}, true, deb.ErrInvalidField},
		{"uppercase name", Manifest{Name: "Hello", Version: "1", Arch: "all", Files: files}, true, deb.ErrInvalidField},
		{"version with slash", Manifest{Name: "a", Version: "1/2", Arch: "all", Files: files}, true, deb.ErrInvalidField},
		{"maintainer with newline", Manifest{Name: "a", Version: "1", Arch: "all", Maintainer: "m\nPackage: evil", Files: files}, true, deb.ErrInvalidField},
		{"depends with newline", Manifest{Name: "a", Version: "1", Arch: "all", Depends: []string{"x\ny"}, Files: files}, true, deb.ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !deb.IsKind(err, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestParseAllowsTrailingWhitespace(t *testing.T) {
	if _, err := Parse("m.json", []byte("{\"name\":\"a\",\"version\":\"1\",\"files\":{\"a\":\"b\"}}\n\n  ")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := Parse("m.yaml", []byte("name: a\nversion: '1'\nfiles:\n  a: b\n\n")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseNullFilesFailsValidation(t *testing.T) {
	m, err := Parse("m.json", []byte(`{"name":"a","version":"1","files":null}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := m.Validate(); !deb.IsKind(err, deb.ErrMissingField) {
		t.Errorf("expected MissingField, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	m := Manifest{Name: "mypackage", Version: "0.1", Arch: "arm"}
	if got := m.Filename(); got != "mypackage_0.1_arm.deb" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestLoadScripts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "postinst"), []byte("#!/bin/sh\necho installed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prerm"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	scripts, err := LoadScripts(dir)
	if err != nil {
		t.Fatalf("LoadScripts failed: %v", err)
	}
	if string(scripts.PostInst) != "#!/bin/sh\necho installed\n" {
		t.Errorf("unexpected postinst %q", scripts.PostInst)
	}
	if scripts.PreRm == nil || len(scripts.PreRm) != 0 {
		t.Errorf("expected an empty but present prerm, got %#v", scripts.PreRm)
	}
	if scripts.PreInst != nil || scripts.PostRm != nil {
		t.Errorf("expected absent preinst and postrm, got %+v", scripts)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(`{"name":"hello","version":"1.0","files":{"hello.sh":"bin/hello"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "preinst"), []byte("#!/bin/sh\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Name != "hello" || len(m.Files) != 1 {
		t.Errorf("unexpected manifest %+v", m)
	}
	if string(m.Scripts.PreInst) != "#!/bin/sh\n" {
		t.Errorf("sibling preinst not loaded: %q", m.Scripts.PreInst)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "absent.json")); !deb.IsKind(err, deb.ErrIO) {
		t.Errorf("expected IoError for a missing manifest, got %v", err)
	}

	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(`{"name":"hello","version":"1.0","arch":"mips","files":{"a":"b"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !deb.IsKind(err, deb.ErrInvalidArchitecture) {
		t.Errorf("expected InvalidArchitecture, got %v", err)
	}
}
