package deb

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#source
	packageNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]*$`)
	// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#version
	versionRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.+~:-]*$`)
)

func (m Metadata) architecture() string {
	if m.Architecture == "" {
		return DefaultArchitecture
	}
	return m.Architecture
}

// Validate checks the fields that end up in the file name and the control file.
//
// Package and Version must use the Debian character sets, so neither can hold
// a path separator. Architecture must be empty or one of Architectures. Only
// Description may span several lines.
func (m Metadata) Validate() error {
	if !packageNameRe.MatchString(m.Package) {
		return newError(ErrInvalidField, string(FieldPackage), "invalid package name %q: must match %s", m.Package, packageNameRe)
	}
	if !versionRe.MatchString(m.Version) {
		return newError(ErrInvalidField, string(FieldVersion), "invalid version %q: must match %s", m.Version, versionRe)
	}
	if m.Architecture != "" && !slices.Contains(Architectures, m.Architecture) {
		return newError(ErrInvalidArchitecture, string(FieldArchitecture),
			"invalid architecture %q: must be one of %s", m.Architecture, strings.Join(Architectures, "/"))
	}

	oneLine := func(field ControlField, value string) error {
		if strings.ContainsAny(value, "\r\n") {
			return newError(ErrInvalidField, string(field), "value %q must fit on one line", value)
		}
		return nil
	}
	if err := oneLine(FieldMaintainer, m.Maintainer); err != nil {
		return err
	}
	if err := oneLine(FieldHomepage, m.Homepage); err != nil {
		return err
	}
	relFields := []ControlField{FieldDepends, FieldRecommends, FieldSuggests, FieldProvides, FieldConflicts}
	for i, items := range [][]string{m.Depends, m.Recommends, m.Suggests, m.Provides, m.Conflicts} {
		for _, item := range items {
			if err := oneLine(relFields[i], item); err != nil {
				return err
			}
		}
	}
	return nil
}

// Control renders the content of the control file.
//
// Fields are written in a fixed order: Package, Version, Architecture,
// Maintainer, Description, then Homepage when set, then the relationship
// fields that have at least one item. Values are written verbatim; only the
// extended lines of a multi-line Description are folded as the format requires.
func (m Metadata) Control() []byte {
	var b strings.Builder

	writeField := func(field ControlField, value string) {
		fmt.Fprintf(&b, "%s: %s\n", field, value)
	}

	maintainer := m.Maintainer
	if maintainer == "" {
		maintainer = DefaultMaintainer
	}
	description := m.Description
	if description == "" {
		description = DefaultDescription
	}

	writeField(FieldPackage, m.Package)
	writeField(FieldVersion, m.Version)
	writeField(FieldArchitecture, m.architecture())
	writeField(FieldMaintainer, maintainer)

	lines := strings.Split(strings.TrimRight(description, "\r\n"), "\n")
	writeField(FieldDescription, lines[0])
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			b.WriteString(" .\n")
		} else if strings.HasPrefix(line, " ") {
			fmt.Fprintf(&b, "%s\n", line)
		} else {
			fmt.Fprintf(&b, " %s\n", line)
		}
	}

	if m.Homepage != "" {
		writeField(FieldHomepage, m.Homepage)
	}

	// Relationships
	writeRel := func(field ControlField, items []string) {
		if len(items) > 0 {
			writeField(field, strings.Join(items, ","))
		}
	}
	writeRel(FieldDepends, m.Depends)
	writeRel(FieldRecommends, m.Recommends)
	writeRel(FieldSuggests, m.Suggests)
	writeRel(FieldProvides, m.Provides)
	writeRel(FieldConflicts, m.Conflicts)

	return []byte(b.String())
}

// parseControlFile parses the content of a Debian control file and populates the Metadata struct.
// Unknown fields are ignored. Folded description lines are kept with their leading space.
func parseControlFile(content string, m *Metadata) {
	var currentKey string
	var currentValue strings.Builder

	flush := func() {
		if currentKey == "" {
			return
		}
		val := strings.TrimSpace(currentValue.String())
		switch ControlField(currentKey) {
		case FieldPackage:
			m.Package = val
		case FieldVersion:
			m.Version = val
		case FieldArchitecture:
			m.Architecture = val
		case FieldMaintainer:
			m.Maintainer = val
		case FieldDescription:
			m.Description = val
		case FieldHomepage:
			m.Homepage = val
		case FieldDepends:
			m.Depends = splitList(val)
		case FieldRecommends:
			m.Recommends = splitList(val)
		case FieldSuggests:
			m.Suggests = splitList(val)
		case FieldProvides:
			m.Provides = splitList(val)
		case FieldConflicts:
			m.Conflicts = splitList(val)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			currentValue.WriteString("\n" + line)
		} else if strings.Contains(line, ":") {
			flush()
			parts := strings.SplitN(line, ":", 2)
			currentKey = parts[0]
			currentValue.Reset()
			currentValue.WriteString(strings.TrimSpace(parts[1]))
		}
	}
	flush()
}

// splitList splits a comma-separated string into a slice of strings, trimming whitespace from each element.
// It returns nil if the input string is empty.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var res []string
	for _, p := range parts {
		res = append(res, strings.TrimSpace(p))
	}
	return res
}
