package deb

import "time"

// ControlField represents a field in a Debian control file.
type ControlField string

const (
	FieldPackage      ControlField = "Package"
	FieldVersion      ControlField = "Version"
	FieldArchitecture ControlField = "Architecture"
	FieldMaintainer   ControlField = "Maintainer"
	FieldDescription  ControlField = "Description"
	FieldHomepage     ControlField = "Homepage"
	FieldDepends      ControlField = "Depends"
	FieldRecommends   ControlField = "Recommends"
	FieldSuggests     ControlField = "Suggests"
	FieldProvides     ControlField = "Provides"
	FieldConflicts    ControlField = "Conflicts"
)

// ControlFile represents a file found in the control.tar.gz archive.
type ControlFile string

const (
	FileControl  ControlFile = "control"
	FilePreinst  ControlFile = "preinst"
	FilePostinst ControlFile = "postinst"
	FilePrerm    ControlFile = "prerm"
	FilePostrm   ControlFile = "postrm"
)

// ScriptFiles lists the maintainer scripts in the order they are stored in
// the control archive.
var ScriptFiles = []ControlFile{FilePreinst, FilePostinst, FilePrerm, FilePostrm}

// PackageFile represents a member of the .deb archive (ar format).
type PackageFile string

const (
	PkgDebianBinary PackageFile = "debian-binary"
	PkgControlTarGz PackageFile = "control.tar.gz"
	PkgDataTarGz    PackageFile = "data.tar.gz"
)

// DebianBinary is the content of the debian-binary member.
const DebianBinary = "2.0\n"

// Architectures accepted in the Architecture field.
var Architectures = []string{"all", "arm", "i686", "aarch64", "x86_64"}

// Default values used when a manifest leaves a field out.
const (
	DefaultArchitecture = "all"
	DefaultMaintainer   = "None"
	DefaultDescription  = "No description"
)

// Epoch is the timestamp stored in every archive header unless the Package
// overrides it.
var Epoch = time.Unix(0, 0).UTC()

// File modes used for archive entries.
const (
	ModeFile       int64 = 0644
	ModeExecutable int64 = 0755
	ModeDir        int64 = 0755
)
