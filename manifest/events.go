package manifest

import (
	"encoding/json"
	"fmt"
)

// Listener is a callback function that receives events during the build process.
type Listener func(fmt.Stringer)

func jsonString(v interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		fmt.Sprintf("%T", v): v,
	})
	return string(b)
}

// EventPackageBuild is emitted once the manifest is validated, before any archive is built.
type EventPackageBuild struct {
	Manifest     string `json:"manifest,omitempty"`
	Package      string `json:"package,omitempty"`
	Version      string `json:"version,omitempty"`
	Architecture string `json:"architecture,omitempty"`
	Files        int    `json:"files,omitempty"`
}

func (e EventPackageBuild) String() string { return jsonString(e) }

// EventFileMapped is emitted for every payload file, in manifest order.
// Installed is the absolute path on the target system.
type EventFileMapped struct {
	Src       string `json:"src,omitempty"`
	Installed string `json:"installed,omitempty"`
}

func (e EventFileMapped) String() string { return jsonString(e) }

// EventScriptIncluded is emitted for every maintainer script added to the package.
type EventScriptIncluded struct {
	Name string `json:"name,omitempty"`
}

func (e EventScriptIncluded) String() string { return jsonString(e) }

// EventPackageWrite is emitted when the .deb file has been written.
type EventPackageWrite struct {
	Path          string `json:"path,omitempty"`
	Size          int64  `json:"size,omitempty"`
	SHA256        string `json:"sha256,omitempty"`
	InstalledSize int64  `json:"installed_size,omitempty"`
}

func (e EventPackageWrite) String() string { return jsonString(e) }

// EventSignatureWrite is emitted when the detached signature has been written.
type EventSignatureWrite struct {
	Path string `json:"path,omitempty"`
}

func (e EventSignatureWrite) String() string { return jsonString(e) }
