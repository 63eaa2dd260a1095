// Package buildinfo holds version data stamped in at link time:
//
//	go build -ldflags "-X github.com/matzehuels/worldmap/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/worldmap/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/worldmap
package buildinfo

import "fmt"

// Stamped by ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build data reported by `worldmap --version` and GET /healthz.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build data.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String formats i on one line.
func (i Info) String() string {
	return fmt.Sprintf("worldmap %s (%s, %s)", i.Version, i.Commit, i.Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, %s)\n", Version, Commit, Date)
}
