package version

import (
	"bytes"
	"fmt"
	"time"

	goversion "github.com/hashicorp/go-version"
)

var (
	// BuildDate is the time of the git commit used to build the program,
	// in RFC3339 format. It is filled in by the linker.
	BuildDate string

	// GitCommit is the git commit that was compiled. It is filled in by the
	// linker.
	GitCommit string

	// Version is the main version number that is being run at the moment.
	Version = "0.3.0"

	// VersionPrerelease is a pre-release marker such as "dev" or "rc1". An
	// empty string means a final release.
	VersionPrerelease = "dev"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	BuildDate         time.Time
	Revision          string
	Version           string
	VersionPrerelease string
}

func GetVersion() *VersionInfo {
	// on parse error, will be zero value time.Time{}
	built, _ := time.Parse(time.RFC3339, BuildDate)

	return &VersionInfo{
		BuildDate:         built,
		Revision:          GitCommit,
		Version:           Version,
		VersionPrerelease: VersionPrerelease,
	}
}

// VersionNumber is the semantic version, including the pre-release marker.
func (c *VersionInfo) VersionNumber() string {
	if c.VersionPrerelease != "" {
		return fmt.Sprintf("%s-%s", c.Version, c.VersionPrerelease)
	}
	return c.Version
}

// SemVer parses VersionNumber.
func (c *VersionInfo) SemVer() (*goversion.Version, error) {
	return goversion.NewSemver(c.VersionNumber())
}

func (c *VersionInfo) FullVersionNumber(rev bool) string {
	var versionString bytes.Buffer

	fmt.Fprintf(&versionString, "uel v%s", c.VersionNumber())

	if !c.BuildDate.IsZero() {
		fmt.Fprintf(&versionString, "\nBuildDate %s", c.BuildDate.Format(time.RFC3339))
	}

	if rev && c.Revision != "" {
		fmt.Fprintf(&versionString, "\nRevision %s", c.Revision)
	}

	return versionString.String()
}
