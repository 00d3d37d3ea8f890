package config

import "fmt"

// Set at link time, for example:
//
//	go build -ldflags "-X searoute/internal/config.version=1.2.3 \
//	    -X searoute/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X searoute/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/searoute
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo reads the linker-injected build metadata.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}

// UserAgent identifies this build to the routing service, e.g.
// "SeaRoute/1.2.3 (abc1234)". The commit is omitted for unstamped builds.
func (b BuildInfo) UserAgent() string {
	if b.Commit == "" || b.Commit == "none" {
		return "SeaRoute/" + b.Version
	}
	return fmt.Sprintf("SeaRoute/%s (%s)", b.Version, b.Commit)
}
