// Package buildinfo carries the version stamped in at link time.
package buildinfo

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// Set with -ldflags "-X folio/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for window titles and logs.
// Without link-time values it falls back to the VCS revision recorded by the
// go tool, then to "dev".
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return shortRev(Commit)
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return shortRev(s.Value)
			}
		}
	}
	return "dev"
}

// UserAgent identifies the viewer in outgoing HTTP requests.
func UserAgent() string { return "folio/" + Short() }

// Fields returns the build as log fields.
func Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("built", Date),
	}
}

func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
