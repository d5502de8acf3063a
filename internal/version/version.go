// Package version holds build metadata set via -ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/mandalnilabja/chatrelay/internal/version.Version=v1.2.0"
var Version = "dev"
