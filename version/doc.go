// Package version reports the pipestudio build.
//
// Version, commit, branch and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/pipestudio/version.Version=1.2.0 \
//	  -X github.com/kbukum/pipestudio/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Unset values fall back to the module build info embedded by the Go
// toolchain.
package version
