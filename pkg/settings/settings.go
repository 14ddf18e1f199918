// Package settings provides build metadata, per-run options, and context
// helpers shared by the kvpick CLI and its library packages.
package settings

import "time"

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "kvpick"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds the commit hash, build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// InputSettings says where candidates come from: a file path, or stdin
// when Path is empty.
type InputSettings struct {
	Path      string
	FromStdin bool
}

// Run holds configuration settings for a single execution of the CLI.
type Run struct {
	MinLogLevel     int8
	Input           InputSettings
	Output          string
	Debounce        time.Duration
	ValidationDelay time.Duration
	IsQuiet         bool
	ExitOnInvalid   bool
}

// NewCliParams returns the defaults for a CLI run.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel:     0,
		Input:           InputSettings{FromStdin: true},
		Output:          "table",
		Debounce:        300 * time.Millisecond,
		ValidationDelay: 300 * time.Millisecond,
		ExitOnInvalid:   true,
	}
}

// Interactive reports whether the run reads queries typed by a person, as
// opposed to a pipe or --query flags.
func (r *Run) Interactive(stdinIsTerminal bool) bool {
	return !r.IsQuiet && stdinIsTerminal
}
