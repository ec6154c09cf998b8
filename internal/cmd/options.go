// Package cmd is the ruledns CLI entry point: flag parsing, config loading,
// validation, and wiring the router, resolver pool, handler and server
// together.
package cmd

// Options are the flags jessevdk/go-flags parses from the command line.
// Any of Host, Port or LogLevel that's set overrides the same field in the
// config file.
type Options struct {
	Host     string `long:"host" description:"Host to listen on" optional:"yes"`
	Port     uint16 `long:"port" description:"Port to listen on" optional:"yes"`
	LogLevel string `long:"log-level" description:"One of trace, debug, info, warn, error" optional:"yes"`
	Config   string `long:"config" description:"Path to the JSON rule config file; built-in defaults are used if absent" optional:"yes"`
	Version  bool   `long:"version" description:"Print the version and exit" optional:"yes"`
}
