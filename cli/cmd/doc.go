// Package cmd implements the geodeck subcommands. Each reads a deck from the
// global sources (or stdin), applies one geometry operation, and echoes the
// result.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
