// Package cli contains the command line interface for geodeck.
//
// # Usage
//
// Every command reads one deck: the positional deck argument (a file, or a
// name resolved through the prototype search path), else the concatenation
// of the global --source fragments, else stdin:
//
//	geodeck fmt target.inp -o clean.inp
//	geodeck -s bodies.inp -s regions.inp check
//	geodeck -D THICK query BODSINREG TARGET target.inp
//	geodeck -P ./protos grid layout.yaml -o grid.inp --split
//
// # Configuration
//
// Flag defaults are read from config.yaml (a flat mapping of flag names to
// values) and config.json in the user configuration directory. Flags given on
// the command line override both.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o geodeck .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: the pprof
//     directory in the user cache directory)
package cli
