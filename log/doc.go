// Package log wraps [log/slog] with the leveled, attribute-only interface used
// throughout geodeck.
//
// A [Logger] is a value. Deriving a logger with [Logger.Wrap] or
// [Logger.With] never mutates the receiver, so loggers can be handed to
// geometry operations and commands freely:
//
//	logger := log.Make(os.Stderr, log.WithLevel(log.LevelDebug))
//	logger = logger.With(slog.String("deck", "hive.inp"))
//	logger.Info("parsed", slog.Int("bodies", 12))
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-card parser
// tracing. The remaining levels map directly onto slog's.
//
// # Formats
//
// [FormatJSON] and [FormatText] select the slog handler. With [WithPretty]
// enabled (the default) both formats are rendered by a colorized handler
// styled with lipgloss; colors are dropped automatically when the output is
// not a terminal.
//
// # Default logger
//
// The package-level functions ([Info], [Warn], ...) write through a default
// logger on standard error which the CLI reconfigures with [Config] while
// parsing flags.
package log
