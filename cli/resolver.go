package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/geodeck/log"
)

// resolve returns a [kong.ConfigurationLoader] reading a flat YAML mapping of
// flag names to values:
//
//	log-level: debug
//	log_pretty: false
//	path: [/opt/decks, ~/decks]
//	define: [THICK_TARGET]
//
// Keys may spell hyphens as underscores. Numbers are handed to kong as
// strings. Flags given on the command line override the file. A file that is
// not a mapping is ignored with a warning.
func resolve(ctx context.Context) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		var raw map[string]any

		if err := yaml.NewDecoder(r).DecodeContext(ctx, &raw); err != nil && err != io.EOF {
			log.WarnContext(ctx, "ignoring malformed configuration",
				slog.Any("error", err))

			return config{}, nil
		}

		cfg := make(config, len(raw))
		for k, v := range raw {
			cfg[k] = flagValue(v)
		}

		return cfg, nil
	}
}

// config implements [kong.Resolver] over a flat map of flag values.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	if v, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return v, nil
	}

	return nil, nil
}

// flagValue converts a decoded YAML value to one kong's mappers accept.
func flagValue(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagValue(e)
		}

		return out
	default:
		return v
	}
}
