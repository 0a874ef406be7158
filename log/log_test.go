package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"warn+2", LevelWarn + 2},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("expected level %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	var names []string
	for name := range Levels() {
		names = append(names, name)
	}

	want := "trace debug info warn error"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{" JSON ", FormatJSON},
		{"text", FormatText},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("expected format %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf,
		WithFormat(FormatJSON),
		WithPretty(false),
		WithLevel(LevelTrace),
		WithTimeLayout("none"),
	)

	logger.Trace("parsed card", slog.String("card", "ROT-DEFI"), slog.Int("line", 12))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if rec["level"] != "TRACE" {
		t.Errorf("expected level TRACE, got %v", rec["level"])
	}

	if rec["card"] != "ROT-DEFI" {
		t.Errorf("expected card attribute, got %v", rec["card"])
	}

	if _, ok := rec["time"]; ok {
		t.Errorf("expected no time field, got %v", rec["time"])
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelWarn), WithPretty(false))

	logger.Debug("hidden")
	logger.Info("hidden")

	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	logger.Warn("shown")

	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn message, got %q", buf.String())
	}
}

func TestLogger_WithKeepsAttributes(t *testing.T) {
	tests := []struct {
		name   string
		pretty bool
	}{
		{"plain", false},
		{"pretty", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := Make(&buf, WithPretty(tt.pretty), WithTimeLayout(""))
			logger = logger.With(slog.String("deck", "hive.inp"))
			logger.Info("loaded", slog.Int("regions", 3))

			out := buf.String()
			for _, want := range []string{"deck", "hive.inp", "regions", "3", "loaded"} {
				if !strings.Contains(out, want) {
					t.Errorf("expected output to contain %q, got %q", want, out)
				}
			}
		})
	}
}

func TestLogger_WrapOverrides(t *testing.T) {
	base := Make(nil, WithLevel(LevelError))
	derived := base.Wrap(WithLevel(LevelDebug), WithFormat(FormatJSON))

	if base.Level() != LevelError {
		t.Errorf("expected base level unchanged, got %v", base.Level())
	}

	if derived.Level() != LevelDebug {
		t.Errorf("expected derived level debug, got %v", derived.Level())
	}

	if derived.Format() != FormatJSON {
		t.Errorf("expected derived format json, got %v", derived.Format())
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var logger Logger

	logger.Info("dropped")
	logger.With(slog.Int("x", 1)).Error("dropped")

	if logger.Level() != DefaultLevel {
		t.Errorf("expected default level, got %v", logger.Level())
	}
}

func TestDefaultLogger(t *testing.T) {
	original := defaultLog
	defer func() { defaultLog = original }()

	var buf bytes.Buffer

	defaultLog = Make(&buf, WithLevel(LevelDebug), WithFormat(FormatJSON), WithPretty(false))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("message", slog.String("key", "value"))

			out := buf.String()
			if !strings.Contains(out, tt.level) || !strings.Contains(out, `"key":"value"`) {
				t.Errorf("unexpected output %q", out)
			}
		})
	}

	Config(WithLevel(LevelError))

	buf.Reset()
	Info("suppressed")

	if buf.Len() != 0 {
		t.Errorf("expected Config to raise the level, got %q", buf.String())
	}
}
