package cli

import "testing"

func TestLogConfigScan(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "separate values",
			args: []string{"--log-level", "debug", "fmt", "--log-format", "json"},
			want: logConfig{Level: "debug", Format: "json", Pretty: true},
		},
		{
			name: "assigned values",
			args: []string{"query", "--log-level=warn", "--log-caller"},
			want: logConfig{Level: "warn", Caller: true, Pretty: true},
		},
		{
			name: "negated toggles",
			args: []string{"--no-log-pretty", "--log-caller=false"},
			want: logConfig{},
		},
		{
			name: "negated assignment",
			args: []string{"--no-log-pretty=false"},
			want: logConfig{Pretty: true},
		},
		{
			name: "unrelated flags",
			args: []string{"--source", "deck.inp", "--log-unknown", "-o", "out.inp"},
			want: logConfig{Pretty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f != tt.want {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, f, tt.want)
			}
		})
	}
}
