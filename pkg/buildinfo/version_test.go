package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFill(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}
	tests := []struct {
		name string
		in   Info
		want Info
	}{
		{
			name: "unset values come from build info",
			in:   Info{Version: "dev", Commit: "none", Date: "unknown"},
			want: Info{Version: "v0.3.1", Commit: "abc123", Date: "2026-01-02T03:04:05Z"},
		},
		{
			name: "ldflags win",
			in:   Info{Version: "v1.0.0", Commit: "deadbeef", Date: "today"},
			want: Info{Version: "v1.0.0", Commit: "deadbeef", Date: "today"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fill(tt.in, bi); got != tt.want {
				t.Errorf("fill() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFillDevelVersion(t *testing.T) {
	got := fill(Info{Version: "dev"}, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if got.Version != "dev" {
		t.Errorf("Version = %q, want dev", got.Version)
	}
}

func TestTemplate(t *testing.T) {
	if !strings.HasPrefix(Template(), "{{.Name}} version ") {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.Contains(String(), "go: go") {
		t.Errorf("String() = %q", String())
	}
}
