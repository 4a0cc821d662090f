package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFillFrom(t *testing.T) {
	saved := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = saved[0], saved[1], saved[2] })

	tests := []struct {
		name        string
		version     string
		mainVersion string
		want        string
	}{
		{"installed", "dev", "v0.3.1", "v0.3.1"},
		{"devel build", "dev", "(devel)", "dev"},
		{"ldflags win", "v1.0.0", "v0.3.1", "v1.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit, Date = tt.version, "none", "unknown"
			fillFrom(&debug.BuildInfo{
				Main: debug.Module{Version: tt.mainVersion},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123"},
					{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
				},
			})
			if Version != tt.want {
				t.Errorf("Version = %q, want %q", Version, tt.want)
			}
			if Commit != "abc123" || Date != "2026-01-02T03:04:05Z" {
				t.Errorf("Commit, Date = %q, %q", Commit, Date)
			}
		})
	}
}

func TestTemplate(t *testing.T) {
	if !strings.Contains(Template(), "{{.Name}} version "+Version) {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.HasPrefix(String(), "version: "+Version) {
		t.Errorf("String() = %q", String())
	}
}
