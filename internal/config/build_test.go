package config

import (
	"os"
	"testing"
)

func TestNewBuildInfo_UnstampedDefaults(t *testing.T) {
	info := NewBuildInfo()

	if info.Version != "dev" || info.Commit != "none" || info.BuildTime != "unknown" {
		t.Errorf("NewBuildInfo() = %+v, want dev/none/unknown", info)
	}
}

func TestBuildInfo_UserAgent(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{"unstamped", BuildInfo{Version: "dev", Commit: "none"}, "SeaRoute/dev"},
		{"release", BuildInfo{Version: "1.2.3", Commit: "abc1234"}, "SeaRoute/1.2.3 (abc1234)"},
		{"no commit", BuildInfo{Version: "1.2.3"}, "SeaRoute/1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.UserAgent(); got != tt.want {
				t.Errorf("UserAgent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_UserAgentFollowsBuild(t *testing.T) {
	isolate(t)
	t.Setenv("APP_ENV", "local")
	t.Setenv("ROUTING_USER_AGENT", "")

	cfg, err := load(os.LookupEnv)
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	if cfg.Routing.UserAgent != "SeaRoute/dev" {
		t.Errorf("Routing.UserAgent = %q, want the build's SeaRoute/dev", cfg.Routing.UserAgent)
	}

	t.Setenv("ROUTING_USER_AGENT", "fleet-console/2")
	cfg, err = load(os.LookupEnv)
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	if cfg.Routing.UserAgent != "fleet-console/2" {
		t.Errorf("Routing.UserAgent = %q, want the explicit override", cfg.Routing.UserAgent)
	}
}
