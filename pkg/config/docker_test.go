package config

import "testing"

func TestResolveHostForDocker(t *testing.T) {
	inDocker := IsRunningInDocker()

	tests := []struct {
		input string
		// what the loopback hosts should resolve to depends on the
		// environment running the tests
		wantInDocker string
		wantOnHost   string
	}{
		{"localhost", "host.docker.internal", "localhost"},
		{"127.0.0.1", "host.docker.internal", "127.0.0.1"},
		{"db.example.com", "db.example.com", "db.example.com"},
		{"192.168.1.100", "192.168.1.100", "192.168.1.100"},
		{"host.docker.internal", "host.docker.internal", "host.docker.internal"},
	}

	for _, tt := range tests {
		want := tt.wantOnHost
		if inDocker {
			want = tt.wantInDocker
		}
		if got := ResolveHostForDocker(tt.input); got != want {
			t.Errorf("ResolveHostForDocker(%q) = %q, want %q", tt.input, got, want)
		}
	}
}

func TestIsRunningInDocker_Stable(t *testing.T) {
	if IsRunningInDocker() != IsRunningInDocker() {
		t.Error("IsRunningInDocker should return a cached, stable result")
	}
}
