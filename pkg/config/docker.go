package config

import (
	"os"
	"sync"
)

var dockerCheck = sync.OnceValue(func() bool {
	// All Docker containers carry /.dockerenv.
	_, err := os.Stat("/.dockerenv")
	return err == nil
})

// IsRunningInDocker reports whether the process is inside a Docker container.
// The result is computed once and cached.
func IsRunningInDocker() bool {
	return dockerCheck()
}

// ResolveHostForDocker maps loopback hosts to host.docker.internal when
// running inside Docker, so connections reach services on the host machine.
// Outside Docker, and for any non-loopback host, the input is returned
// unchanged.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}
