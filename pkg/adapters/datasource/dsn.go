package datasource

import (
	"net/url"

	"github.com/vantagebi/vantage-engine/pkg/config"
)

// ResolveDSNHost rewrites the host of a URL-form DSN for Docker: a localhost
// target becomes host.docker.internal when the service itself runs in a
// container, so templates can execute against databases on the host machine.
// Non-URL DSNs (SQLite file paths, key=value strings) pass through unchanged.
func ResolveDSNHost(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return dsn
	}

	host := u.Hostname()
	resolved := config.ResolveHostForDocker(host)
	if resolved == host {
		return dsn
	}

	if port := u.Port(); port != "" {
		u.Host = resolved + ":" + port
	} else {
		u.Host = resolved
	}
	return u.String()
}
