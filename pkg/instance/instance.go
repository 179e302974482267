package instance

import (
	"os"

	"github.com/angelmondragon/staffstore-backend/pkg/env"
)

// ID identifies this process in logs: INSTANCE_ID, then DYNO, then the hostname.
func ID() string {
	if id := env.First("INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
