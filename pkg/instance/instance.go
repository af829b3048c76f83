package instance

import (
	"os"

	"github.com/praytees/storefront/pkg/env"
)

const fallbackID = "local"

// ID names the running process for logs. The platform's DYNO wins over
// STOREFRONT_INSTANCE_ID, then the hostname.
func ID() string {
	if id := env.First("DYNO", "STOREFRONT_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
