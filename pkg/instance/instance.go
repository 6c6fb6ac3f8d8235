package instance

import (
	"os"
	"strings"
)

const defaultID = "local"

// GetID returns the process instance identifier. DYNO wins over WORKER_ID so
// dyno-managed deployments keep their own naming.
func GetID() string {
	for _, key := range []string{"DYNO", "WORKER_ID"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return defaultID
}
