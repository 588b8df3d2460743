package metrics

import (
	"testing"
	"time"
)

// The observers must be no-ops before Init and safe after repeated Init.
func TestInitIdempotent(t *testing.T) {
	ObserveCrawl("nedrug", "done", time.Second)

	Init()
	Init()

	ObserveCrawl("nedrug", "done", 2*time.Second)
	ObserveFetch("hira_download", "2xx", 1024)
	ObserveNormalization("health", "medicine_data", 100, 2, 1)
	ObserveArtifact("hira_opendata")
}
