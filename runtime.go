package main

import (
	"io"

	log "github.com/sirupsen/logrus"

	"netsyncstat/pkg/clock"
)

// Runtime carries the process-level collaborators of a run.
type Runtime struct {
	Clock  clock.Clock
	Stdout io.Writer // progress lines and the summary
	Log    *log.Entry
}
