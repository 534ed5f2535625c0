package caqtipool

import (
	"io"
	"log"
	"os"
)

// logger is caqtipool's single log source. It is package-level rather
// than threaded through every call as an interface, since callers rarely
// need more than a single destination for pool warnings.
var logger = log.New(os.Stderr, "[caqtipool] ", log.LstdFlags)

// SetLogOutput redirects caqtipool's log output, primarily so tests can
// capture and assert on the warnings it emits (validator rejection,
// health-check rejection, alarm-scheduling overflow).
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}
