package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/reverso/pkg/errors"
)

// Mocked for unit testing.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// HandleFatalError handles errors that are severe enough to terminate the
// program.
func HandleFatalError(err error) {
	fmt.Fprintln(stderr, errors.GetPrintableMessage(err))
	log.WithError(err).Debug("Fatal error")
	exit(1)
}

// HandlePanic logs panics before re-raising them so that the stack trace
// makes it into the log file.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Errorf("Panic: %v", r)
		panic(r)
	}
}
