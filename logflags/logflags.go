// Package logflags configures the loggers used by the conformance
// harness.
package logflags

import (
	"errors"
	"io/ioutil"
	"log"
	"os"
	"strings"

	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var tracer = false
var check = false

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Formatter = &logrus.TextFormatter{
		ForceColors: isatty.IsTerminal(os.Stderr.Fd()),
	}
	logger.Logger.Out = colorable.NewColorableStderr()
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	return logger
}

// Tracer returns true if the proc layer should log ptrace-level
// events.
func Tracer() bool {
	return tracer
}

// TracerLogger returns a logger for the proc layer.
func TracerLogger() *logrus.Entry {
	return makeLogger(tracer, logrus.Fields{"layer": "tracer"})
}

// Check returns true if checkpoint verification should log.
func Check() bool {
	return check
}

// CheckLogger returns a logger for checkpoint verification.
func CheckLogger() *logrus.Entry {
	return makeLogger(check, logrus.Fields{"layer": "check"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup enables log outputs based on the contents of logstr.
func Setup(logFlag bool, logstr string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(ioutil.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "check"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "tracer":
			tracer = true
		case "check":
			check = true
		}
	}
	return nil
}
