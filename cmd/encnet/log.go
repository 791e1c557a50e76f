package main

import (
	"os"

	"github.com/op/go-logging"

	"github.com/joshlf/enc28j60/internal/errors"
)

const logFormat = "%{time:2006-01-02 15:04:05.000} [%{level:.4s}] %{module} %{shortfile} %{message}"

// initLog sends every module's log output to stderr at the given level.
func initLog(levelString string) error {
	level, err := logging.LogLevel(levelString)
	if err != nil {
		return errors.Annotate(err, "parse --log-level")
	}
	stderr := logging.AddModuleLevel(
		logging.NewBackendFormatter(
			logging.NewLogBackend(os.Stderr, "", 0),
			logging.MustStringFormatter(logFormat),
		),
	)
	stderr.SetLevel(level, "")
	logging.SetBackend(stderr)
	return nil
}
