package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NullLogger discards everything logged to it. Intended for tests that exercise
// code paths which log but whose output is of no interest.
var NullLogger = newNullLogger()

func newNullLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
