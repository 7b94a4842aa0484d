package ownership

import (
	"io"

	"github.com/charmbracelet/log"
)

// logger is silent until the application installs its own.
var logger = log.New(io.Discard)

// SetLogger replaces the package logger. A nil logger silences the package.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard)
	}
	logger = l
}

// Logger returns the package logger.
func Logger() *log.Logger { return logger }
