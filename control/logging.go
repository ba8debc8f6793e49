// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// Structured logging for the session/socket/pattern layers, backed by
// sirupsen/logrus — the ambient logging stack this core carries
// regardless of which socket patterns a given deployment exercises.

package control

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus.Logger with JSON output and the level read
// from the ZMTP_LOG_LEVEL environment variable, defaulting to info.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(os.Getenv("ZMTP_LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// ConnectionFields builds the structured fields every connection-scoped
// log line carries: socket type, remote endpoint, and connection id.
func ConnectionFields(socketType, endpoint string, connID uint64) logrus.Fields {
	return logrus.Fields{
		"socket_type": socketType,
		"endpoint":    endpoint,
		"conn_id":     connID,
	}
}
