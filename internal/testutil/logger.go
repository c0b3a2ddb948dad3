// Package testutil provides utilities for testing
package testutil

import (
	"github.com/johnrirwin/bizregistry/internal/logging"
)

// NullLogger returns a logger that discards all output
func NullLogger() *logging.Logger {
	return logging.NewNop()
}
