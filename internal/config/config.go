package config

import "time"

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultTokenTTL is how long an issued bearer token stays valid.
	DefaultTokenTTL = 24 * time.Hour

	// DefaultLogLevel is used when LOG_LEVEL is not set.
	DefaultLogLevel = "info"
)
