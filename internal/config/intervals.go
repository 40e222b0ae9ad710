package config

import "time"

// Request and shutdown bounds
const (
	// ShutdownTimeout bounds the final flush and HTTP drain on exit
	ShutdownTimeout = 15 * time.Second

	// ReadHeaderTimeout protects the API from slow clients
	ReadHeaderTimeout = 5 * time.Second
)
