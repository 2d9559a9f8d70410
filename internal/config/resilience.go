package config

import (
	"time"

	"sheet_geocoder/internal/retry"
)

// ResilienceConfig holds retry policies for the calls that are allowed to
// retry. Geocoding lookups and the sheet write are deliberately absent: a
// failed lookup becomes a sentinel and a failed write ends the run.
type ResilienceConfig struct {
	Notification retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	Notification: retry.Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    10 * time.Second,
	},
}
