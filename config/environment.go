package config

import (
	"os"
	"strconv"
	"time"
)

type Environment struct {
	IsDevelopment bool
	LogMode       string
	Auth0Domain   string
	Auth0Audience string
	// How often the background sweep finalizes expired sessions.
	SweepInterval time.Duration
}

var Env Environment

func init() {
	logMode := os.Getenv("LOG_MODE")
	isDev := logMode != "prod" && logMode != "production"

	sweep := 60 * time.Second
	if v := os.Getenv("SWEEP_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sweep = time.Duration(n) * time.Second
		}
	}

	Env = Environment{
		IsDevelopment: isDev,
		LogMode:       logMode,
		Auth0Domain:   os.Getenv("AUTH0_DOMAIN"),
		Auth0Audience: os.Getenv("AUTH0_AUDIENCE"),
		SweepInterval: sweep,
	}
}
