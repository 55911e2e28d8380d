package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL      = "https://delli.market"
	DefaultPageSize     = 250
	DefaultPageDelay    = 500 * time.Millisecond
	DefaultAPITimeout   = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultBackend      = "json"
	DefaultDataDir      = "data"
	DefaultSQLitePath   = "data/tracker.db"
	DefaultHistoryLimit = 90
	DefaultDBPort       = 5432
	DefaultDBSSLMode    = "prefer"
	DefaultMaxConns     = 4
	DefaultMinConns     = 1
	DefaultInterval     = 24 * time.Hour
	DefaultShowLimit    = 10
	DefaultHealthPort   = 8080
)

func (c *TrackerConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.PageSize == 0 {
		c.API.PageSize = DefaultPageSize
	}
	if c.API.PageDelay == 0 {
		c.API.PageDelay = DefaultPageDelay
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Store defaults
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = DefaultDataDir
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = DefaultSQLitePath
	}
	if c.Store.HistoryLimit == 0 {
		c.Store.HistoryLimit = DefaultHistoryLimit
	}
	applyDBDefaults(&c.Store.Postgres)

	// Schedule defaults
	if c.Schedule.Interval == 0 {
		c.Schedule.Interval = DefaultInterval
	}

	// Report defaults
	if c.Report.ShowLimit == 0 {
		c.Report.ShowLimit = DefaultShowLimit
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
