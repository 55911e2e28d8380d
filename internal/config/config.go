package config

import "time"

// TrackerConfig is the root configuration for a tracker instance.
type TrackerConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Store    StoreConfig    `yaml:"store"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Report   ReportConfig   `yaml:"report"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this tracker.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds storefront API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	UserAgent  string        `yaml:"user_agent"`
	PageSize   int           `yaml:"page_size"`
	PageDelay  time.Duration `yaml:"page_delay"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend      string   `yaml:"backend"` // "json", "sqlite", or "postgres"
	DataDir      string   `yaml:"data_dir"`
	SQLitePath   string   `yaml:"sqlite_path"`
	Postgres     DBConfig `yaml:"postgres"`
	HistoryLimit int      `yaml:"history_limit"`
}

// DBConfig holds a PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ScheduleConfig holds daemon-mode settings.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ReportConfig holds report rendering settings.
type ReportConfig struct {
	ShowLimit int `yaml:"show_limit"` // Max rows per change type in console output
}

// HealthConfig holds the daemon health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
