// Package config loads and validates tracker configuration from YAML.
//
// Config files may reference environment variables with ${VAR} syntax;
// they are expanded before parsing. Optional fields fall back to the
// defaults in defaults.go.
package config
