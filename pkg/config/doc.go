// Package config loads and validates the curator configuration.
//
// Configuration comes from a YAML file, optional .env files and CURATOR_*
// environment variables, in increasing order of precedence:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("curator.yaml", ".env")
//
// Environment variables follow the naming convention
// CURATOR_SECTION_FIELD, for example CURATOR_PLEX_BASE_URL or
// CURATOR_RULES_SCHEDULE.
//
// A Watcher reloads the file when it changes so schedules can be updated
// without a restart.
package config
