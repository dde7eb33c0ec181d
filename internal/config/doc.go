// Package config loads taxiway server configuration. Default() gives the
// built-in baseline, Load reads a JSON file over it, and FromEnv overlays
// TAXIWAY_* variables. LoadDotEnv pulls a .env file into the process
// environment first when one is present.
//
// Example:
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load("/etc/taxiway.json")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
