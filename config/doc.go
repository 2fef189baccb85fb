// Package config loads pipestudio configuration.
//
// Values come from a YAML file, an optional .env file and PIPESTUDIO_*
// environment variables, in increasing order of precedence. Viper does the
// merging; the loader only decides which files to read.
//
// # Usage
//
//	var cfg config.Studio
//	if err := config.LoadConfig("pipestudio", &cfg, config.WithDefaults(config.StudioDefaults())); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Environment variables map onto nested keys by splitting on underscores,
// so PIPESTUDIO_PREVIEW_POLL_INTERVAL sets preview.poll_interval.
package config
