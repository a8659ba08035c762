// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
// the default .env file is loaded once per process, then env-tagged
// structs are parsed and cached by type so repeated Load calls for the
// same configuration type are cheap and consistent.
//
//	var cfg delivery.BrokerConfig
//	config.MustLoad(&cfg)
package config
