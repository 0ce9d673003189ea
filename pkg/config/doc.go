// Package config loads typed configuration from environment variables.
//
// A .env file in the working directory is read once, then env.Parse fills the
// struct from its `env` tags. Load caches the result per type, so every
// package can ask for its own config struct without parsing twice.
package config
