// Package config loads and validates the strand CLI configuration file.
package config
