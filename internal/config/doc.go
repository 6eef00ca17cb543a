// Package config loads the selector CLI configuration from YAML or JSON files.
package config
