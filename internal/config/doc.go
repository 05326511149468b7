// Package config loads the client configuration from a YAML file whose path
// comes from TODOLIST_CONFIG. Every field has a default, so a missing file
// yields a usable networked configuration.
package config
