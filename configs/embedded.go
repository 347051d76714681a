// Package configs provides embedded configuration files for link-preview.
package configs

import "embed"

// ExampleConfig is the name of the annotated default configuration
const ExampleConfig = "config.example.yaml"

// EmbeddedConfigs exposes embedded configuration files for read-only access.
//
//go:embed *.yaml
var EmbeddedConfigs embed.FS
