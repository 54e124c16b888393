// Package assets holds files compiled into the binary.
package assets

import (
	"embed"
)

//go:embed defaults.yaml
var FS embed.FS

// Defaults returns the built-in configuration document.
func Defaults() ([]byte, error) {
	return FS.ReadFile("defaults.yaml")
}
