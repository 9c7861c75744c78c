// Package schemas holds the JSON Schemas for the term configuration and the persisted record.
package schemas

import (
	"embed"
	"fmt"
)

// Schema file names.
const (
	Terms               = "terms.schema.json"
	ProcessedExperience = "processed_experience.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Load returns the content of an embedded schema file.
func Load(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read schema %s: %w", name, err)
	}
	return string(data), nil
}

// Names lists the embedded schema files.
func Names() []string {
	return []string{Terms, ProcessedExperience}
}
