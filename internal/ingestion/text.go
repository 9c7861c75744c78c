// Package ingestion reads interview write-ups from files, stdin or web pages
// and normalizes their text before analysis.
package ingestion

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLines = regexp.MustCompile(`\n\n\n+`)
)

// CleanText normalizes line endings and spacing while keeping the line
// structure the segmenter depends on.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, cleanLine(line))
	}

	result := strings.Join(cleaned, "\n")
	result = blankLines.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine collapses runs of spaces. Bullet lines keep their indentation.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	if isBulletLine(trimmed) {
		indent := len(line) - len(trimmed)
		return strings.Repeat(" ", indent) + spaceRun.ReplaceAllString(trimmed, " ")
	}
	return spaceRun.ReplaceAllString(trimmed, " ")
}

func isBulletLine(trimmed string) bool {
	for _, prefix := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// FromReader reads and cleans everything from r. source names r in metadata.
func FromReader(r io.Reader, source string) (string, *Metadata, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	cleaned := CleanText(string(content))
	meta := NewMetadata(cleaned, source)
	return cleaned, meta, nil
}

// FromFile reads a text file and cleans it.
func FromFile(path string) (string, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return FromReader(f, path)
}
