package store

import (
	"bufio"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter returns the YAML block between a leading pair of "---"
// lines. ok is false when the document has no frontmatter.
func splitFrontmatter(text string) (block string, ok bool, err error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "---" {
		return "", false, nil
	}

	var b strings.Builder
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "---" {
			return b.String(), true, nil
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", false, err
	}
	return "", false, fmt.Errorf("unterminated frontmatter")
}

// parseFrontmatter decodes the frontmatter of text. A document without
// frontmatter yields a nil map.
func parseFrontmatter(text string) (map[string]any, error) {
	block, ok, err := splitFrontmatter(text)
	if err != nil || !ok {
		return nil, err
	}
	fm := make(map[string]any)
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	return fm, nil
}
