package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadList reads a newline-delimited list file. Each line is trimmed and
// blank lines are dropped; there is no comment or quoting syntax.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open list %s: %w", path, err)
	}
	defer f.Close()

	var items []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", path, err)
	}

	return items, nil
}
