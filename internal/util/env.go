package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadEnvFile reads KEY=VALUE lines for a child process environment.
// Blank lines, comments and an optional "export " prefix are tolerated; a
// missing file yields no variables.
func LoadEnvFile(filePath string) ([]string, error) {
	if filePath == "" {
		return nil, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			Log.Warnf("Environment file not found at %s, continuing without it.", filePath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open env file %s: %w", filePath, err)
	}
	defer file.Close()

	var vars []string
	scanner := bufio.NewScanner(file)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			Log.Warnf("Skipping invalid line %d in env file %s", lineNumber, filePath)
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		vars = append(vars, key+"="+value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading env file %s: %w", filePath, err)
	}

	Log.Debugf("Loaded %d variables from %s", len(vars), filePath)
	return vars, nil
}
