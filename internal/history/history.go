// Package history keeps a JSON-lines journal of runs under the state directory.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"bludgeon/internal/config"
	"bludgeon/internal/util"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event records one run against one WordPress install.
type Event struct {
	Timestamp        time.Time `json:"timestamp"`
	SitePath         string    `json:"sitePath"`
	Database         string    `json:"database"`
	Plugin           string    `json:"plugin"`
	WordPressVersion string    `json:"wordpressVersion,omitempty"`
	Outcome          string    `json:"outcome"`
	Error            string    `json:"error,omitempty"`
	DurationMs       int64     `json:"durationMs"`
}

func logFilePath(stateDir string) string {
	return filepath.Join(stateDir, config.HistoryFileName)
}

// Append writes event to the journal. Failures are logged, never returned.
func Append(stateDir string, event *Event) {
	path := logFilePath(stateDir)
	if err := os.MkdirAll(stateDir, 0750); err != nil {
		util.Log.Errorf("Failed to create state directory '%s': %v", stateDir, err)
		return
	}

	line, err := json.Marshal(event)
	if err != nil {
		util.Log.Errorf("Failed to marshal history event: %v", err)
		return
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		util.Log.Errorf("Failed to open history file '%s' for appending: %v", path, err)
		return
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			util.Log.Errorf("Failed to close history file '%s': %v", path, err)
		}
	}(file)

	if _, err := file.Write(append(line, '\n')); err != nil {
		util.Log.Errorf("Failed to write history event to '%s': %v", path, err)
		return
	}
	util.Log.Debugf("Recorded %s run for %s in %s", event.Outcome, event.SitePath, path)
}

// List returns recorded events newest first. outcome filters when non-empty;
// limit <= 0 returns everything.
func List(stateDir string, limit int, outcome string) ([]Event, error) {
	path := logFilePath(stateDir)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			util.Log.Debugf("History file '%s' not found, returning empty history.", path)
			return []Event{}, nil
		}
		return nil, fmt.Errorf("failed to open history file '%s': %w", path, err)
	}
	defer file.Close()

	events := []Event{}
	scanner := bufio.NewScanner(file)
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			util.Log.Warnf("Skipping malformed history line %d in '%s': %v", lineNumber, path, err)
			continue
		}
		if outcome != "" && event.Outcome != outcome {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading history file '%s': %w", path, err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
