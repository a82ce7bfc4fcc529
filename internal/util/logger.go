package util

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// InitLogger configures the shared logger. Debug mode also reports the caller.
func InitLogger(debug bool) {
	Log.SetOutput(os.Stdout)
	if debug {
		Log.SetLevel(logrus.DebugLevel)
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				s := strings.Split(f.Function, ".")
				funcname := s[len(s)-1]
				filename := filepath.Base(f.File)
				return funcname, " [" + filename + ":" + strconv.Itoa(f.Line) + "]"
			},
		})
		Log.SetReportCaller(true)
		Log.Debug("Debug logging enabled")
	} else {
		Log.SetLevel(logrus.InfoLevel)
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		Log.SetReportCaller(false)
	}
}

// SplitLines splits captured tool output into trimmed, non-empty lines.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// LogLines emits every line of text as its own entry at the given level.
func LogLines(level logrus.Level, text string) {
	for _, line := range SplitLines(text) {
		Log.Log(level, line)
	}
}
