package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnsureDir creates the directory and any missing parents
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// DateStamp formats a time as yyyymmdd in UTC
func DateStamp(t time.Time) string {
	return t.UTC().Format("20060102")
}

// ResultPaths returns the JSON summary path and the plain ID list path for a harvest run
func ResultPaths(outputDir, leagueSlug string, t time.Time) (string, string) {
	stamp := DateStamp(t)
	jsonPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.fixtures.json", leagueSlug, stamp))
	idsPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s_ids.txt", leagueSlug, stamp))
	return jsonPath, idsPath
}

// DiagnosticPaths returns the raw and repaired dump paths for a failed match parse
func DiagnosticPaths(outputDir string, matchID int64) (string, string) {
	rawPath := filepath.Join(outputDir, fmt.Sprintf("match_%d_raw.js", matchID))
	repairedPath := filepath.Join(outputDir, fmt.Sprintf("match_%d_repaired.json", matchID))
	return rawPath, repairedPath
}
