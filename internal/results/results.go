// Package results holds per-link join outcomes and exports them.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Result records the terminal outcome of one join attempt. Write-once:
// the runner appends it and nothing mutates it afterwards.
type Result struct {
	Link        string    `json:"link"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	GroupName   string    `json:"group_name,omitempty"`
	MemberCount int       `json:"member_count,omitempty"`
	JoinTime    time.Time `json:"join_time"`
}

// Export writes the results as a JSON array to a timestamped file under
// dir and returns the file path. The directory is created if needed.
func Export(dir string, results []Result, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("results: create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("join_results_%s.json", now.Format("20060102_150405")))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("results: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("results: write %s: %w", path, err)
	}

	return path, nil
}
