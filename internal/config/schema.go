// Package config handles YAML settings loading, environment variable
// expansion, and validation for niftypool.
package config

import (
	"fmt"
	"net/url"
)

// Settings is the top-level configuration structure (niftypool.yaml).
// Flags override these values; the file supplies defaults per install.
type Settings struct {
	// Session is the default session name used when --session is not given.
	Session string `yaml:"session"`

	// IntervalMinutes is the base pause between join attempts.
	IntervalMinutes float64 `yaml:"interval_minutes"`

	// Randomize jitters each pause by ±20%. On by default; Load seeds it
	// before parsing so the file can disable it.
	Randomize bool `yaml:"randomize"`

	// LinksFile is the default invite-link list.
	LinksFile string `yaml:"links_file"`

	// ResultsDir receives the timestamped JSON result exports.
	ResultsDir string `yaml:"results_dir"`

	// LogDir receives the timestamped run logs.
	LogDir string `yaml:"log_dir"`

	// DataDir holds the credentials file and the join history database.
	DataDir string `yaml:"data_dir"`

	// GatewayURL is the base URL of the account-API gateway.
	GatewayURL string `yaml:"gateway_url"`

	// LicenseServer is the base URL of the license server (optional).
	LicenseServer string `yaml:"license_server,omitempty"`

	// Schedule is the cron expression used by the schedule command.
	Schedule string `yaml:"schedule,omitempty"`
}

// Defaults applies default values to unset fields.
func (s *Settings) Defaults() {
	if s.Session == "" {
		s.Session = "niftypool"
	}
	if s.IntervalMinutes == 0 {
		s.IntervalMinutes = 5.0
	}
	if s.LinksFile == "" {
		s.LinksFile = "links.txt"
	}
	if s.ResultsDir == "" {
		s.ResultsDir = "results"
	}
	if s.LogDir == "" {
		s.LogDir = "logs"
	}
	if s.DataDir == "" {
		s.DataDir = "config"
	}
	if s.GatewayURL == "" {
		s.GatewayURL = "http://127.0.0.1:8552"
	}
}

// Validate checks field constraints after defaults have been applied.
func (s *Settings) Validate() error {
	if s.IntervalMinutes < 0 {
		return fmt.Errorf("config: interval_minutes must be >= 0, got %g", s.IntervalMinutes)
	}

	for name, raw := range map[string]string{
		"gateway_url":    s.GatewayURL,
		"license_server": s.LicenseServer,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config: %s must be a valid http/https URL, got %q", name, raw)
		}
	}

	return nil
}
