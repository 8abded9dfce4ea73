// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the resolved vault-scoped settings. All fields are
// populated; LoadConfig merges the optional intray.yaml over
// DefaultConfig.
type Config struct {
	// MaxFileBytes is the size ceiling for inbox files. Oversized
	// files are rejected with an error record instead of becoming
	// tasks.
	MaxFileBytes int64

	// DebounceWindow suppresses duplicate notifications for the same
	// path. A second notification inside the window is dropped.
	DebounceWindow time.Duration

	// RetryAttempts is the total number of task-creation attempts for
	// transient failures.
	RetryAttempts int

	// RetryDelay is the fixed pause between creation attempts.
	RetryDelay time.Duration

	// AllowedExtensions is the lowercase extension allow-list
	// (including the leading dot). Files outside the list are skipped
	// silently.
	AllowedExtensions []string
}

// configFile is the yaml wire form. Durations are strings ("2s") and
// numeric fields are pointers so an absent key is distinguishable from
// an explicit zero.
type configFile struct {
	MaxFileSizeMB     *int     `yaml:"max_file_size_mb"`
	DebounceWindow    string   `yaml:"debounce_window"`
	RetryAttempts     *int     `yaml:"retry_attempts"`
	RetryDelay        string   `yaml:"retry_delay"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// DefaultConfig returns the built-in settings. These are the complete
// working configuration; intray.yaml only overrides.
func DefaultConfig() Config {
	return Config{
		MaxFileBytes:   10 << 20,
		DebounceWindow: 1 * time.Second,
		RetryAttempts:  3,
		RetryDelay:     2 * time.Second,
		AllowedExtensions: []string{
			".txt", ".md", ".pdf", ".png", ".jpg", ".jpeg",
		},
	}
}

// LoadConfig reads the vault's intray.yaml if present and merges it
// over the defaults. A missing file is not an error; the defaults are
// the configuration. A present but unparseable or invalid file is an
// error: silently ignoring a typoed config would be worse than failing.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if file.MaxFileSizeMB != nil {
		config.MaxFileBytes = int64(*file.MaxFileSizeMB) << 20
	}
	if file.DebounceWindow != "" {
		window, err := time.ParseDuration(file.DebounceWindow)
		if err != nil {
			return Config{}, fmt.Errorf("parsing debounce_window: %w", err)
		}
		config.DebounceWindow = window
	}
	if file.RetryAttempts != nil {
		config.RetryAttempts = *file.RetryAttempts
	}
	if file.RetryDelay != "" {
		delay, err := time.ParseDuration(file.RetryDelay)
		if err != nil {
			return Config{}, fmt.Errorf("parsing retry_delay: %w", err)
		}
		config.RetryDelay = delay
	}
	if len(file.AllowedExtensions) > 0 {
		config.AllowedExtensions = normalizeExtensions(file.AllowedExtensions)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error

	if c.MaxFileBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_file_size_mb must be positive"))
	}
	if c.DebounceWindow < 0 {
		errs = append(errs, fmt.Errorf("debounce_window must not be negative"))
	}
	if c.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry_attempts must be at least 1"))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retry_delay must not be negative"))
	}
	if len(c.AllowedExtensions) == 0 {
		errs = append(errs, fmt.Errorf("allowed_extensions must not be empty"))
	}
	for _, extension := range c.AllowedExtensions {
		if !strings.HasPrefix(extension, ".") {
			errs = append(errs, fmt.Errorf("extension %q must start with a dot", extension))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ExtensionAllowed reports whether the given extension (with leading
// dot, any case) is on the allow-list.
func (c Config) ExtensionAllowed(extension string) bool {
	lowered := strings.ToLower(extension)
	for _, allowed := range c.AllowedExtensions {
		if lowered == allowed {
			return true
		}
	}
	return false
}

// normalizeExtensions lowercases entries and adds a missing leading
// dot, so "TXT" in a hand-edited config still matches ".txt" files.
func normalizeExtensions(extensions []string) []string {
	normalized := make([]string, 0, len(extensions))
	for _, extension := range extensions {
		extension = strings.ToLower(strings.TrimSpace(extension))
		if extension == "" {
			continue
		}
		if !strings.HasPrefix(extension, ".") {
			extension = "." + extension
		}
		normalized = append(normalized, extension)
	}
	return normalized
}
