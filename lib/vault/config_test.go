// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intray.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intray.yaml")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	defaults := DefaultConfig()
	if config.MaxFileBytes != defaults.MaxFileBytes {
		t.Errorf("MaxFileBytes = %d, want %d", config.MaxFileBytes, defaults.MaxFileBytes)
	}
	if config.DebounceWindow != 1*time.Second {
		t.Errorf("DebounceWindow = %v, want 1s", config.DebounceWindow)
	}
	if config.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want 3", config.RetryAttempts)
	}
	if config.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", config.RetryDelay)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
max_file_size_mb: 25
debounce_window: "500ms"
retry_attempts: 5
retry_delay: "1s"
allowed_extensions: [".txt", "MD"]
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if want := int64(25) << 20; config.MaxFileBytes != want {
		t.Errorf("MaxFileBytes = %d, want %d", config.MaxFileBytes, want)
	}
	if config.DebounceWindow != 500*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 500ms", config.DebounceWindow)
	}
	if config.RetryAttempts != 5 {
		t.Errorf("RetryAttempts = %d, want 5", config.RetryAttempts)
	}
	if config.RetryDelay != 1*time.Second {
		t.Errorf("RetryDelay = %v, want 1s", config.RetryDelay)
	}
	// "MD" is normalized to ".md".
	if len(config.AllowedExtensions) != 2 || config.AllowedExtensions[1] != ".md" {
		t.Errorf("AllowedExtensions = %v, want [.txt .md]", config.AllowedExtensions)
	}
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := writeConfig(t, "retry_attempts: 1\n")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.RetryAttempts != 1 {
		t.Errorf("RetryAttempts = %d, want 1", config.RetryAttempts)
	}
	// Untouched fields keep their defaults.
	if config.DebounceWindow != 1*time.Second {
		t.Errorf("DebounceWindow = %v, want default 1s", config.DebounceWindow)
	}
	if len(config.AllowedExtensions) != 6 {
		t.Errorf("AllowedExtensions = %v, want the 6 defaults", config.AllowedExtensions)
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "max_file_size_mb: [not a number\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig should fail on malformed yaml")
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := writeConfig(t, `debounce_window: "soon"`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig should fail on an unparseable duration")
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero size", "max_file_size_mb: 0\n"},
		{"zero attempts", "retry_attempts: 0\n"},
		{"negative delay", `retry_delay: "-1s"`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, c.content)
			if _, err := LoadConfig(path); err == nil {
				t.Fatalf("LoadConfig should reject %s", c.name)
			}
		})
	}
}

func TestExtensionAllowed(t *testing.T) {
	config := DefaultConfig()

	cases := []struct {
		extension string
		want      bool
	}{
		{".txt", true},
		{".TXT", true},
		{".Md", true},
		{".jpeg", true},
		{".exe", false},
		{".tmp", false},
		{"", false},
	}
	for _, c := range cases {
		if got := config.ExtensionAllowed(c.extension); got != c.want {
			t.Errorf("ExtensionAllowed(%q) = %v, want %v", c.extension, got, c.want)
		}
	}
}
