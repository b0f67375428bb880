package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		// Each field is independently either unset or set.
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasServerURL") {
			cfg.ServerURL = nonEmptyString.Draw(t, "serverURL")
		}
		if rapid.Bool().Draw(t, "hasTimeout") {
			cfg.RequestTimeoutSeconds = rapid.IntRange(1, 300).Draw(t, "timeout")
		}
		if rapid.Bool().Draw(t, "hasWatchDir") {
			cfg.WatchDir = nonEmptyString.Draw(t, "watchDir")
		}
		if rapid.Bool().Draw(t, "hasExportDir") {
			cfg.ExportDir = nonEmptyString.Draw(t, "exportDir")
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "ServerURL", global.ServerURL, project.ServerURL, defaults.ServerURL, merged.ServerURL)
		checkStringField(t, "WatchDir", global.WatchDir, project.WatchDir, defaults.WatchDir, merged.WatchDir)
		checkStringField(t, "ExportDir", global.ExportDir, project.ExportDir, defaults.ExportDir, merged.ExportDir)

		wantTimeout := defaults.RequestTimeoutSeconds
		if global.RequestTimeoutSeconds > 0 {
			wantTimeout = global.RequestTimeoutSeconds
		}
		if project.RequestTimeoutSeconds > 0 {
			wantTimeout = project.RequestTimeoutSeconds
		}
		if merged.RequestTimeoutSeconds != wantTimeout {
			t.Errorf("RequestTimeoutSeconds = %d, want %d", merged.RequestTimeoutSeconds, wantTimeout)
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	want := defaultVal
	if globalVal != "" {
		want = globalVal
	}
	if projectVal != "" {
		want = projectVal
	}
	if mergedVal != want {
		t.Errorf("%s = %q, want %q (global %q, project %q)", name, mergedVal, want, globalVal, projectVal)
	}
}

func TestMergeNilInputsGiveDefaults(t *testing.T) {
	got := Merge(nil, nil)
	if got != Defaults() {
		t.Errorf("Merge(nil, nil) = %+v, want defaults", got)
	}
}

func TestLoadFileAbsent(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	cfg, err := loadFile(missing, true)
	if err != nil {
		t.Fatalf("loadFile with defaults: %v", err)
	}
	if cfg == nil || *cfg != Defaults() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}

	cfg, err = loadFile(missing, false)
	if err != nil || cfg != nil {
		t.Errorf("loadFile without defaults = (%+v, %v), want (nil, nil)", cfg, err)
	}
}

func TestLoadFileMalformedReturnsParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing malformed config: %v", err)
	}

	_, err := loadFile(path, true)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if perr.Path != path {
		t.Errorf("ParseError.Path = %q, want %q", perr.Path, path)
	}
}

func TestLoadFileReadsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server_url": "https://crops.example.com", "request_timeout_seconds": 10}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := loadFile(path, true)
	if err != nil {
		t.Fatalf("loadFile: %v", err)
	}
	if cfg.ServerURL != "https://crops.example.com" || cfg.RequestTimeoutSeconds != 10 {
		t.Errorf("cfg = %+v", cfg)
	}
}
