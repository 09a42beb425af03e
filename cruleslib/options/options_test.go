/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package options

import (
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rulecheck.yaml")
	content := `
entry_point: app_main
thresholds:
  max_complexity: 15
cppcheck:
  bin: /opt/cppcheck/cppcheck
  extra_args: --check-level=exhaustive "--suppress=knownConditionTrueFalse"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EntryPoint != "app_main" {
		t.Errorf("unexpected entry point %q", cfg.EntryPoint)
	}
	if cfg.Thresholds.MaxComplexity != 15 || cfg.Thresholds.MaxFunctionLines != 60 {
		t.Errorf("unexpected thresholds %+v", cfg.Thresholds)
	}
	args, err := cfg.CppcheckExtraArgs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"--check-level=exhaustive", "--suppress=knownConditionTrueFalse"}
	if !reflect.DeepEqual(args, expected) {
		t.Errorf("unexpected args. got: %v, expected: %v", args, expected)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rulecheck.yaml")
	if err := os.WriteFile(path, []byte("max_complexity: 3\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected an error for a misplaced key")
	}
}

func TestValidate(t *testing.T) {
	for _, testCase := range [...]struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"extension without dot", func(c *Config) { c.Extensions = []string{"c"} }, false},
		{"zero complexity", func(c *Config) { c.Thresholds.MaxComplexity = 0 }, false},
		{"unknown lang", func(c *Config) { c.Lang = "fr" }, false},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := Default()
			testCase.modify(cfg)
			err := cfg.Validate()
			if (err == nil) != testCase.valid {
				t.Errorf("unexpected validation result: %v", err)
			}
		})
	}
}

func TestToolEnvPrependsExtraPath(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	cfg := Default()
	cfg.Cppcheck.ExtraPath = []string{"/opt/mingw/bin"}
	found := false
	for _, kv := range cfg.ToolEnv() {
		if strings.HasPrefix(kv, "PATH=") {
			found = true
			expected := "PATH=/opt/mingw/bin" + string(os.PathListSeparator) + "/usr/bin"
			if kv != expected {
				t.Errorf("unexpected PATH. got: %v, expected: %v", kv, expected)
			}
		}
	}
	if !found {
		t.Errorf("PATH missing from tool env")
	}
	if os.Getenv("PATH") != "/usr/bin" {
		t.Errorf("process PATH was modified")
	}
}

func TestApplyFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	shared := NewSharedOptionsOn(fs)
	if err := fs.Parse([]string{"-results_dir", "/tmp/out", "-ignore_dir", "**/mock/**", "-lang", "zh"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := Default()
	shared.Apply(cfg)
	if cfg.ResultsDir != "/tmp/out" || cfg.Lang != "zh" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.IgnorePatterns, []string{"**/mock/**"}) {
		t.Errorf("unexpected ignore patterns %v", cfg.IgnorePatterns)
	}
	if got := cfg.ResolveResultsDir("/repo"); got != "/tmp/out" {
		t.Errorf("unexpected results dir %v", got)
	}
	if got := Default().ResolveResultsDir("/repo"); got != filepath.Join("/repo", "toolchain", "results") {
		t.Errorf("unexpected default results dir %v", got)
	}
}
