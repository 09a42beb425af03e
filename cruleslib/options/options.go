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
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Thresholds bound the numeric heuristics.
type Thresholds struct {
	MaxComplexity         int     `yaml:"max_complexity"`
	MaxFunctionLines      int     `yaml:"max_function_lines"`
	MaxStackBytes         int     `yaml:"max_stack_bytes"`
	MaxFileLines          int     `yaml:"max_file_lines"`
	MinAssertDensity      float64 `yaml:"min_assert_density"`
	MinAssertsPerFunction int     `yaml:"min_asserts_per_function"`
}

type CppcheckOptions struct {
	Bin string `yaml:"bin"`
	// ExtraPath is prepended to PATH of the cppcheck process only.
	ExtraPath      []string `yaml:"extra_path"`
	Std            string   `yaml:"std"`
	IncludeDirs    []string `yaml:"include_dirs"`
	ExtraArgs      string   `yaml:"extra_args"`
	TimeoutMinutes int      `yaml:"timeout_minutes"`
}

// Config is the whole run configuration. A YAML file supplies it; command
// line flags override single fields.
type Config struct {
	ResultsDir            string          `yaml:"results_dir"`
	Extensions            []string        `yaml:"extensions"`
	IgnorePatterns        []string        `yaml:"ignore_patterns"`
	RespectGitignore      bool            `yaml:"respect_gitignore"`
	Charset               string          `yaml:"charset"`
	EntryPoint            string          `yaml:"entry_point"`
	UnusedResultAllowlist []string        `yaml:"unused_result_allowlist"`
	RequirementTags       []string        `yaml:"requirement_tags"`
	MaxReportNum          int             `yaml:"max_report_num"`
	Lang                  string          `yaml:"lang"`
	Thresholds            Thresholds      `yaml:"thresholds"`
	Cppcheck              CppcheckOptions `yaml:"cppcheck"`
}

var DefaultExtensions = []string{".c", ".h", ".cpp", ".hpp"}

// Functions whose return value is conventionally discarded in the desk
// controller firmware.
var DefaultUnusedResultAllowlist = []string{
	"pinMode",
	"digitalWrite",
	"analogWrite",
	"init_inputs",
	"init_outputs",
	"transition_to",
	"handle_fault",
	"HAL_setMotorType",
	"HAL_setMotor",
	"HAL_setLED",
	"HAL_init",
}

func Default() *Config {
	return &Config{
		Extensions:            append([]string(nil), DefaultExtensions...),
		RespectGitignore:      false,
		Charset:               "utf-8",
		EntryPoint:            "main",
		UnusedResultAllowlist: append([]string(nil), DefaultUnusedResultAllowlist...),
		RequirementTags:       []string{"SWReq-", "SysReq-"},
		Lang:                  "en",
		Thresholds: Thresholds{
			MaxComplexity:         10,
			MaxFunctionLines:      60,
			MaxStackBytes:         512,
			MaxFileLines:          800,
			MinAssertDensity:      1.0,
			MinAssertsPerFunction: 2,
		},
		Cppcheck: CppcheckOptions{
			Bin:            "cppcheck",
			Std:            "c++17",
			TimeoutMinutes: 30,
		},
	}
}

// Load reads a YAML configuration on top of the defaults. An empty path
// returns the defaults unchanged. It does not log, so it may run before the
// log directory is known.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %v", path, err)
	}
	if err := yaml.UnmarshalStrict(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %v", path, err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	for _, ext := range c.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("invalid extension %q, expected a leading dot", ext)
		}
	}
	t := c.Thresholds
	if t.MaxComplexity < 1 || t.MaxFunctionLines < 1 || t.MaxStackBytes < 0 || t.MaxFileLines < 1 {
		return fmt.Errorf("thresholds must be positive: %+v", t)
	}
	if t.MinAssertDensity < 0 || t.MinAssertsPerFunction < 0 {
		return fmt.Errorf("assertion minimums must not be negative: %+v", t)
	}
	if c.Cppcheck.TimeoutMinutes < 0 {
		return fmt.Errorf("cppcheck.timeout_minutes must not be negative")
	}
	if _, ok := supportLangs[c.Lang]; !ok {
		return fmt.Errorf("unsupported lang: %v", c.Lang)
	}
	return nil
}
