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
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

var supportLangs = map[string]bool{"en": true, "zh": true}

// CppcheckExtraArgs splits the configured extra arguments the way a POSIX
// shell would.
func (c *Config) CppcheckExtraArgs() ([]string, error) {
	if strings.TrimSpace(c.Cppcheck.ExtraArgs) == "" {
		return nil, nil
	}
	args, err := shlex.Split(c.Cppcheck.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("shlex.Split %q: %v", c.Cppcheck.ExtraArgs, err)
	}
	return args, nil
}

// ToolEnv returns the environment for external tools. ExtraPath entries are
// prepended to PATH; the process environment itself is not modified.
func (c *Config) ToolEnv() []string {
	env := os.Environ()
	if len(c.Cppcheck.ExtraPath) == 0 {
		return env
	}
	prefix := strings.Join(c.Cppcheck.ExtraPath, string(os.PathListSeparator))
	out := make([]string, 0, len(env)+1)
	replaced := false
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			kv = "PATH=" + prefix + string(os.PathListSeparator) + strings.TrimPrefix(kv, "PATH=")
			replaced = true
		}
		out = append(out, kv)
	}
	if !replaced {
		out = append(out, "PATH="+prefix)
	}
	return out
}

// ResolveResultsDir returns the configured results directory, or
// <repoRoot>/toolchain/results when none was configured.
func (c *Config) ResolveResultsDir(repoRoot string) string {
	if c.ResultsDir != "" {
		return c.ResultsDir
	}
	return filepath.Join(repoRoot, "toolchain", "results")
}
