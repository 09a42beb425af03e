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

package buildconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

const CMakeLists = "CMakeLists.txt"

// FindRepoRoot walks up from start (a file or a directory) to the first
// directory holding CMakeLists.txt. Without one it returns the starting
// directory.
func FindRepoRoot(start string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		glog.Warningf("filepath.Abs %s: %v", start, err)
		abs = start
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	for dir := abs; ; {
		if _, err := os.Stat(filepath.Join(dir, CMakeLists)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		dir = parent
	}
}

// CMakeListsPath returns the build configuration of repoRoot, or false when
// there is none.
func CMakeListsPath(repoRoot string) (string, bool) {
	path := filepath.Join(repoRoot, CMakeLists)
	if _, err := os.Stat(path); err != nil {
		return path, false
	}
	return path, true
}

// MissingFlags lists the required flags that do not occur anywhere in the
// build configuration text. Presence is a plain substring test.
func MissingFlags(path string, required []string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", path, err)
	}
	text := string(content)
	missing := []string{}
	for _, flag := range required {
		if !strings.Contains(text, flag) {
			missing = append(missing, flag)
		}
	}
	return missing, nil
}
