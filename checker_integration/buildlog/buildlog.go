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

package buildlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Log names written by the build step, in the order they are considered
// when modification times tie.
var LogNames = []string{"build.log", "build_log.txt", "build_warnings.log"}

const warningsLogName = "build_warnings.log"

// Lines starting with these (case-insensitively) are headers the build step
// writes itself and never compiler output.
var headerPrefixes = []string{
	"build log",
	"build warnings log",
	"command:",
	"timestamp:",
	"workspace:",
	"configuration:",
	"this log contains",
}

var warningPattern = regexp.MustCompile(`(?i)\bwarning\b`)

// Latest returns the most recently modified build log in resultsDir.
func Latest(resultsDir string) (string, bool) {
	var latest string
	var latestInfo os.FileInfo
	for _, name := range LogNames {
		path := filepath.Join(resultsDir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if latestInfo == nil || info.ModTime().After(latestInfo.ModTime()) {
			latest, latestInfo = path, info
		}
	}
	return latest, latestInfo != nil
}

// HasWarnings reports whether the log at path contains a compiler warning.
// A warnings-only log stating "no warnings detected" is clean.
func HasWarnings(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read build log %s: %v", path, err)
	}
	text := strings.ToValidUTF8(string(content), "")
	if filepath.Base(path) == warningsLogName && strings.Contains(strings.ToLower(text), "no warnings detected") {
		return false, nil
	}
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "=") || isHeader(line) {
			continue
		}
		if warningPattern.MatchString(line) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func isHeader(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range headerPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
