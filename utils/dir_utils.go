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

package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// CreateResultDir makes sure resultsDir exists and is a directory.
func CreateResultDir(resultsDir string) error {
	info, err := os.Stat(resultsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(resultsDir, os.ModePerm)
		}
		return err
	}
	if !info.IsDir() {
		// a file exists instead of dir
		return fmt.Errorf("%s: %w", resultsDir, os.ErrExist)
	}
	return nil
}

// RemoveFiles deletes the named entries of dir. Missing entries are fine.
func RemoveFiles(dir string, names []string) error {
	for _, name := range names {
		path := filepath.Join(dir, name)
		err := os.Remove(path)
		if err == nil {
			glog.Infof("removed %s", path)
			continue
		}
		if !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// ResolveBinaryPath checks that binPath names an existing executable. An
// absolute path is used as is, a path with a separator is made absolute,
// and a bare name is looked up in path, a PATH style list. An empty path
// list means the process PATH.
func ResolveBinaryPath(binPath, path string) (string, error) {
	if filepath.IsAbs(binPath) {
		if _, err := os.Stat(binPath); err != nil {
			return binPath, fmt.Errorf("when resolving %s, os.Stat failed: %v", binPath, err)
		}
		return binPath, nil
	}
	// exec.LookPath will silently allow relative path, so we manually check it.
	if strings.Contains(binPath, string(filepath.Separator)) {
		absBinPath, err := filepath.Abs(binPath)
		if err != nil {
			return binPath, fmt.Errorf("when resolving %s, failed to convert to abs path: %v", binPath, err)
		}
		if _, err := os.Stat(absBinPath); err != nil {
			return absBinPath, fmt.Errorf("when resolving %s, os.Stat failed: %v", binPath, err)
		}
		return absBinPath, nil
	}
	if path == "" {
		if _, err := exec.LookPath(binPath); err != nil {
			return binPath, fmt.Errorf("when resolving %s, not found in $PATH: %v", binPath, err)
		}
		return binPath, nil
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, binPath)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}
	return binPath, fmt.Errorf("when resolving %s, not found in %s", binPath, path)
}

// PathFromEnv returns the PATH value of an environment list.
func PathFromEnv(env []string) string {
	path := ""
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			path = strings.TrimPrefix(kv, "PATH=")
		}
	}
	return path
}
