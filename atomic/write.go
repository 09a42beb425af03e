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

// Package atomic replaces result files in one step so that a reader (or an
// interrupted run) never observes a half-written rule log or summary.
package atomic

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write stores data under name via a sibling temp file and a rename. The
// parent directory is created when missing.
func Write(name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("os.MkdirAll: %v", err)
	}
	f, err := os.CreateTemp(dir, "tmp-*-"+filepath.Base(name))
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %v", err)
	}
	tmpName := f.Name()
	defer os.Remove(tmpName)
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return fmt.Errorf("chmod %s: %v", tmpName, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write to file %s: %v", tmpName, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		return fmt.Errorf("failed to rename file %s to %s: %v", tmpName, name, err)
	}
	return nil
}

func WriteString(name, content string) error {
	return Write(name, []byte(content))
}

// Remove deletes name and treats a missing file as success.
func Remove(name string) error {
	err := os.Remove(name)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %v", name, err)
	}
	return nil
}
