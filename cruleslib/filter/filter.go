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

/*
This package should not import any packages of other analyzers to
avoid recursive import.
*/
package filter

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/diff"
)

// ProcessIgnorePatterns drops findings whose path, taken relative to root
// when possible, matches one of the doublestar patterns. A malformed
// pattern is logged and ignored.
func ProcessIgnorePatterns(list []findings.Finding, root string, patterns []string) []findings.Finding {
	for _, pattern := range patterns {
		kept := []findings.Finding{}
		for _, f := range list {
			matched, err := matchPath(pattern, root, f.Path)
			if err != nil {
				glog.Error("malformed ignore pattern ", pattern)
				kept = list
				break
			}
			if matched {
				glog.Infof("Finding in path %s ignored due to pattern %s", f.Path, pattern)
				continue
			}
			kept = append(kept, f)
		}
		list = kept
	}
	return list
}

func matchPath(pattern, root, path string) (bool, error) {
	candidates := []string{filepath.ToSlash(path)}
	if rel, err := filepath.Rel(root, path); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		candidates = append(candidates, filepath.ToSlash(rel))
	}
	for _, c := range candidates {
		matched, err := doublestar.Match(pattern, c)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// DeleteUnchangedFindings keeps findings on lines a diff touched. A nil
// changes set keeps everything.
func DeleteUnchangedFindings(list []findings.Finding, changes diff.ChangedLines) []findings.Finding {
	if changes == nil {
		return list
	}
	kept := []findings.Finding{}
	for _, f := range list {
		if changes.Contains(f.Path, f.Line) {
			kept = append(kept, f)
		}
	}
	return kept
}

// DeleteDuplicatedFindings keeps the first of identical findings.
func DeleteDuplicatedFindings(list []findings.Finding) []findings.Finding {
	set := findings.NewSet()
	set.AddAll(list)
	return set.List()
}

// DeleteExceedFindings caps the findings of one rule at maxReportNum after
// sorting them by location. Zero or less keeps all of them.
func DeleteExceedFindings(list []findings.Finding, maxReportNum int) []findings.Finding {
	sorted := findings.Sort(append([]findings.Finding(nil), list...))
	if maxReportNum > 0 && len(sorted) > maxReportNum {
		glog.Infof("%d findings dropped over max_report_num %d", len(sorted)-maxReportNum, maxReportNum)
	}
	return findings.Limit(sorted, maxReportNum)
}

// Apply runs every filter in a fixed order: ignore patterns, changed lines,
// duplicates, then the cap.
func Apply(list []findings.Finding, root string, ignorePatterns []string, changes diff.ChangedLines, maxReportNum int) []findings.Finding {
	list = ProcessIgnorePatterns(list, root, ignorePatterns)
	list = DeleteUnchangedFindings(list, changes)
	list = DeleteDuplicatedFindings(list)
	return DeleteExceedFindings(list, maxReportNum)
}
