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

package heuristics

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/golang/glog"
	"naive.systems/rulecheck/checker_integration/buildconfig"
	"naive.systems/rulecheck/checker_integration/buildlog"
	"naive.systems/rulecheck/checker_integration/cppcheck"
	"naive.systems/rulecheck/cruleslib/findings"
)

// BuildFlagsCheck requires every flag to appear in the repository's
// CMakeLists.txt. Without a build configuration the check is skipped.
type BuildFlagsCheck struct {
	Flags []string
}

func (c BuildFlagsCheck) Scan(env *Env) (*findings.Outcome, error) {
	path, ok := buildconfig.CMakeListsPath(env.RepoRoot)
	if !ok {
		return findings.Skip("%s not found in %s", buildconfig.CMakeLists, env.RepoRoot), nil
	}
	missing, err := buildconfig.MissingFlags(path, c.Flags)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return findings.Found(nil), nil
	}
	return findings.Found([]findings.Finding{{
		Path:    path,
		Line:    1,
		Message: "Missing flags: " + strings.Join(missing, ", "),
	}}), nil
}

// BuildLogCheck fails when the newest build log mentions a warning.
type BuildLogCheck struct{}

func (BuildLogCheck) Scan(env *Env) (*findings.Outcome, error) {
	path, ok := buildlog.Latest(env.ResultsDir)
	if !ok {
		return findings.Skip("no build log in %s", env.ResultsDir), nil
	}
	warned, err := buildlog.HasWarnings(path)
	if err != nil {
		return nil, err
	}
	if !warned {
		return findings.Found(nil), nil
	}
	return findings.Found([]findings.Finding{{Path: path, Line: 1, Message: "Warnings found in build log"}}), nil
}

func cppcheckReports(env *Env) ([]string, *findings.Outcome) {
	reports := cppcheck.FindReports(env.ResultsDir)
	if len(reports) == 0 {
		return nil, findings.Skip("no cppcheck report in %s", env.ResultsDir)
	}
	return reports, nil
}

// ReportPresentCheck only asks for a cppcheck report to exist.
type ReportPresentCheck struct{}

func (ReportPresentCheck) Scan(env *Env) (*findings.Outcome, error) {
	if _, skipped := cppcheckReports(env); skipped != nil {
		return skipped, nil
	}
	return findings.Found(nil), nil
}

// ReportErrorsCheck reports every cppcheck issue whose severity is not
// information. A report that does not parse fails as a whole when it holds
// any error element.
type ReportErrorsCheck struct{}

func (ReportErrorsCheck) Scan(env *Env) (*findings.Outcome, error) {
	reports, skipped := cppcheckReports(env)
	if skipped != nil {
		return skipped, nil
	}
	list := []findings.Finding{}
	for _, path := range reports {
		report, err := cppcheck.ReadReport(path)
		if err != nil {
			glog.Warningf("falling back to raw scan: %v", err)
			text, err := readRaw(path)
			if err != nil {
				return nil, err
			}
			if strings.Contains(text, "<error") {
				list = append(list, findings.Finding{Path: path, Line: 1, Message: "Cppcheck reported issues"})
			}
			continue
		}
		for _, issue := range report.Issues(path) {
			if issue.Severity == "information" {
				continue
			}
			list = append(list, findings.Finding{
				Path:    issue.File,
				Line:    issue.Line,
				Message: fmt.Sprintf("[%s] %s: %s", issue.Severity, issue.Id, issue.Msg),
			})
		}
	}
	return findings.Found(list), nil
}

// ReportPatternCheck searches the raw text of every cppcheck report. Each
// pattern matching a report yields one finding on that report.
type ReportPatternCheck struct {
	Patterns []string
}

func (c ReportPatternCheck) Scan(env *Env) (*findings.Outcome, error) {
	res := make([]*regexp.Regexp, 0, len(c.Patterns))
	for _, p := range c.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %v", p, err)
		}
		res = append(res, re)
	}
	reports, skipped := cppcheckReports(env)
	if skipped != nil {
		return skipped, nil
	}
	list := []findings.Finding{}
	for _, path := range reports {
		text, err := readRaw(path)
		if err != nil {
			return nil, err
		}
		for i, re := range res {
			if re.MatchString(text) {
				list = append(list, findings.Finding{Path: path, Line: 1, Message: "Matched cppcheck pattern: " + c.Patterns[i]})
			}
		}
	}
	return findings.Found(list), nil
}

func readRaw(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %v", path, err)
	}
	return strings.ToValidUTF8(string(content), ""), nil
}
