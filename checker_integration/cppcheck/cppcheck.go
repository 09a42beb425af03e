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

package cppcheck

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/golang/glog"
	"naive.systems/rulecheck/atomic"
	"naive.systems/rulecheck/cruleslib/basic"
	"naive.systems/rulecheck/cruleslib/options"
	"naive.systems/rulecheck/utils"
)

const (
	XMLReportName  = "static_analysis.xml"
	TextReportName = "static_analysis.txt"
)

// Severities counted in the text summary. Anything else, information in
// particular, does not fail the analysis.
var CountedSeverities = []string{"error", "warning", "style", "performance", "portability"}

type CppCheckXMLLocation struct {
	File   string `xml:"file,attr"`
	Line   int    `xml:"line,attr"`
	Column string `xml:"column,attr"`
}

type CppCheckXMLError struct {
	Id        string                `xml:"id,attr"`
	Severity  string                `xml:"severity,attr"`
	Msg       string                `xml:"msg,attr"`
	Verbose   string                `xml:"verbose,attr"`
	Locations []CppCheckXMLLocation `xml:"location"`
}

type CppCheckXMLVersion struct {
	Version string `xml:"version,attr"`
}

type CppCheckXMLReport struct {
	Errors  []CppCheckXMLError `xml:"errors>error"`
	Version CppCheckXMLVersion `xml:"cppcheck"`
}

// Issue is one reported error with its primary location. Reports without a
// location point at the report file itself, line 1.
type Issue struct {
	Id       string
	Severity string
	Msg      string
	File     string
	Line     int
}

// FindReports lists the cppcheck reports of resultsDir: every cppcheck*.xml
// sorted by name, then static_analysis.xml.
func FindReports(resultsDir string) []string {
	matches, err := filepath.Glob(filepath.Join(resultsDir, "cppcheck*.xml"))
	if err != nil {
		glog.Errorf("filepath.Glob in %s: %v", resultsDir, err)
	}
	sort.Strings(matches)
	static := filepath.Join(resultsDir, XMLReportName)
	if info, err := os.Stat(static); err == nil && !info.IsDir() {
		matches = append(matches, static)
	}
	return matches
}

func ReadReport(path string) (*CppCheckXMLReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cppcheck report %s: %v", path, err)
	}
	report := &CppCheckXMLReport{}
	if err := xml.Unmarshal(content, report); err != nil {
		return nil, fmt.Errorf("xml.Unmarshal %s: %v", path, err)
	}
	return report, nil
}

// Issues flattens the report read from path.
func (r *CppCheckXMLReport) Issues(path string) []Issue {
	issues := make([]Issue, 0, len(r.Errors))
	for _, e := range r.Errors {
		issue := Issue{Id: e.Id, Severity: e.Severity, Msg: e.Msg, File: path, Line: 1}
		if len(e.Locations) > 0 && e.Locations[0].File != "" {
			issue.File = e.Locations[0].File
			if e.Locations[0].Line > 0 {
				issue.Line = e.Locations[0].Line
			}
		}
		issues = append(issues, issue)
	}
	return issues
}

// CountSeverities counts the errors of each counted severity.
func (r *CppCheckXMLReport) CountSeverities() map[string]int {
	counts := make(map[string]int, len(CountedSeverities))
	for _, s := range CountedSeverities {
		counts[s] = 0
	}
	for _, e := range r.Errors {
		if _, ok := counts[e.Severity]; ok {
			counts[e.Severity]++
		}
	}
	return counts
}

// BuildArgs returns the arguments of a full analysis of srcDir that writes
// its XML report to xmlPath.
func BuildArgs(cfg *options.Config, srcDir, xmlPath string) ([]string, error) {
	std := cfg.Cppcheck.Std
	if std == "" {
		std = "c++17"
	}
	args := []string{
		"--enable=all",
		"--std=" + std,
		"--inconclusive",
		"--inline-suppr",
		"--force",
		"--verbose",
		"-I" + srcDir,
	}
	for _, dir := range cfg.Cppcheck.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args,
		"--suppress=missingIncludeSystem",
		"--suppress=missingInclude",
		"--suppress=unusedFunction",
		"--suppress=unmatchedSuppression",
		"--suppress=checkersReport",
		"--error-exitcode=1",
		"--template=gcc",
		"--xml",
		"--xml-version=2",
		"--output-file="+xmlPath,
	)
	extra, err := cfg.CppcheckExtraArgs()
	if err != nil {
		return nil, err
	}
	args = append(args, extra...)
	return append(args, srcDir), nil
}

// ExecCppcheckBinary runs cppcheck in directory with env and returns its
// combined output. A nonzero exit caused by reported issues is not an error
// here; the caller reads the XML report.
func ExecCppcheckBinary(ctx context.Context, directory string, args []string, bin string, env []string, timeoutMinute int) (string, []byte, error) {
	cppcheckBin, err := utils.ResolveBinaryPath(bin, utils.PathFromEnv(env))
	if err != nil {
		return "", nil, fmt.Errorf("cppcheck not found: %v", err)
	}
	cmd := exec.Command(cppcheckBin, args...)
	cmd.Dir = directory
	cmd.Env = env
	glog.Info("executing: ", cmd.String())
	out, err := basic.CombinedOutput(ctx, cmd, "cppcheck", timeoutMinute)
	if exitError, ok := err.(*exec.ExitError); ok {
		glog.Infof("cppcheck exited with %d", exitError.ExitCode())
		return cmd.String(), out, nil
	}
	return cmd.String(), out, err
}

// Summary is the outcome of a static analysis run.
type Summary struct {
	XMLPath  string
	TextPath string
	Counts   map[string]int
}

// HasIssues reports whether any counted severity occurred.
func (s *Summary) HasIssues() bool {
	for _, n := range s.Counts {
		if n > 0 {
			return true
		}
	}
	return false
}

// StaticAnalysis runs cppcheck over srcDir, keeps the XML report as
// <resultsDir>/static_analysis.xml and writes a readable copy of the tool
// output with a per-severity summary next to it.
func StaticAnalysis(ctx context.Context, cfg *options.Config, workDir, srcDir, resultsDir string) (*Summary, error) {
	if err := utils.CreateResultDir(resultsDir); err != nil {
		return nil, fmt.Errorf("failed to create results dir %s: %v", resultsDir, err)
	}
	summary := &Summary{
		XMLPath:  filepath.Join(resultsDir, XMLReportName),
		TextPath: filepath.Join(resultsDir, TextReportName),
	}
	args, err := BuildArgs(cfg, srcDir, summary.XMLPath)
	if err != nil {
		return nil, err
	}
	command, out, err := ExecCppcheckBinary(ctx, workDir, args, cfg.Cppcheck.Bin, cfg.ToolEnv(), cfg.Cppcheck.TimeoutMinutes)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(textHeader(command, srcDir, time.Now()))
	b.Write(out)
	report, err := ReadReport(summary.XMLPath)
	if err != nil {
		glog.Errorf("failed to parse static analysis results: %v", err)
	} else {
		summary.Counts = report.CountSeverities()
		b.WriteString(textSummary(summary.Counts))
	}
	if err := atomic.WriteString(summary.TextPath, b.String()); err != nil {
		return nil, err
	}
	return summary, nil
}

var separator = strings.Repeat("=", 80)

func textHeader(command, srcDir string, now time.Time) string {
	lines := []string{
		separator,
		"STATIC ANALYSIS REPORT",
		separator,
		"Command: " + command,
		"Timestamp: " + now.Format(basic.TimestampLayout),
		"Source Directory: " + srcDir,
		"Analysis Level: Comprehensive",
		"",
		"This report contains static code analysis results using cppcheck with all",
		"checks enabled: errors, warnings, style, performance, and portability issues.",
		"Results are saved in both text and XML formats for review and CI integration.",
		separator,
		"",
		"",
	}
	return strings.Join(lines, "\n")
}

func textSummary(counts map[string]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n%s\nSUMMARY\n%s\n", separator, separator)
	fmt.Fprintf(&b, "Errors:       %d\n", counts["error"])
	fmt.Fprintf(&b, "Warnings:     %d\n", counts["warning"])
	fmt.Fprintf(&b, "Style:        %d\n", counts["style"])
	fmt.Fprintf(&b, "Performance:  %d\n", counts["performance"])
	fmt.Fprintf(&b, "Portability:  %d\n", counts["portability"])
	return b.String()
}
