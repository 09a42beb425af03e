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
Package rulelog writes and reads the per-rule log records kept in the
results directory. A record is a header of "KEY: value" lines, a separator
line and the rule's own report:

	RULE_ID: RULE-001
	SCRIPT: heuristics.PatternCheck
	SRC_PATH: src
	STATUS: FAIL
	EXIT_CODE: 1
	TIMESTAMP: 2024-01-02 15:04:05
	================================================================================
	RULE: RULE-001 (R1.1)
	DESC: No goto statements
	STATUS: FAIL
	FINDINGS:
	- src/main.c:12: goto out;

Readers only rely on the first STATUS line and on "-" lines following
FINDINGS:, so records written by older tools still parse.
*/
package rulelog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"naive.systems/rulecheck/atomic"
	"naive.systems/rulecheck/cruleslib/basic"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/utils"
)

type Status string

const (
	Pass    Status = "PASS"
	Fail    Status = "FAIL"
	Skip    Status = "SKIP"
	NotRun  Status = "NOT_RUN"
	Unknown Status = "UNKNOWN"
)

// Exit codes of a single rule run.
const (
	ExitPass = 0
	ExitFail = 1
	ExitSkip = 2
)

var Separator = strings.Repeat("=", 80)

func StatusFromExitCode(code int) Status {
	switch code {
	case ExitPass:
		return Pass
	case ExitSkip:
		return Skip
	default:
		return Fail
	}
}

// ExitCode maps a status back to a process exit code. Anything that is
// neither PASS nor SKIP fails.
func (s Status) ExitCode() int {
	switch s {
	case Pass:
		return ExitPass
	case Skip:
		return ExitSkip
	default:
		return ExitFail
	}
}

// Failing reports whether s breaks a batch. SKIP does not.
func (s Status) Failing() bool {
	return s != Pass && s != Skip
}

// Record is everything written for one rule run.
type Record struct {
	RuleID      string
	Script      string
	SrcPath     string
	ExitCode    int
	Timestamp   time.Time
	OriginalID  string
	Description string
	Reason      string
	Findings    []findings.Finding
}

func (r *Record) Status() Status {
	return StatusFromExitCode(r.ExitCode)
}

func (r *Record) Render() string {
	var b strings.Builder
	status := r.Status()
	fmt.Fprintf(&b, "RULE_ID: %s\n", r.RuleID)
	fmt.Fprintf(&b, "SCRIPT: %s\n", r.Script)
	fmt.Fprintf(&b, "SRC_PATH: %s\n", r.SrcPath)
	fmt.Fprintf(&b, "STATUS: %s\n", status)
	fmt.Fprintf(&b, "EXIT_CODE: %d\n", r.ExitCode)
	fmt.Fprintf(&b, "TIMESTAMP: %s\n", r.Timestamp.Format(basic.TimestampLayout))
	b.WriteString(Separator + "\n")
	fmt.Fprintf(&b, "RULE: %s (%s)\n", r.RuleID, r.OriginalID)
	fmt.Fprintf(&b, "DESC: %s\n", r.Description)
	fmt.Fprintf(&b, "STATUS: %s\n", status)
	if r.Reason != "" {
		fmt.Fprintf(&b, "REASON: %s\n", oneLine(r.Reason))
	}
	if len(r.Findings) > 0 {
		b.WriteString("FINDINGS:\n")
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "- %s:%d: %s\n", f.Path, f.Line, oneLine(f.Message))
		}
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func FileName(id string) string {
	return id + ".log"
}

func Path(dir, id string) string {
	return filepath.Join(dir, FileName(id))
}

func Write(dir string, r *Record) error {
	path := Path(dir, r.RuleID)
	if err := atomic.WriteString(path, r.Render()); err != nil {
		return fmt.Errorf("failed to write %s: %v", path, err)
	}
	return nil
}

// Remove deletes the records of ids. Missing records are fine.
func Remove(dir string, ids []string) error {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, FileName(id))
	}
	return utils.RemoveFiles(dir, names)
}

// Result is what a reader recovers from a record.
type Result struct {
	ID        string
	Status    Status
	Instances int
	ExitCode  int
	Timestamp time.Time
	Reason    string
	Findings  []findings.Finding
}

var findingLine = regexp.MustCompile(`^- (.*?):(\d+): (.*)$`)

// Parse reads a record. Without a STATUS line the status is UNKNOWN.
func Parse(id, content string) Result {
	res := Result{ID: id, Status: Unknown, ExitCode: -1}
	statusSeen := false
	inFindings := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "STATUS:"):
			if !statusSeen {
				res.Status = Status(strings.TrimSpace(strings.TrimPrefix(line, "STATUS:")))
				statusSeen = true
			}
		case strings.HasPrefix(line, "EXIT_CODE:") && res.ExitCode < 0:
			if code, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "EXIT_CODE:"))); err == nil {
				res.ExitCode = code
			}
		case strings.HasPrefix(line, "TIMESTAMP:") && res.Timestamp.IsZero():
			value := strings.TrimSpace(strings.TrimPrefix(line, "TIMESTAMP:"))
			if ts, err := time.ParseInLocation(basic.TimestampLayout, value, time.Local); err == nil {
				res.Timestamp = ts
			}
		case strings.HasPrefix(line, "REASON:"):
			res.Reason = strings.TrimSpace(strings.TrimPrefix(line, "REASON:"))
		case strings.HasPrefix(line, "FINDINGS:"):
			inFindings = true
		case inFindings && strings.HasPrefix(line, "-"):
			res.Instances++
			if m := findingLine.FindStringSubmatch(line); m != nil {
				n, _ := strconv.Atoi(m[2])
				res.Findings = append(res.Findings, findings.Finding{Path: m[1], Line: n, Message: m[3]})
			}
		}
	}
	if res.ExitCode < 0 {
		res.ExitCode = res.Status.ExitCode()
	}
	return res
}

// Read loads the record of id from dir. A missing record is NOT_RUN and an
// unreadable one UNKNOWN.
func Read(dir, id string) Result {
	content, err := os.ReadFile(Path(dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return Result{ID: id, Status: NotRun, ExitCode: ExitFail}
		}
		glog.Errorf("failed to read log of %s: %v", id, err)
		return Result{ID: id, Status: Unknown, ExitCode: ExitFail}
	}
	res := Parse(id, string(content))
	if res.Status == Unknown {
		glog.Warningf("no status in log of %s", id)
	}
	return res
}

// ReadAll reads the records of ids in order.
func ReadAll(dir string, ids []string) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		results = append(results, Read(dir, id))
	}
	return results
}

// Discover lists the rule ids that have a record in dir, sorted.
func Discover(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "RULE-*.log"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), ".log"))
	}
	sort.Strings(ids)
	return ids, nil
}
