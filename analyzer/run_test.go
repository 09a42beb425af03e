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

package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"naive.systems/rulecheck/cruleslib/options"
	"naive.systems/rulecheck/cruleslib/rulelog"
	"naive.systems/rulecheck/cruleslib/stats"
	"naive.systems/rulecheck/report"
)

const mainC = `/* SWReq-001 */
int main(void) {
    goto out;
out:
    return 0;
}
`

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.MkdirAll(src, os.ModePerm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "main.c"), []byte(mainC), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o := NewOrchestrator(options.Default(), src)
	o.RepoRoot = root
	o.ResultsDir = filepath.Join(root, "results")
	o.ShowProgress = false
	o.Now = func() time.Time { return time.Date(2024, 1, 2, 15, 4, 5, 0, time.Local) }
	o.EnsureReport = func(ctx context.Context) error { return errors.New("cppcheck not found") }
	return o
}

func statuses(results []RuleResult) map[string]rulelog.Status {
	m := map[string]rulelog.Status{}
	for _, r := range results {
		m[r.ID] = r.Status
	}
	return m
}

func TestRunGroupPassAndFail(t *testing.T) {
	o := newTestOrchestrator(t)
	outcome, err := o.RunGroup(context.Background(), "iso")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]rulelog.Status{"RULE-067": rulelog.Pass, "RULE-068": rulelog.Fail}
	if got := statuses(outcome.Results); !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result. got: %v, expected: %v", got, expected)
	}
	if outcome.Summary != (stats.StatusCount{Pass: 1, Fail: 1}) {
		t.Errorf("unexpected summary %+v", outcome.Summary)
	}
	if outcome.ExitCode != rulelog.ExitFail {
		t.Errorf("unexpected exit code %d", outcome.ExitCode)
	}
	if o.State() != Done {
		t.Errorf("unexpected state %v", o.State())
	}
	for _, name := range []string{"RULE-067.log", "RULE-068.log", report.SummaryFileName, stats.ProgressFileName, stats.LOCFileName} {
		if _, err := os.Stat(filepath.Join(o.ResultsDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRunGroupUnknown(t *testing.T) {
	o := newTestOrchestrator(t)
	if _, err := o.RunGroup(context.Background(), "autosar"); err == nil {
		t.Errorf("expected an error for an unknown group")
	}
}

func TestRunRuleExitCodes(t *testing.T) {
	for _, testCase := range [...]struct {
		rule     string
		status   rulelog.Status
		exitCode int
	}{
		{"RULE-001", rulelog.Fail, rulelog.ExitFail},
		{"RULE-002", rulelog.Pass, rulelog.ExitPass},
		// needs the cppcheck report, which could not be produced
		{"RULE-039", rulelog.Skip, rulelog.ExitSkip},
		// no rule is registered under this id
		{"RULE-030", rulelog.NotRun, rulelog.ExitFail},
	} {
		t.Run(testCase.rule, func(t *testing.T) {
			o := newTestOrchestrator(t)
			outcome, err := o.RunRule(context.Background(), testCase.rule)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(outcome.Results) != 1 || outcome.Results[0].Status != testCase.status {
				t.Errorf("unexpected results %+v", outcome.Results)
			}
			if outcome.ExitCode != testCase.exitCode {
				t.Errorf("unexpected exit code. got: %d, expected: %d", outcome.ExitCode, testCase.exitCode)
			}
		})
	}
}

func TestRuleLogContent(t *testing.T) {
	o := newTestOrchestrator(t)
	if _, err := o.RunRule(context.Background(), "RULE-001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := os.ReadFile(rulelog.Path(o.ResultsDir, "RULE-001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := strings.Join([]string{
		"RULE_ID: RULE-001",
		"SCRIPT: heuristics.PatternCheck",
		"SRC_PATH: " + o.SrcPath,
		"STATUS: FAIL",
		"EXIT_CODE: 1",
		"TIMESTAMP: 2024-01-02 15:04:05",
		rulelog.Separator,
		"RULE: RULE-001 (R1.1)",
		"DESC: No goto statements",
		"STATUS: FAIL",
		"FINDINGS:",
		"- " + filepath.Join(o.SrcPath, "main.c") + ":3: goto out;",
	}, "\n") + "\n"
	if string(content) != expected {
		t.Errorf("unexpected log.\ngot:\n%s\nexpected:\n%s", content, expected)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	o := newTestOrchestrator(t)
	read := func() (string, string) {
		log, err := os.ReadFile(rulelog.Path(o.ResultsDir, "RULE-001"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		summary, err := os.ReadFile(filepath.Join(o.ResultsDir, report.SummaryFileName))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return string(log), string(summary)
	}
	withoutTimestamps := func(s string) string {
		kept := []string{}
		for _, line := range strings.Split(s, "\n") {
			if strings.HasPrefix(line, "TIMESTAMP:") || strings.HasPrefix(line, "**Generated:**") {
				continue
			}
			kept = append(kept, line)
		}
		return strings.Join(kept, "\n")
	}
	if _, err := o.RunRule(context.Background(), "RULE-001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log1, summary1 := read()
	o.Now = func() time.Time { return time.Date(2025, 6, 7, 8, 9, 10, 0, time.Local) }
	if _, err := o.RunRule(context.Background(), "RULE-001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log2, summary2 := read()
	if log1 == log2 {
		t.Errorf("expected the timestamp to change")
	}
	if withoutTimestamps(log1) != withoutTimestamps(log2) {
		t.Errorf("logs differ beyond the timestamp:\n%s\n%s", log1, log2)
	}
	if withoutTimestamps(summary1) != withoutTimestamps(summary2) {
		t.Errorf("summaries differ beyond the timestamp:\n%s\n%s", summary1, summary2)
	}
}

func TestStaleLogsAreRemoved(t *testing.T) {
	o := newTestOrchestrator(t)
	if err := os.MkdirAll(o.ResultsDir, os.ModePerm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// RULE-030 has no rule, so a log left from an older run must not survive.
	if err := os.WriteFile(rulelog.Path(o.ResultsDir, "RULE-030"), []byte("STATUS: PASS\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome, err := o.RunRule(context.Background(), "RULE-030")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Results[0].Status != rulelog.NotRun {
		t.Errorf("unexpected status %v", outcome.Results[0].Status)
	}
}

func TestReportFailureSkipsOnlyDependentRules(t *testing.T) {
	o := newTestOrchestrator(t)
	outcome, err := o.run(context.Background(), []string{"RULE-039", "RULE-040", "RULE-002"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]rulelog.Status{"RULE-039": rulelog.Skip, "RULE-040": rulelog.Skip, "RULE-002": rulelog.Pass}
	if got := statuses(outcome.Results); !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result. got: %v, expected: %v", got, expected)
	}
	if outcome.ExitCode != rulelog.ExitPass {
		t.Errorf("SKIP must not fail a batch, got exit code %d", outcome.ExitCode)
	}
	if !strings.Contains(outcome.Results[0].Reason, "cppcheck not found") {
		t.Errorf("unexpected reason %q", outcome.Results[0].Reason)
	}
}

func TestExistingReportIsReused(t *testing.T) {
	o := newTestOrchestrator(t)
	o.EnsureReport = o.ensureReport
	if err := os.MkdirAll(o.ResultsDir, os.ModePerm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	xml := `<?xml version="1.0"?><results version="2"><errors></errors></results>`
	if err := os.WriteFile(filepath.Join(o.ResultsDir, "cppcheck.xml"), []byte(xml), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// a missing binary proves the analysis was not started
	o.Config.Cppcheck.Bin = filepath.Join(o.RepoRoot, "no-such-cppcheck")
	outcome, err := o.RunRule(context.Background(), "RULE-040")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Results[0].Status != rulelog.Pass {
		t.Errorf("unexpected status %v: %s", outcome.Results[0].Status, outcome.Results[0].Reason)
	}
}

func TestDiffRestrictsFindings(t *testing.T) {
	o := newTestOrchestrator(t)
	patch := filepath.Join(o.RepoRoot, "change.diff")
	content := "--- a/src/main.c\n+++ b/src/main.c\n@@ -1,2 +1,2 @@\n-/* old */\n+/* SWReq-001 */\n int main(void) {\n"
	if err := os.WriteFile(patch, []byte(content), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := o.LoadDiff(patch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome, err := o.RunRule(context.Background(), "RULE-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Results[0].Status != rulelog.Pass {
		t.Errorf("a goto outside the diff must not be reported, got %v", outcome.Results[0].Status)
	}
}

func TestInterruptedRun(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome, err := o.run(ctx, []string{"RULE-001", "RULE-002"})
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if outcome.Summary.NotRun != 2 || outcome.ExitCode != rulelog.ExitFail {
		t.Errorf("unexpected outcome %+v", outcome)
	}
}

func TestSummarize(t *testing.T) {
	o := newTestOrchestrator(t)
	if _, err := o.Summarize(); err == nil {
		t.Errorf("expected an error without logs")
	}
	if _, err := o.RunGroup(context.Background(), "iso"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(rulelog.Path(o.ResultsDir, "RULE-900"), []byte("STATUS: PASS\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome, err := o.Summarize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Summary != (stats.StatusCount{Pass: 2, Fail: 1}) {
		t.Errorf("unexpected summary %+v", outcome.Summary)
	}
	content, err := os.ReadFile(outcome.SummaryPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(content), "## Group: Other") || !strings.Contains(string(content), "| RULE-900 | ✅ PASS |") {
		t.Errorf("unexpected summary:\n%s", content)
	}
}
