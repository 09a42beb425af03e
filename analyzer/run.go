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
Package analyzer drives a rule run: it prepares the results directory,
runs the requested rules in registry order, writes one log per rule and
aggregates the logs into the summary report.
*/
package analyzer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"golang.org/x/exp/slices"
	"golang.org/x/text/message"
	"naive.systems/rulecheck/checker_integration/buildconfig"
	"naive.systems/rulecheck/checker_integration/cppcheck"
	"naive.systems/rulecheck/cruleslib/basic"
	"naive.systems/rulecheck/cruleslib/filter"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/cruleslib/i18n"
	"naive.systems/rulecheck/cruleslib/options"
	"naive.systems/rulecheck/cruleslib/rulelog"
	"naive.systems/rulecheck/cruleslib/runner"
	"naive.systems/rulecheck/cruleslib/source"
	"naive.systems/rulecheck/cruleslib/stats"
	"naive.systems/rulecheck/diff"
	"naive.systems/rulecheck/heuristics"
	"naive.systems/rulecheck/report"
	"naive.systems/rulecheck/rulesets"
	"naive.systems/rulecheck/utils"
)

type State int

const (
	Idle State = iota
	Preparing
	Running
	Aggregating
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Preparing:
		return "PREPARING"
	case Running:
		return "RUNNING"
	case Aggregating:
		return "AGGREGATING"
	case Done:
		return "DONE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type RuleResult = rulelog.Result

var ErrInterrupted = runner.ErrInterrupted

// Outcome is what a batch produced.
type Outcome struct {
	Results     []RuleResult
	Summary     stats.StatusCount
	SummaryPath string
	// ExitCode is 0 when no result fails; SKIP does not fail.
	ExitCode int
}

type Orchestrator struct {
	Config     *options.Config
	Registry   *rulesets.Registry
	SrcPath    string
	RepoRoot   string
	ResultsDir string
	// Changes restricts findings to changed lines when set.
	Changes      diff.ChangedLines
	ShowProgress bool
	// EnsureReport makes sure a cppcheck report is present in ResultsDir
	// before rules that read it run.
	EnsureReport func(ctx context.Context) error
	Now          func() time.Time

	state   State
	printer *message.Printer
}

// NewOrchestrator resolves the repository root and the results directory
// for srcPath.
func NewOrchestrator(cfg *options.Config, srcPath string) *Orchestrator {
	repoRoot := buildconfig.FindRepoRoot(srcPath)
	o := &Orchestrator{
		Config:       cfg,
		Registry:     rulesets.NewRegistry(cfg),
		SrcPath:      srcPath,
		RepoRoot:     repoRoot,
		ResultsDir:   cfg.ResolveResultsDir(repoRoot),
		ShowProgress: true,
		Now:          time.Now,
		printer:      i18n.GetPrinter(cfg.Lang),
	}
	o.EnsureReport = o.ensureReport
	return o
}

func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) setState(s State) {
	glog.Infof("orchestrator %v -> %v", o.state, s)
	o.state = s
}

func (o *Orchestrator) print(format string, args ...any) {
	if o.printer == nil {
		o.printer = i18n.GetPrinter(o.Config.Lang)
	}
	basic.PrintfWithTimeStamp(o.printer.Sprintf(format, args...))
}

// LoadDiff restricts later runs to the lines a unified diff adds.
func (o *Orchestrator) LoadDiff(path string) error {
	patch, err := diff.ReadFile(path)
	if err != nil {
		return err
	}
	o.Changes = patch.Changes()
	return nil
}

// RunRule runs one rule. Its exit code is the rule's: 0 PASS, 1 FAIL or
// NOT_RUN, 2 SKIP.
func (o *Orchestrator) RunRule(ctx context.Context, id string) (*Outcome, error) {
	outcome, err := o.run(ctx, []string{id})
	if outcome != nil && len(outcome.Results) == 1 {
		outcome.ExitCode = outcome.Results[0].Status.ExitCode()
	}
	return outcome, err
}

func (o *Orchestrator) RunGroup(ctx context.Context, name string) (*Outcome, error) {
	g, ok := o.Registry.Group(name)
	if !ok {
		o.print("Unknown rule group: %s", name)
		return nil, fmt.Errorf("unknown rule group %q", name)
	}
	return o.run(ctx, g.IDs)
}

func (o *Orchestrator) RunAll(ctx context.Context) (*Outcome, error) {
	return o.run(ctx, o.Registry.AllIDs())
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (o *Orchestrator) run(ctx context.Context, ids []string) (*Outcome, error) {
	ids = dedupe(ids)
	startedAt := o.Now()

	o.setState(Preparing)
	if err := utils.CreateResultDir(o.ResultsDir); err != nil {
		return nil, fmt.Errorf("failed to create results dir %s: %v", o.ResultsDir, err)
	}
	stats.WriteProgress(o.ResultsDir, stats.PREPARING, "0%", startedAt)
	if err := rulelog.Remove(o.ResultsDir, ids); err != nil {
		return nil, fmt.Errorf("failed to remove stale logs: %v", err)
	}
	o.print("Removed stale logs of %d rule(s)", len(ids))
	files, err := source.Load(o.SrcPath, source.Options{
		Extensions:       o.Config.Extensions,
		IgnorePatterns:   o.Config.IgnorePatterns,
		RespectGitignore: o.Config.RespectGitignore,
		Charset:          o.Config.Charset,
	})
	if err != nil {
		return nil, err
	}
	o.writeLOC(files)
	var reportErr error
	if o.Registry.RequiresReport(ids) && o.EnsureReport != nil {
		reportErr = o.EnsureReport(ctx)
		if reportErr != nil {
			glog.Errorf("cppcheck report unavailable: %v", reportErr)
		}
	}

	o.setState(Running)
	env := heuristics.NewEnv(o.SrcPath, o.RepoRoot, o.ResultsDir, files)
	tasks := []runner.AnalyzerTask{}
	for _, id := range ids {
		def, ok := o.Registry.Lookup(id)
		if !ok {
			o.print("Unknown rule ID: %s", id)
			continue
		}
		tasks = append(tasks, runner.AnalyzerTask{
			Rule: id,
			Analyze: func() (*findings.Outcome, error) {
				if def.RequiresReport && reportErr != nil {
					return findings.Skip("static analysis failed: %v", reportErr), nil
				}
				return def.Analyzer.Scan(env)
			},
		})
	}
	tr := runner.NewTaskRunner(len(tasks), o.ShowProgress, o.Config.Lang, o.ResultsDir)
	done, runErr := tr.Run(ctx, tasks, o.finish)
	if runErr != nil {
		o.print("Interrupted, %d rule(s) not run", len(tasks)-len(done))
	}

	outcome, err := o.aggregate(ids, startedAt)
	if err != nil {
		return outcome, err
	}
	return outcome, runErr
}

func (o *Orchestrator) writeLOC(files []*source.File) {
	counts, err := heuristics.CountCodeLines(files)
	if err != nil {
		glog.Errorf("failed to count lines: %v", err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	stats.WriteLOC(o.ResultsDir, total)
}

// finish filters the findings of one rule and writes its log.
func (o *Orchestrator) finish(task runner.AnalyzerTask, outcome *findings.Outcome, err error) rulelog.Status {
	def, _ := o.Registry.Lookup(task.Rule)
	record := &rulelog.Record{
		RuleID:      def.ID,
		Script:      fmt.Sprintf("%T", def.Analyzer),
		SrcPath:     o.SrcPath,
		Timestamp:   o.Now(),
		OriginalID:  def.OriginalID,
		Description: def.Description,
	}
	switch {
	case err != nil:
		record.ExitCode = rulelog.ExitFail
		record.Reason = err.Error()
	default:
		record.Findings = filter.Apply(outcome.Findings, o.RepoRoot, o.Config.IgnorePatterns, o.Changes, o.Config.MaxReportNum)
		record.Reason = outcome.Reason
		switch {
		case outcome.Skipped:
			record.ExitCode = rulelog.ExitSkip
		case len(record.Findings) > 0:
			record.ExitCode = rulelog.ExitFail
		default:
			record.ExitCode = rulelog.ExitPass
		}
	}
	if err := rulelog.Write(o.ResultsDir, record); err != nil {
		glog.Errorf("%s: %v", task.Rule, err)
	}
	return record.Status()
}

func (o *Orchestrator) aggregate(ids []string, startedAt time.Time) (*Outcome, error) {
	o.setState(Aggregating)
	stats.WriteProgress(o.ResultsDir, stats.AGGREGATING, "100%", startedAt)
	results := rulelog.ReadAll(o.ResultsDir, ids)
	outcome, err := o.writeReport(results)
	stats.WriteProgress(o.ResultsDir, stats.END, "100%", startedAt)
	o.setState(Done)
	return outcome, err
}

func (o *Orchestrator) writeReport(results []RuleResult) (*Outcome, error) {
	rep := report.Build(o.Registry, results, o.SrcPath, o.Now())
	path, err := rep.WriteAll(o.ResultsDir)
	outcome := &Outcome{Results: results, Summary: rep.Summary, SummaryPath: path}
	for _, r := range results {
		if r.Status.Failing() {
			outcome.ExitCode = rulelog.ExitFail
		}
	}
	if err != nil {
		return outcome, err
	}
	o.print("Summary written to: %s", path)
	s := rep.Summary
	o.print("Total PASS: %d, FAIL: %d, SKIP: %d, NOT_RUN: %d, UNKNOWN: %d", s.Pass, s.Fail, s.Skip, s.NotRun, s.Unknown)
	return outcome, nil
}

// Summarize rebuilds the report from every rule log found in ResultsDir.
func (o *Orchestrator) Summarize() (*Outcome, error) {
	ids, err := rulelog.Discover(o.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule logs in %s: %v", o.ResultsDir, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no rule logs in %s", o.ResultsDir)
	}
	return o.writeReport(rulelog.ReadAll(o.ResultsDir, ids))
}

// StaticAnalysis runs cppcheck over the source path and writes its reports
// into ResultsDir.
func (o *Orchestrator) StaticAnalysis(ctx context.Context) (*cppcheck.Summary, error) {
	srcDir := o.SrcPath
	if info, err := os.Stat(srcDir); err == nil && !info.IsDir() {
		srcDir = o.RepoRoot
	}
	summary, err := cppcheck.StaticAnalysis(ctx, o.Config, o.RepoRoot, srcDir, o.ResultsDir)
	if err != nil {
		o.print("Static analysis failed: %v", err)
		return nil, err
	}
	if summary.HasIssues() {
		o.print("Static analysis found issues that need attention")
	} else {
		o.print("Static analysis completed (no issues found)")
	}
	o.print("Static analysis results saved to: %s", summary.TextPath)
	return summary, nil
}

// ensureReport reuses any cppcheck report already in ResultsDir and runs
// the static analysis otherwise. Issues found do not fail it.
func (o *Orchestrator) ensureReport(ctx context.Context) error {
	if reports := cppcheck.FindReports(o.ResultsDir); len(reports) > 0 {
		glog.Infof("using cppcheck reports %v", reports)
		return nil
	}
	o.print("Cppcheck report not found. Running static analysis...")
	_, err := o.StaticAnalysis(ctx)
	return err
}
