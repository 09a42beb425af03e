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

package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/golang/glog"
	"golang.org/x/text/message"
	"naive.systems/rulecheck/cruleslib/basic"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/cruleslib/i18n"
	"naive.systems/rulecheck/cruleslib/rulelog"
	"naive.systems/rulecheck/cruleslib/stats"
)

// ErrInterrupted is returned when the context ends before every task ran.
var ErrInterrupted = errors.New("interrupted")

// The task for Runner to run
type AnalyzerTask struct {
	Rule    string
	Analyze func() (*findings.Outcome, error)
}

// FinishFunc turns what a task produced into the rule status, usually by
// writing the rule log. err is set when the analyzer failed or panicked.
type FinishFunc func(task AnalyzerTask, outcome *findings.Outcome, err error) rulelog.Status

type TaskResult struct {
	Rule   string
	Status rulelog.Status
}

// TaskRunner runs rule tasks one after another in the given order.
type TaskRunner struct {
	showProgress   bool
	resultsDir     string
	printer        *message.Printer
	processPrinter *basic.CheckingProcessPrinter
}

func NewTaskRunner(taskNums int, showProgress bool, lang, resultsDir string) *TaskRunner {
	return &TaskRunner{
		showProgress:   showProgress,
		resultsDir:     resultsDir,
		printer:        i18n.GetPrinter(lang),
		processPrinter: basic.NewCheckingProcessPrinter(taskNums),
	}
}

// analyze calls task.Analyze and turns a panic into an error.
func analyze(task AnalyzerTask) (outcome *findings.Outcome, err error) {
	defer func() {
		// recover from possible panic
		if r := recover(); r != nil {
			glog.Error("Recovered in analyze: ", r, string(debug.Stack()))
			outcome, err = nil, fmt.Errorf("panic in analyze rule %s: %v", task.Rule, r)
		}
	}()
	outcome, err = task.Analyze()
	if err == nil && outcome == nil {
		err = fmt.Errorf("analyzer of %s returned no outcome", task.Rule)
	}
	return outcome, err
}

// Run executes tasks in order. The context is checked before each task; once
// it is done the remaining tasks are left out and ErrInterrupted is returned
// together with the results gathered so far.
func (tr *TaskRunner) Run(ctx context.Context, tasks []AnalyzerTask, finish FinishFunc) ([]TaskResult, error) {
	results := make([]TaskResult, 0, len(tasks))
	for _, task := range tasks {
		if ctx.Err() != nil {
			glog.Warningf("%v: %d task(s) not run", ctx.Err(), len(tasks)-len(results))
			return results, ErrInterrupted
		}
		if tr.showProgress {
			tr.processPrinter.StartAnalyzeTask(task.Rule, tr.printer)
		}
		outcome, err := analyze(task)
		if err != nil {
			glog.Errorf("%s: %v", task.Rule, err)
		}
		status := finish(task, outcome, err)
		results = append(results, TaskResult{Rule: task.Rule, Status: status})
		if tr.showProgress {
			tr.processPrinter.FinishAnalyzeTask(task.Rule, string(status), tr.printer)
		}
		stats.WriteProgress(tr.resultsDir, stats.RUNNING, tr.processPrinter.GetPercentString(), tr.processPrinter.GetStartedAt())
	}
	return results, nil
}
