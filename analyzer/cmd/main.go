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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/golang/glog"
	"naive.systems/rulecheck/analyzer"
	"naive.systems/rulecheck/cruleslib/options"
	"naive.systems/rulecheck/rulesets"
	"naive.systems/rulecheck/utils"
)

const commands = "static-analysis|rule|rules-group|rules-list|rules-all|summarize"

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <%s> [flags]\n", filepath.Base(os.Args[0]), commands)
	flag.PrintDefaults()
}

func main() {
	sharedOptions := options.NewSharedOptions()
	flag.Usage = usage
	flag.Parse()
	command := flag.Arg(0)
	// flags may also follow the command
	if flag.NArg() > 1 {
		if err := flag.CommandLine.Parse(flag.Args()[1:]); err != nil {
			os.Exit(1)
		}
	}

	cfg, err := options.Load(sharedOptions.GetConfigPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	sharedOptions.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	o := analyzer.NewOrchestrator(cfg, sharedOptions.GetSrcPath())
	o.ShowProgress = sharedOptions.GetCheckProgress()

	// Do not call any logging functions of glog before this part.
	logDir := flag.Lookup("log_dir")
	if logDir.Value.String() == "" {
		err := flag.Set("log_dir", filepath.Join(o.ResultsDir, "logs"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to set default log_dir: %v\n", err)
			os.Exit(1)
		}
	}
	if err := utils.CreateResultDir(logDir.Value.String()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log dir: %v\n", err)
		os.Exit(1)
	}
	if !sharedOptions.GetDebugMode() {
		err := flag.Set("stderrthreshold", "FATAL")
		if err != nil {
			glog.Fatalf("failed to set default stderrthreshold: %v", err)
		}
	}
	glog.Infof("command %q, src %s, repo root %s, results %s", command, o.SrcPath, o.RepoRoot, o.ResultsDir)
	glog.Infof("config: %+v", *cfg)

	if diffFile := sharedOptions.GetDiffFile(); diffFile != "" {
		if err := o.LoadDiff(diffFile); err != nil {
			glog.Fatalf("failed to load diff: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := runCommand(ctx, command, o, sharedOptions)
	stop()
	glog.Flush()
	os.Exit(code)
}

func runCommand(ctx context.Context, command string, o *analyzer.Orchestrator, sharedOptions *options.SharedOptions) int {
	switch command {
	case "static-analysis":
		summary, err := o.StaticAnalysis(ctx)
		if err != nil || summary.HasIssues() {
			return 1
		}
		return 0
	case "rule":
		if sharedOptions.GetRuleID() == "" {
			fmt.Fprintln(os.Stderr, "-rule_id is required")
			return 1
		}
		outcome, err := o.RunRule(ctx, sharedOptions.GetRuleID())
		return exitCode(outcome, err)
	case "rules-group":
		if sharedOptions.GetGroup() == "" {
			fmt.Fprintf(os.Stderr, "-group is required, one of %s\n", strings.Join(rulesets.GROUP_NAMES, ", "))
			return 1
		}
		outcome, err := o.RunGroup(ctx, sharedOptions.GetGroup())
		return exitCode(outcome, err)
	case "rules-all":
		outcome, err := o.RunAll(ctx)
		return exitCode(outcome, err)
	case "rules-list":
		listRules(os.Stdout, o.Registry)
		return 0
	case "summarize":
		if _, err := o.Summarize(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	flag.Usage()
	return 1
}

func exitCode(outcome *analyzer.Outcome, err error) int {
	if err != nil {
		if errors.Is(err, analyzer.ErrInterrupted) {
			glog.Warning("run interrupted")
		} else {
			glog.Error(err)
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return outcome.ExitCode
}

func listRules(w io.Writer, reg *rulesets.Registry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tORIGINAL\tGROUPS\tDESCRIPTION")
	for _, def := range reg.Rules() {
		groups := strings.Join(reg.GroupsOf(def.ID), ",")
		if groups == "" {
			groups = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.ID, def.OriginalID, groups, def.Description)
	}
	tw.Flush()
	fmt.Fprintln(w)
	for _, g := range reg.Groups() {
		fmt.Fprintf(w, "%s: %s\n", g.Name, strings.Join(g.IDs, " "))
	}
}
