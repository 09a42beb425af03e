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

package options

import (
	"flag"
)

type ArrayFlags []string

func (i *ArrayFlags) String() string {
	return "array flags"
}

func (i *ArrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

type SharedOptions struct {
	CheckProgress  *bool
	ConfigPath     *string
	CppcheckBin    *string
	DebugMode      *bool
	DiffFile       *string
	Group          *string
	IgnorePatterns ArrayFlags
	Lang           *string
	ResultsDir     *string
	RuleID         *string
	SrcPath        *string
}

func (s SharedOptions) GetCheckProgress() bool {
	return *s.CheckProgress
}

func (s SharedOptions) GetConfigPath() string {
	return *s.ConfigPath
}

func (s SharedOptions) GetDebugMode() bool {
	return *s.DebugMode
}

func (s SharedOptions) GetDiffFile() string {
	return *s.DiffFile
}

func (s SharedOptions) GetGroup() string {
	return *s.Group
}

func (s SharedOptions) GetLang() string {
	return *s.Lang
}

func (s SharedOptions) GetResultsDir() string {
	return *s.ResultsDir
}

func (s SharedOptions) GetRuleID() string {
	return *s.RuleID
}

func (s SharedOptions) GetSrcPath() string {
	return *s.SrcPath
}

func NewSharedOptions() *SharedOptions {
	return NewSharedOptionsOn(flag.CommandLine)
}

func NewSharedOptionsOn(fs *flag.FlagSet) *SharedOptions {
	option := &SharedOptions{}

	option.CheckProgress = fs.Bool("show_progress", true, "Show the checking progress")
	option.ConfigPath = fs.String("config", "", "Path to a YAML configuration file")
	option.CppcheckBin = fs.String("cppcheck_bin", "", "Cppcheck binary location, overrides cppcheck.bin")
	option.DebugMode = fs.Bool("debug", false, "Whether to display error information")
	option.DiffFile = fs.String("diff_file", "", "Only report findings on lines added by this unified diff")
	option.Group = fs.String("group", "", "Rule group to run with the rules-group command")
	option.Lang = fs.String("lang", "", "Language of console messages, en or zh")
	option.ResultsDir = fs.String("results_dir", "", "Directory of rule logs and reports, default <repo>/toolchain/results")
	option.RuleID = fs.String("rule_id", "", "Rule to run with the rule command, e.g. RULE-001")
	option.SrcPath = fs.String("src_path", "src", "Source root or single file to check")

	fs.Var(&option.IgnorePatterns, "ignore_dir", "Doublestar pattern of paths that will be ignored")

	return option
}

// Apply copies every flag the user set onto cfg. Flags left at their zero
// value do not override the configuration file.
func (s SharedOptions) Apply(cfg *Config) {
	if *s.ResultsDir != "" {
		cfg.ResultsDir = *s.ResultsDir
	}
	if *s.Lang != "" {
		cfg.Lang = *s.Lang
	}
	if *s.CppcheckBin != "" {
		cfg.Cppcheck.Bin = *s.CppcheckBin
	}
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, s.IgnorePatterns...)
}
