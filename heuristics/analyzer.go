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
Package heuristics holds the line and pattern based analyzers behind every
rule. Each analyzer is a value with its parameters bound at construction and
is run against an Env. Analyzers never modify the files they read.
*/
package heuristics

import (
	"naive.systems/rulecheck/cruleslib/extract"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/cruleslib/source"
)

// Env is everything an analyzer may look at during one rule run.
type Env struct {
	// SrcPath is the source root (or single file) the run was started with.
	SrcPath string
	Files   []*source.File
	// RepoRoot is the nearest ancestor of SrcPath holding CMakeLists.txt,
	// or SrcPath's directory when there is none.
	RepoRoot   string
	ResultsDir string

	functions map[*source.File][]*extract.Function
}

func NewEnv(srcPath, repoRoot, resultsDir string, files []*source.File) *Env {
	return &Env{
		SrcPath:    srcPath,
		Files:      files,
		RepoRoot:   repoRoot,
		ResultsDir: resultsDir,
		functions:  make(map[*source.File][]*extract.Function),
	}
}

// Functions memoizes extraction per file within one Env.
func (e *Env) Functions(f *source.File) []*extract.Function {
	if e.functions == nil {
		e.functions = make(map[*source.File][]*extract.Function)
	}
	if fns, ok := e.functions[f]; ok {
		return fns
	}
	fns := extract.Functions(f.Content)
	e.functions[f] = fns
	return fns
}

type Analyzer interface {
	Scan(env *Env) (*findings.Outcome, error)
}

// AnalyzerFunc adapts a plain function to Analyzer.
type AnalyzerFunc func(env *Env) (*findings.Outcome, error)

func (fn AnalyzerFunc) Scan(env *Env) (*findings.Outcome, error) {
	return fn(env)
}

// perFunction runs check over every extracted function of every file.
func perFunction(env *Env, files []*source.File, check func(f *source.File, fn *extract.Function) []findings.Finding) *findings.Outcome {
	list := []findings.Finding{}
	for _, f := range files {
		for _, fn := range env.Functions(f) {
			list = append(list, check(f, fn)...)
		}
	}
	return findings.Found(list)
}

// perLine runs check over every line of every file. Line numbers are 1-based.
func perLine(files []*source.File, check func(f *source.File, line int, text string) []findings.Finding) *findings.Outcome {
	list := []findings.Finding{}
	for _, f := range files {
		for i, text := range extract.Lines(f.Content) {
			list = append(list, check(f, i+1, text)...)
		}
	}
	return findings.Found(list)
}

func at(f *source.File, line int, message string) []findings.Finding {
	return []findings.Finding{{Path: f.Path, Line: line, Message: message}}
}
