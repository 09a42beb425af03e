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
	"regexp"
	"strings"

	"naive.systems/rulecheck/cruleslib/extract"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/cruleslib/source"
)

// PatternCheck reports every match of every pattern over whole file text.
// The finding message is the trimmed source line holding the match start.
type PatternCheck struct {
	Patterns []string
}

func (c PatternCheck) Scan(env *Env) (*findings.Outcome, error) {
	res := make([]*regexp.Regexp, 0, len(c.Patterns))
	for _, p := range c.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %v", p, err)
		}
		res = append(res, re)
	}
	list := []findings.Finding{}
	for _, f := range env.Files {
		lines := extract.Lines(f.Content)
		for _, re := range res {
			for _, loc := range re.FindAllStringIndex(f.Content, -1) {
				lineNo := strings.Count(f.Content[:loc[0]], "\n") + 1
				text := ""
				if lineNo-1 < len(lines) {
					text = strings.TrimSpace(lines[lineNo-1])
				}
				list = append(list, findings.Finding{Path: f.Path, Line: lineNo, Message: text})
			}
		}
	}
	return findings.Found(list), nil
}

var unboundedLoopPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwhile\s*\(\s*true\s*\)`),
	regexp.MustCompile(`\bfor\s*\(\s*;\s*;\s*\)`),
}

// UnboundedLoopCheck flags functions other than the entry point that
// contain while(true) or for(;;). One finding per function, at its start.
type UnboundedLoopCheck struct {
	EntryPoint string
}

func (c UnboundedLoopCheck) Scan(env *Env) (*findings.Outcome, error) {
	return perFunction(env, env.Files, func(f *source.File, fn *extract.Function) []findings.Finding {
		if fn.Name == c.EntryPoint {
			return nil
		}
		for _, re := range unboundedLoopPatterns {
			if re.MatchString(fn.Body) {
				return at(f, fn.StartLine, "while(true) or for(;;) outside "+c.EntryPoint)
			}
		}
		return nil
	}), nil
}

// TraceabilityCheck requires one of Tags in the three lines above each
// function or in the function itself. Only implementation files are checked.
type TraceabilityCheck struct {
	Tags []string
}

func (c TraceabilityCheck) Scan(env *Env) (*findings.Outcome, error) {
	files := source.Filter(env.Files, ".c", ".cpp")
	message := fmt.Sprintf("Missing %s traceability tag", strings.Join(c.Tags, "/"))
	list := []findings.Finding{}
	for _, f := range files {
		lines := extract.Lines(f.Content)
		for _, fn := range env.Functions(f) {
			from := fn.StartLine - 4
			if from < 0 {
				from = 0
			}
			context := strings.Join(lines[from:fn.StartLine-1], "\n") + "\n" + fn.Body
			if !containsAny(context, c.Tags) {
				list = append(list, findings.Finding{Path: f.Path, Line: fn.StartLine, Message: message})
			}
		}
	}
	return findings.Found(list), nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

const assertCall = "assert("

// AssertDensityCheck compares assert( occurrences per function of each file
// against Min.
type AssertDensityCheck struct {
	Min float64
}

func (c AssertDensityCheck) Scan(env *Env) (*findings.Outcome, error) {
	list := []findings.Finding{}
	for _, f := range env.Files {
		fns := env.Functions(f)
		if len(fns) == 0 {
			continue
		}
		density := float64(strings.Count(f.Content, assertCall)) / float64(len(fns))
		if density < c.Min {
			list = append(list, findings.Finding{
				Path:    f.Path,
				Line:    1,
				Message: fmt.Sprintf("Assertion density %.2f < %s", density, formatMin(c.Min)),
			})
		}
	}
	return findings.Found(list), nil
}

// formatMin prints 1.0 as "1.0" and 0.5 as "0.5".
func formatMin(v float64) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// AssertsPerFunctionCheck flags each function holding fewer than Min
// assert( calls.
type AssertsPerFunctionCheck struct {
	Min int
}

func (c AssertsPerFunctionCheck) Scan(env *Env) (*findings.Outcome, error) {
	return perFunction(env, env.Files, func(f *source.File, fn *extract.Function) []findings.Finding {
		if n := strings.Count(fn.Body, assertCall); n < c.Min {
			return at(f, fn.StartLine, fmt.Sprintf("Function '%s' has %d assertions < %d", fn.Name, n, c.Min))
		}
		return nil
	}), nil
}
