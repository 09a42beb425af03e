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

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"naive.systems/rulecheck/cruleslib/extract"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/cruleslib/source"
)

var arrowPattern = regexp.MustCompile(`\b(\w+)\s*->`)

// HasNullCheck reports whether text compares name against NULL/nullptr (in
// either order) or negates it.
func HasNullCheck(text, name string) bool {
	v := regexp.QuoteMeta(name)
	for _, pattern := range []string{
		`\b` + v + `\b\s*(==|!=)\s*(NULL|nullptr)`,
		`\b(NULL|nullptr)\s*(==|!=)\s*\b` + v + `\b`,
		`!\s*\b` + v + `\b`,
	} {
		if regexp.MustCompile(pattern).MatchString(text) {
			return true
		}
	}
	return false
}

// NullDerefCheck flags the first "name->" of a line when the function text
// up to and including that line never checks name against null.
type NullDerefCheck struct{}

func (NullDerefCheck) Scan(env *Env) (*findings.Outcome, error) {
	return perFunction(env, env.Files, func(f *source.File, fn *extract.Function) []findings.Finding {
		out := []findings.Finding{}
		lines := fn.Lines()
		for offset, line := range lines {
			m := arrowPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := m[1]
			prior := strings.Join(lines[:offset+1], "\n")
			if HasNullCheck(prior, name) {
				continue
			}
			out = append(out, findings.Finding{
				Path:    f.Path,
				Line:    fn.StartLine + offset,
				Message: fmt.Sprintf("Pointer '%s' used without NULL check", name),
			})
		}
		return out
	}), nil
}

var (
	pointerDeclPattern  = regexp.MustCompile(`\b\w[\w\s]*\*\s*(\w+)\b`)
	pointerExtraPattern = regexp.MustCompile(`,\s*\*\s*(\w+)\b`)
)

// PointerNames collects identifiers that text appears to declare as
// pointers, sorted.
func PointerNames(text string) []string {
	names := make(map[string]struct{})
	for _, line := range extract.Lines(text) {
		if !strings.Contains(line, "*") {
			continue
		}
		m := pointerDeclPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		names[m[1]] = struct{}{}
		for _, extra := range pointerExtraPattern.FindAllStringSubmatch(line, -1) {
			names[extra[1]] = struct{}{}
		}
	}
	list := maps.Keys(names)
	slices.Sort(list)
	return list
}

type pointerArithMatcher struct {
	name     string
	patterns []*regexp.Regexp
}

func newPointerArithMatcher(name string) pointerArithMatcher {
	v := regexp.QuoteMeta(name)
	return pointerArithMatcher{
		name: name,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b` + v + `\b\s*[\+\-]=`),
			regexp.MustCompile(`\b` + v + `\b\s*[\+\-]\s*\d+`),
			regexp.MustCompile(`\*\s*\(\s*` + v + `\s*[\+\-]`),
		},
	}
}

func (m pointerArithMatcher) match(line string) bool {
	for _, re := range m.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// PointerArithmeticCheck flags at most one finding per line: the first
// pointer name, in sorted order, used with +=, -=, +/- a literal or *(p +/-.
type PointerArithmeticCheck struct{}

func (PointerArithmeticCheck) Scan(env *Env) (*findings.Outcome, error) {
	list := []findings.Finding{}
	for _, f := range env.Files {
		names := PointerNames(f.Content)
		if len(names) == 0 {
			continue
		}
		matchers := make([]pointerArithMatcher, 0, len(names))
		for _, name := range names {
			matchers = append(matchers, newPointerArithMatcher(name))
		}
		for i, line := range extract.Lines(f.Content) {
			for _, m := range matchers {
				if m.match(line) {
					list = append(list, findings.Finding{
						Path:    f.Path,
						Line:    i + 1,
						Message: fmt.Sprintf("Pointer arithmetic on '%s'", m.name),
					})
					break
				}
			}
		}
	}
	return findings.Found(list), nil
}

// FunctionPointerCheck flags "(*name)(" usages.
func FunctionPointerCheck() Analyzer {
	return PatternCheck{Patterns: []string{`\(\s*\*\s*\w+\s*\)\s*\(`}}
}

// MultiLevelPointerCheck flags "**" outside comments. The argv parameter
// of an entry point is allowed.
type MultiLevelPointerCheck struct{}

func (MultiLevelPointerCheck) Scan(env *Env) (*findings.Outcome, error) {
	return perLine(env.Files, func(f *source.File, line int, text string) []findings.Finding {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") {
			return nil
		}
		if !strings.Contains(text, "**") {
			return nil
		}
		if strings.Contains(text, "char **argv") {
			return nil
		}
		level := 2
		if strings.Contains(text, "***") {
			level = 3
		}
		return at(f, line, fmt.Sprintf("Multi-level pointer (%s) detected", strings.Repeat("*", level)))
	}), nil
}
