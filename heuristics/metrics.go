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
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/hhatto/gocloc"
	"naive.systems/rulecheck/cruleslib/extract"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/cruleslib/source"
)

// Decision tokens are counted as plain substrings, so "if" inside an
// identifier such as "notify" counts as well.
var decisionTokens = []string{"if", "for", "while", "case", "&&", "||", "?"}

func Complexity(body string) int {
	c := 1
	for _, tok := range decisionTokens {
		c += strings.Count(body, tok)
	}
	return c
}

type ComplexityCheck struct {
	Max int
}

func (c ComplexityCheck) Scan(env *Env) (*findings.Outcome, error) {
	return perFunction(env, env.Files, func(f *source.File, fn *extract.Function) []findings.Finding {
		if n := Complexity(fn.Body); n > c.Max {
			return at(f, fn.StartLine, fmt.Sprintf("Cyclomatic complexity %d > %d", n, c.Max))
		}
		return nil
	}), nil
}

// CodeLines counts lines that are neither blank nor "//" comments.
func CodeLines(body string) int {
	n := 0
	for _, line := range strings.Split(body, "\n") {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "//") {
			continue
		}
		n++
	}
	return n
}

type FunctionLengthCheck struct {
	Max int
}

func (c FunctionLengthCheck) Scan(env *Env) (*findings.Outcome, error) {
	return perFunction(env, env.Files, func(f *source.File, fn *extract.Function) []findings.Finding {
		if n := CodeLines(fn.Body); n > c.Max {
			return at(f, fn.StartLine, fmt.Sprintf("Function length %d > %d", n, c.Max))
		}
		return nil
	}), nil
}

var (
	arrayDeclPattern = regexp.MustCompile(`^\s*(?:const\s+)?([A-Za-z_][\w:]*)\s+\w+\s*\[\s*(\d+)\s*\]\s*(?:=\s*\{)?\s*;\s*$`)
	primitiveSizes   = map[string]int{
		"char":     1,
		"int8_t":   1,
		"uint8_t":  1,
		"bool":     1,
		"int16_t":  2,
		"uint16_t": 2,
		"int32_t":  4,
		"uint32_t": 4,
		"float":    4,
		"double":   8,
	}
)

// StackBytes sums size*count of fixed-size primitive arrays declared one per
// line in body. Arrays of other element types are ignored.
func StackBytes(body string) int {
	total := 0
	for _, line := range strings.Split(body, "\n") {
		m := arrayDeclPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		size, ok := primitiveSizes[m[1]]
		if !ok {
			continue
		}
		count, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		total += size * count
	}
	return total
}

type StackCheck struct {
	MaxBytes int
}

func (c StackCheck) Scan(env *Env) (*findings.Outcome, error) {
	return perFunction(env, env.Files, func(f *source.File, fn *extract.Function) []findings.Finding {
		if n := StackBytes(fn.Body); n > c.MaxBytes {
			return at(f, fn.StartLine, fmt.Sprintf("Estimated stack arrays %d bytes > %d", n, c.MaxBytes))
		}
		return nil
	}), nil
}

// FileLengthCheck flags files whose code line count, as measured by gocloc,
// exceeds Max.
type FileLengthCheck struct {
	Max int
}

func (c FileLengthCheck) Scan(env *Env) (*findings.Outcome, error) {
	counts, err := CountCodeLines(env.Files)
	if err != nil {
		return nil, err
	}
	list := []findings.Finding{}
	for _, f := range env.Files {
		if n, ok := counts[f.Path]; ok && n > c.Max {
			list = append(list, findings.Finding{Path: f.Path, Line: 1, Message: fmt.Sprintf("File length %d > %d", n, c.Max)})
		}
	}
	return findings.Found(list), nil
}

// CountCodeLines returns the gocloc code line count of each file keyed by
// path.
func CountCodeLines(files []*source.File) (map[string]int, error) {
	counts := make(map[string]int)
	if len(files) == 0 {
		return counts, nil
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	languages := gocloc.NewDefinedLanguages()
	processor := gocloc.NewProcessor(languages, gocloc.NewClocOptions())
	result, err := processor.Analyze(paths)
	if err != nil {
		glog.Errorf("gocloc fail: %v", err)
		return nil, fmt.Errorf("gocloc: %v", err)
	}
	for _, file := range result.Files {
		counts[file.Name] = int(file.Code)
	}
	return counts, nil
}
