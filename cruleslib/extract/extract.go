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
Package extract approximates function boundaries in C/C++ text by counting
braces. It is not a parser.

A line opens a function when, trimmed, it looks like

	type name(args) {

with no ';' inside the parentheses and '{' as the last character. Every
following line adds its '{' count and subtracts its '}' count; the function
ends on the line where the depth returns to zero. Braces inside string
literals and comments are counted too. A region still open at end of text
produces no function.
*/
package extract

import (
	"regexp"
	"strings"
)

var (
	headerPattern = regexp.MustCompile(`^[a-zA-Z_][\w\s\*]*\s+[a-zA-Z_][\w]*\s*\([^;]*\)\s*\{\s*$`)
	namePattern   = regexp.MustCompile(`([a-zA-Z_]\w*)\s*\(`)
)

type Function struct {
	Name   string
	Header string
	// StartLine and EndLine are 1-based and inclusive.
	StartLine int
	EndLine   int
	// Body is the text of lines StartLine..EndLine, header included.
	Body string
}

func (f *Function) Lines() []string {
	return strings.Split(f.Body, "\n")
}

// Lines splits text the way the analyzers number lines: "\n" separated, a
// trailing "\r" dropped, no empty element after a final newline.
func Lines(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Scanner yields the functions of one text lazily, in start line order.
// Reset restarts the sequence from the top.
type Scanner struct {
	lines []string
	next  int
	fn    *Function
}

func NewScanner(text string) *Scanner {
	return &Scanner{lines: Lines(text)}
}

func (s *Scanner) Scan() bool {
	s.fn = nil
	inFunc := false
	depth := 0
	start := 0
	for s.next < len(s.lines) {
		i := s.next
		s.next++
		stripped := strings.TrimSpace(s.lines[i])
		if !inFunc {
			if headerPattern.MatchString(stripped) {
				inFunc = true
				depth = 1
				start = i
			}
			continue
		}
		depth += strings.Count(stripped, "{") - strings.Count(stripped, "}")
		if depth <= 0 {
			s.fn = s.build(start, i)
			return true
		}
	}
	return false
}

func (s *Scanner) build(start, end int) *Function {
	header := strings.TrimSpace(s.lines[start])
	name := ""
	if m := namePattern.FindStringSubmatch(header); m != nil {
		name = m[1]
	}
	return &Function{
		Name:      name,
		Header:    header,
		StartLine: start + 1,
		EndLine:   end + 1,
		Body:      strings.Join(s.lines[start:end+1], "\n"),
	}
}

func (s *Scanner) Function() *Function {
	return s.fn
}

func (s *Scanner) Reset() {
	s.next = 0
	s.fn = nil
}

// Functions collects every function of text.
func Functions(text string) []*Function {
	s := NewScanner(text)
	fns := []*Function{}
	for s.Scan() {
		fns = append(fns, s.Function())
	}
	return fns
}
