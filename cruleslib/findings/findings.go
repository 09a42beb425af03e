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
This package should not import any packages of other analyzers to
avoid recursive import.
*/
package findings

import (
	"fmt"
	"sort"
)

// A Finding is one location a heuristic flagged. Line is 1-based.
type Finding struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: %s", f.Path, f.Line, f.Message)
}

// Outcome is what one analyzer invocation produced. When Skipped is set a
// prerequisite artifact was absent; any Findings are still listed but do not
// make the rule fail.
type Outcome struct {
	Findings []Finding
	Skipped  bool
	Reason   string
}

func Found(list []Finding) *Outcome {
	return &Outcome{Findings: list}
}

func Skip(format string, args ...any) *Outcome {
	return &Outcome{Skipped: true, Reason: fmt.Sprintf(format, args...)}
}

func (o *Outcome) Failed() bool {
	return !o.Skipped && len(o.Findings) > 0
}

// Set keeps the first occurrence of every (path, line, message) triple in
// insertion order.
type Set struct {
	seen map[Finding]struct{}
	list []Finding
}

func NewSet() *Set {
	return &Set{seen: make(map[Finding]struct{})}
}

func (s *Set) Add(f Finding) bool {
	if _, ok := s.seen[f]; ok {
		return false
	}
	s.seen[f] = struct{}{}
	s.list = append(s.list, f)
	return true
}

func (s *Set) AddAll(list []Finding) {
	for _, f := range list {
		s.Add(f)
	}
}

func (s *Set) Len() int {
	return len(s.list)
}

func (s *Set) List() []Finding {
	out := make([]Finding, len(s.list))
	copy(out, s.list)
	return out
}

// Sort orders findings by path, then line. Findings on the same line keep
// their relative order.
func Sort(list []Finding) []Finding {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Path != list[j].Path {
			return list[i].Path < list[j].Path
		}
		return list[i].Line < list[j].Line
	})
	return list
}

// Limit truncates list to max entries; max <= 0 disables the cap.
func Limit(list []Finding, max int) []Finding {
	if max <= 0 || len(list) <= max {
		return list
	}
	return list[:max]
}
