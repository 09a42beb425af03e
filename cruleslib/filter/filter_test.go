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

package filter

import (
	"reflect"
	"testing"

	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/diff"
)

func TestProcessIgnorePatterns(t *testing.T) {
	list := []findings.Finding{
		{Path: "/work/src/main.c", Line: 1, Message: "a"},
		{Path: "/work/src/third_party/lib.c", Line: 2, Message: "b"},
		{Path: "src/gen/table.c", Line: 3, Message: "c"},
	}
	for _, testCase := range [...]struct {
		name     string
		patterns []string
		expected []findings.Finding
	}{
		{"no patterns", nil, list},
		{"relative to root", []string{"third_party/**"}, []findings.Finding{list[0], list[2]}},
		{"as written", []string{"src/gen/*.c"}, []findings.Finding{list[0], list[1]}},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			got := ProcessIgnorePatterns(list, "/work/src", testCase.patterns)
			if !reflect.DeepEqual(got, testCase.expected) {
				t.Errorf("unexpected result. got: %v, expected: %v", got, testCase.expected)
			}
		})
	}
}

func TestDeleteUnchangedFindings(t *testing.T) {
	list := []findings.Finding{
		{Path: "/work/src/main.c", Line: 4, Message: "in hunk"},
		{Path: "/work/src/main.c", Line: 40, Message: "outside"},
		{Path: "/work/src/other.c", Line: 4, Message: "other file"},
	}
	if got := DeleteUnchangedFindings(list, nil); !reflect.DeepEqual(got, list) {
		t.Errorf("nil changes keep everything, got %v", got)
	}
	changes := diff.ChangedLines{"src/main.c": {{2, 6}}}
	expected := []findings.Finding{list[0]}
	if got := DeleteUnchangedFindings(list, changes); !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result. got: %v, expected: %v", got, expected)
	}
}

func TestApply(t *testing.T) {
	list := []findings.Finding{
		{Path: "b.c", Line: 9, Message: "x"},
		{Path: "a.c", Line: 5, Message: "x"},
		{Path: "b.c", Line: 9, Message: "x"},
		{Path: "a.c", Line: 1, Message: "y"},
	}
	expected := []findings.Finding{
		{Path: "a.c", Line: 1, Message: "y"},
		{Path: "a.c", Line: 5, Message: "x"},
	}
	if got := Apply(list, ".", nil, nil, 2); !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result. got: %v, expected: %v", got, expected)
	}
	if got := Apply(list, ".", nil, nil, 0); len(got) != 3 {
		t.Errorf("expected 3 unique findings, got %v", got)
	}
}
