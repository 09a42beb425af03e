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

package extract

import (
	"reflect"
	"testing"
)

type span struct {
	name       string
	start, end int
}

func spans(fns []*Function) []span {
	out := []span{}
	for _, f := range fns {
		out = append(out, span{f.Name, f.StartLine, f.EndLine})
	}
	return out
}

func TestFunctions(t *testing.T) {
	for _, testCase := range [...]struct {
		name     string
		text     string
		expected []span
	}{
		{
			name: "two functions",
			text: "#include <stdint.h>\n" +
				"static int add(int a, int b) {\n" +
				"    return a + b;\n" +
				"}\n" +
				"\n" +
				"void loop() {\n" +
				"    if (x) {\n" +
				"        y();\n" +
				"    }\n" +
				"}\n",
			expected: []span{{"add", 2, 4}, {"loop", 6, 10}},
		},
		{
			name:     "prototype does not open",
			text:     "int helper(int a);\nint helper(int a) {\n}\n",
			expected: []span{{"helper", 2, 3}},
		},
		{
			name:     "brace on next line is not recognized",
			text:     "int helper(void)\n{\n    return 0;\n}\n",
			expected: []span{},
		},
		{
			name:     "unterminated region",
			text:     "int broken(void) {\n    if (a) {\n}\n",
			expected: []span{},
		},
		{
			name:     "pointer return type and crlf",
			text:     "const char * name_of(int id) {\r\n    return names[id];\r\n}\r\n",
			expected: []span{{"name_of", 1, 3}},
		},
		{
			name:     "single line body closes on following line",
			text:     "void a(void) {\n}\nvoid b(void) {\n    int x = 0; }\n",
			expected: []span{{"a", 1, 2}, {"b", 3, 4}},
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			got := spans(Functions(testCase.text))
			if !reflect.DeepEqual(got, testCase.expected) {
				t.Errorf("unexpected result. got: %v, expected: %v", got, testCase.expected)
			}
		})
	}
}

func TestFunctionsOrderedAndDisjoint(t *testing.T) {
	text := "void a(void) {\n  {\n  }\n}\nint b(int x) {\n  return x;\n}\nint c(int y) {\n  return y;\n}\n"
	fns := Functions(text)
	if len(fns) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(fns))
	}
	for i := 1; i < len(fns); i++ {
		if fns[i].StartLine <= fns[i-1].EndLine {
			t.Errorf("regions overlap: %v and %v", spans(fns[i-1:i]), spans(fns[i:i+1]))
		}
	}
}

func TestScannerRestartable(t *testing.T) {
	text := "void a(void) {\n}\nvoid b(void) {\n}\n"
	s := NewScanner(text)
	first := []span{}
	for s.Scan() {
		first = append(first, span{s.Function().Name, s.Function().StartLine, s.Function().EndLine})
	}
	s.Reset()
	second := []span{}
	for s.Scan() {
		second = append(second, span{s.Function().Name, s.Function().StartLine, s.Function().EndLine})
	}
	if !reflect.DeepEqual(first, second) || len(first) != 2 {
		t.Errorf("unexpected result. first: %v, second: %v", first, second)
	}
	if s.Function() != nil {
		t.Errorf("exhausted scanner must not hold a function")
	}
}

func TestBodyIncludesHeader(t *testing.T) {
	fns := Functions("int f(void) {\n    return 1;\n}\n")
	expected := "int f(void) {\n    return 1;\n}"
	if len(fns) != 1 || fns[0].Body != expected || fns[0].Header != "int f(void) {" {
		t.Errorf("unexpected function %+v", fns)
	}
}
