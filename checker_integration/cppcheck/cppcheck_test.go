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

package cppcheck

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"naive.systems/rulecheck/cruleslib/options"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8"?>
<results version="2">
    <cppcheck version="2.13.0"/>
    <errors>
        <error id="nullPointer" severity="error" msg="Null pointer dereference: p" verbose="Null pointer dereference: p">
            <location file="src/main.c" line="12" column="5"/>
        </error>
        <error id="variableScope" severity="style" msg="The scope of the variable 'i' can be reduced.">
            <location file="src/util.c" line="3" column="9"/>
        </error>
        <error id="toomanyconfigs" severity="information" msg="Too many #ifdef configurations"/>
    </errors>
</results>
`

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFindReports(t *testing.T) {
	dir := t.TempDir()
	if got := FindReports(dir); len(got) != 0 {
		t.Errorf("expected no reports, got %v", got)
	}
	for _, name := range []string{"static_analysis.xml", "cppcheck_b.xml", "cppcheck_a.xml", "other.xml"} {
		writeFile(t, filepath.Join(dir, name), sampleReport, 0644)
	}
	expected := []string{
		filepath.Join(dir, "cppcheck_a.xml"),
		filepath.Join(dir, "cppcheck_b.xml"),
		filepath.Join(dir, "static_analysis.xml"),
	}
	if got := FindReports(dir); !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result. got: %v, expected: %v", got, expected)
	}
}

func TestReadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cppcheck.xml")
	writeFile(t, path, sampleReport, 0644)
	report, err := ReadReport(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Version.Version != "2.13.0" {
		t.Errorf("unexpected version %q", report.Version.Version)
	}
	expected := []Issue{
		{Id: "nullPointer", Severity: "error", Msg: "Null pointer dereference: p", File: "src/main.c", Line: 12},
		{Id: "variableScope", Severity: "style", Msg: "The scope of the variable 'i' can be reduced.", File: "src/util.c", Line: 3},
		{Id: "toomanyconfigs", Severity: "information", Msg: "Too many #ifdef configurations", File: path, Line: 1},
	}
	if got := report.Issues(path); !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result. got: %v, expected: %v", got, expected)
	}
	counts := report.CountSeverities()
	expectedCounts := map[string]int{"error": 1, "warning": 0, "style": 1, "performance": 0, "portability": 0}
	if !reflect.DeepEqual(counts, expectedCounts) {
		t.Errorf("unexpected result. got: %v, expected: %v", counts, expectedCounts)
	}
}

func TestReadReportMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cppcheck.xml")
	writeFile(t, path, "<results><errors><error", 0644)
	if _, err := ReadReport(path); err == nil {
		t.Errorf("expected an error for a truncated report")
	}
}

func TestBuildArgs(t *testing.T) {
	cfg := options.Default()
	cfg.Cppcheck.IncludeDirs = []string{"inc"}
	cfg.Cppcheck.ExtraArgs = `--suppress=knownConditionTrueFalse -D"NAME=a b"`
	args, err := BuildArgs(cfg, "src", "out/static_analysis.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(args, " ")
	for _, expected := range []string{"--enable=all", "--std=c++17", "-Isrc", "-Iinc", "--xml-version=2", "--output-file=out/static_analysis.xml", "-DNAME=a b"} {
		if !strings.Contains(joined, expected) {
			t.Errorf("missing %q in %v", expected, args)
		}
	}
	if args[len(args)-1] != "src" {
		t.Errorf("source dir must come last: %v", args)
	}
	cfg.Cppcheck.ExtraArgs = `"unterminated`
	if _, err := BuildArgs(cfg, "src", "x.xml"); err == nil {
		t.Errorf("expected an error for unbalanced quotes")
	}
}

func TestStaticAnalysis(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "bin", "cppcheck")
	writeFile(t, fake, `#!/bin/sh
for a in "$@"; do
  case "$a" in
    --output-file=*) out="${a#--output-file=}" ;;
  esac
done
cat > "$out" <<'XML'
`+sampleReport+`XML
echo "src/main.c:12:5: error: Null pointer dereference: p"
exit 1
`, 0755)
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "main.c"), "int main(void) { return 0; }\n", 0644)
	results := filepath.Join(dir, "results")

	cfg := options.Default()
	cfg.Cppcheck.Bin = fake
	summary, err := StaticAnalysis(context.Background(), cfg, dir, src, results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.HasIssues() {
		t.Errorf("expected issues in %v", summary.Counts)
	}
	text, err := os.ReadFile(summary.TextPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, expected := range []string{"STATIC ANALYSIS REPORT", "Source Directory: " + src, "Null pointer dereference", "SUMMARY", "Errors:       1", "Style:        1"} {
		if !strings.Contains(string(text), expected) {
			t.Errorf("missing %q in report:\n%s", expected, text)
		}
	}
}

func TestStaticAnalysisMissingTool(t *testing.T) {
	dir := t.TempDir()
	cfg := options.Default()
	cfg.Cppcheck.Bin = filepath.Join(dir, "absent", "cppcheck")
	if _, err := StaticAnalysis(context.Background(), cfg, dir, dir, filepath.Join(dir, "results")); err == nil {
		t.Errorf("expected an error when cppcheck is missing")
	}
}
