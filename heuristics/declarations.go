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
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
	"naive.systems/rulecheck/cruleslib/extract"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/cruleslib/source"
)

var (
	bareDeclPattern = regexp.MustCompile(`^\s*\w[\w\s\*]*\s+\w+\s*;\s*$`)
	// Declarations starting with these words are not local objects.
	nonObjectQualifiers = []string{"extern", "static", "const", "typedef", "struct", "enum", "union", "volatile"}
)

var headerExts = []string{".h", ".hpp"}

func startsWithQualifier(trimmed string) bool {
	for _, q := range nonObjectQualifiers {
		if strings.HasPrefix(trimmed, q) {
			return true
		}
	}
	return false
}

// UninitializedCheck flags bare "type name;" lines outside headers.
type UninitializedCheck struct{}

func (UninitializedCheck) Scan(env *Env) (*findings.Outcome, error) {
	files := []*source.File{}
	for _, f := range env.Files {
		if !slices.Contains(headerExts, f.Ext) {
			files = append(files, f)
		}
	}
	return perLine(files, func(f *source.File, line int, text string) []findings.Finding {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "return ") {
			return nil
		}
		if strings.ContainsAny(text, "()") {
			return nil
		}
		if startsWithQualifier(trimmed) || !bareDeclPattern.MatchString(text) {
			return nil
		}
		return at(f, line, "Possible uninitialized declaration")
	}), nil
}

var (
	standaloneCallPattern = regexp.MustCompile(`^\s*[A-Za-z_]\w*\s*\([^;]*\)\s*;\s*$`)
	controlKeywordPattern = regexp.MustCompile(`^\s*(if|for|while|switch|return)\b`)
	calleePattern         = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*\(`)
)

// UnusedResultCheck flags statements consisting only of a call whose
// result is dropped without a (void) cast.
type UnusedResultCheck struct {
	Allowlist []string
}

func (c UnusedResultCheck) Scan(env *Env) (*findings.Outcome, error) {
	return perLine(env.Files, func(f *source.File, line int, text string) []findings.Finding {
		if controlKeywordPattern.MatchString(text) {
			return nil
		}
		if !standaloneCallPattern.MatchString(text) || strings.Contains(text, "(void)") {
			return nil
		}
		if m := calleePattern.FindStringSubmatch(text); m != nil && slices.Contains(c.Allowlist, m[1]) {
			return nil
		}
		return at(f, line, "Possible unchecked return value")
	}), nil
}

var (
	globalCandidatePattern = regexp.MustCompile(`^\s*\w+.*\s+\w+\s*[=;]`)
	globalNamePattern      = regexp.MustCompile(`(\w+)\s*(?:=|;)`)
	globalSkipPathParts    = []string{"test", "mock", "Test"}
)

// GlobalsCheck flags variable definitions at file scope (brace depth zero)
// in implementation files. Test and mock files are skipped.
type GlobalsCheck struct{}

func (GlobalsCheck) Scan(env *Env) (*findings.Outcome, error) {
	list := []findings.Finding{}
	for _, f := range env.Files {
		if slices.Contains(headerExts, f.Ext) || skipGlobalsPath(env.SrcPath, f.Path) {
			continue
		}
		depth := 0
		for i, text := range extract.Lines(f.Content) {
			depth += strings.Count(text, "{") - strings.Count(text, "}")
			if depth > 0 {
				continue
			}
			trimmed := strings.TrimSpace(text)
			if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if strings.Contains(text, "(") && strings.Contains(text, ")") && !strings.Contains(text, "{") {
				continue
			}
			if !globalCandidatePattern.MatchString(text) {
				continue
			}
			if strings.Contains(text, "extern") || strings.Contains(text, "static const") || strings.Contains(text, "const ") {
				continue
			}
			if m := globalNamePattern.FindStringSubmatch(trimmed); m != nil {
				list = append(list, findings.Finding{
					Path:    f.Path,
					Line:    i + 1,
					Message: fmt.Sprintf("Global variable '%s' should be minimized", m[1]),
				})
			}
		}
	}
	return findings.Found(list), nil
}

func skipGlobalsPath(root, path string) bool {
	if rel, err := filepath.Rel(root, path); err == nil && rel != "." {
		path = rel
	} else {
		path = filepath.Base(path)
	}
	for _, part := range globalSkipPathParts {
		if strings.Contains(path, part) {
			return true
		}
	}
	return false
}
