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

package diff

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type Hunk struct {
	OldPos, OldLines, NewPos, NewLines int
}

type File struct {
	NewName string
	OldName string
	Hunks   []*Hunk
}

type Patch struct {
	Files []*File
}

var hunkHeader = regexp.MustCompile(`@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse reads a unified diff into a Patch. Only "--- ", "+++ " and "@@ -"
// lines matter. OldName is empty for an added file and NewName is empty for
// a deleted one.
func Parse(diff string) (*Patch, error) {
	lines := strings.Split(diff, "\n")
	var p Patch
	var f *File
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "--- "):
			f = &File{}
			switch {
			case line == "--- /dev/null":
				// file addition
			case strings.HasPrefix(line, "--- a/"):
				f.OldName = strings.TrimPrefix(line, "--- a/")
			default:
				return nil, fmt.Errorf("invalid line %d '%s'", i, line)
			}
			p.Files = append(p.Files, f)
		case strings.HasPrefix(line, "+++ "):
			if f == nil || len(f.Hunks) > 0 {
				return nil, fmt.Errorf("unexpected line %d '%s'", i, line)
			}
			switch {
			case line == "+++ /dev/null":
				// file deletion
			case strings.HasPrefix(line, "+++ b/"):
				f.NewName = strings.TrimPrefix(line, "+++ b/")
			default:
				return nil, fmt.Errorf("invalid line %d '%s'", i, line)
			}
		case strings.HasPrefix(line, "@@ -"):
			match := hunkHeader.FindStringSubmatch(line)
			if match == nil {
				return nil, fmt.Errorf("could not extract hunk info from line '%s'", line)
			}
			n, err := hunkNumbers(match)
			if err != nil {
				return nil, fmt.Errorf("bad hunk header '%s': %v", line, err)
			}
			if f == nil {
				return nil, fmt.Errorf("hunk before any file header at line %d", i)
			}
			f.Hunks = append(f.Hunks, &Hunk{n[0], n[1], n[2], n[3]})
		}
	}
	return &p, nil
}

// hunkNumbers converts the four captures of a hunk header. An omitted line
// count means one line.
func hunkNumbers(match []string) ([4]int, error) {
	n := [4]int{0, 1, 0, 1}
	for i, m := range match[1:5] {
		if m == "" {
			continue
		}
		v, err := strconv.Atoi(m)
		if err != nil {
			return n, err
		}
		n[i] = v
	}
	return n, nil
}

// ReadFile parses the diff stored at path.
func ReadFile(path string) (*Patch, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read diff %s: %v", path, err)
	}
	return Parse(string(content))
}

// ChangedLines maps new file names, slash separated and relative to the
// diff root, to the line ranges their hunks touch.
type ChangedLines map[string][][2]int

// Changes indexes the new side of every hunk. Deleted files are left out.
func (p *Patch) Changes() ChangedLines {
	changes := ChangedLines{}
	for _, f := range p.Files {
		if f.NewName == "" {
			continue
		}
		for _, h := range f.Hunks {
			if h.NewLines == 0 {
				continue
			}
			changes[f.NewName] = append(changes[f.NewName], [2]int{h.NewPos, h.NewPos + h.NewLines - 1})
		}
	}
	return changes
}

// Contains reports whether line of path falls inside a changed range. path
// is matched against the diff names by its trailing components, so absolute
// and repository relative paths both work.
func (c ChangedLines) Contains(path string, line int) bool {
	slashed := filepath.ToSlash(path)
	for name, ranges := range c {
		if slashed != name && !strings.HasSuffix(slashed, "/"+name) {
			continue
		}
		for _, r := range ranges {
			if line >= r[0] && line <= r[1] {
				return true
			}
		}
	}
	return false
}
