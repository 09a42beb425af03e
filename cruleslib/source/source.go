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

package source

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/exp/slices"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// File is a read-only source or header file.
type File struct {
	Path    string
	Ext     string
	Content string
}

type Options struct {
	Extensions       []string
	IgnorePatterns   []string
	RespectGitignore bool
	Charset          string
}

// Enumerate lists candidate files under root in lexical order. A root that
// is itself a file yields that file when its extension is accepted.
func Enumerate(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source path %s: %v", root, err)
	}
	if !info.IsDir() {
		if slices.Contains(opts.Extensions, filepath.Ext(root)) {
			return []string{root}, nil
		}
		return []string{}, nil
	}
	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gi = loadGitignore(root)
	}
	paths := []string{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			glog.Warningf("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if gi != nil && gi.MatchesPath(rel+"/") {
				return fs.SkipDir
			}
			return nil
		}
		if !slices.Contains(opts.Extensions, filepath.Ext(path)) {
			return nil
		}
		if matchIgnorePatterns(opts.IgnorePatterns, rel) {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func matchIgnorePatterns(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			glog.Error("malformed ignore pattern ", pattern)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}

// ReadText decodes path to UTF-8. Invalid UTF-8 sequences are dropped.
func ReadText(path, charset string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return decode(b, charset)
}

func decode(b []byte, charset string) (string, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return strings.ToValidUTF8(string(b), ""), nil
	}
	e, err := ianaindex.MIME.Encoding(charset)
	if err != nil {
		return "", fmt.Errorf("ianaindex.MIME.Encoding %s: %v", charset, err)
	}
	if e == nil {
		return "", fmt.Errorf("charset %s not supported", charset)
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(b), e.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("decode as %s: %v", charset, err)
	}
	return strings.ToValidUTF8(string(decoded), ""), nil
}

// Load enumerates root and reads every file. A file that cannot be read or
// decoded is logged and left out.
func Load(root string, opts Options) ([]*File, error) {
	paths, err := Enumerate(root, opts)
	if err != nil {
		return nil, err
	}
	files := make([]*File, 0, len(paths))
	for _, path := range paths {
		content, err := ReadText(path, opts.Charset)
		if err != nil {
			glog.Errorf("failed to read %s: %v", path, err)
			continue
		}
		files = append(files, &File{Path: path, Ext: filepath.Ext(path), Content: content})
	}
	return files, nil
}

// Filter returns the files whose extension is one of exts.
func Filter(files []*File, exts ...string) []*File {
	out := []*File{}
	for _, f := range files {
		if slices.Contains(exts, f.Ext) {
			out = append(out, f)
		}
	}
	return out
}
