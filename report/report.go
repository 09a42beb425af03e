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
Package report folds rule log records into the compliance summary and its
machine readable exports. Every output is a pure function of the records,
the registry and the timestamp it was given.
*/
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/owenrumney/go-sarif/v2/sarif"
	"golang.org/x/exp/slices"
	"naive.systems/rulecheck/atomic"
	"naive.systems/rulecheck/cruleslib/basic"
	"naive.systems/rulecheck/cruleslib/findings"
	"naive.systems/rulecheck/cruleslib/rulelog"
	"naive.systems/rulecheck/cruleslib/stats"
	"naive.systems/rulecheck/rulesets"
)

const (
	SummaryFileName = "rules_summary.md"
	JSONFileName    = "rules_results.json"
	SARIFFileName   = "rules_results.sarif"

	// OtherGroup collects ids that belong to no registered group.
	OtherGroup = "other"
)

// Row is one rule of the report.
type Row struct {
	ID          string
	OriginalID  string
	Description string
	Groups      []string
	Result      rulelog.Result
}

type GroupTable struct {
	Name        string
	Description string
	Rows        []*Row
}

type ComplianceReport struct {
	Timestamp time.Time
	SrcPath   string
	Summary   stats.StatusCount
	// Rows follow the order the results were given in.
	Rows   []*Row
	Groups []*GroupTable
}

// Build lays results out by group. Groups come in registry order and list
// only the ids present in results; ids of no group go to a trailing "other"
// table in lexical order. Totals count each result once.
func Build(reg *rulesets.Registry, results []rulelog.Result, srcPath string, ts time.Time) *ComplianceReport {
	r := &ComplianceReport{
		Timestamp: ts,
		SrcPath:   srcPath,
		Summary:   stats.CountStatuses(results),
	}
	byID := make(map[string]*Row, len(results))
	for _, res := range results {
		row := &Row{ID: res.ID, Result: res, Groups: reg.GroupsOf(res.ID)}
		if def, ok := reg.Lookup(res.ID); ok {
			row.OriginalID = def.OriginalID
			row.Description = def.Description
		}
		r.Rows = append(r.Rows, row)
		byID[res.ID] = row
	}
	for _, g := range reg.Groups() {
		table := &GroupTable{Name: g.Name, Description: g.Description}
		for _, id := range g.IDs {
			if row, ok := byID[id]; ok {
				table.Rows = append(table.Rows, row)
			}
		}
		if len(table.Rows) > 0 {
			r.Groups = append(r.Groups, table)
		}
	}
	other := &GroupTable{Name: OtherGroup}
	for _, row := range r.Rows {
		if len(row.Groups) == 0 {
			other.Rows = append(other.Rows, row)
		}
	}
	if len(other.Rows) > 0 {
		slices.SortFunc(other.Rows, func(a, b *Row) bool { return a.ID < b.ID })
		r.Groups = append(r.Groups, other)
	}
	return r
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func statusCell(s rulelog.Status) string {
	switch s {
	case rulelog.NotRun:
		return "-"
	case rulelog.Pass:
		return "✅ PASS"
	case rulelog.Fail:
		return "❌ FAIL"
	default:
		return string(s)
	}
}

func (row *Row) markdown() string {
	status := row.Result.Status
	logCell := "-"
	if status != rulelog.NotRun {
		name := rulelog.FileName(row.ID)
		logCell = fmt.Sprintf("[%s](./%s)", name, name)
	}
	instances := "-"
	if status == rulelog.Fail {
		instances = fmt.Sprint(row.Result.Instances)
	}
	return fmt.Sprintf("| %s | %s | %s | %s |", row.ID, statusCell(status), instances, logCell)
}

// Markdown renders rules_summary.md.
func (r *ComplianceReport) Markdown() string {
	lines := []string{"# Rule Summary", ""}
	lines = append(lines, fmt.Sprintf("**Generated:** %s", r.Timestamp.Format(basic.TimestampLayout)))
	if r.SrcPath != "" {
		lines = append(lines, fmt.Sprintf("**Source Path:** `%s`", r.SrcPath))
	}
	lines = append(lines,
		"",
		"## Status Summary",
		"",
		fmt.Sprintf("✅ **Total PASS:** %d", r.Summary.Pass),
		fmt.Sprintf("❌ **Total FAIL:** %d", r.Summary.Fail),
	)
	if r.Summary.Skip > 0 {
		lines = append(lines, fmt.Sprintf("⏭️ **Total SKIP:** %d", r.Summary.Skip))
	}
	if r.Summary.NotRun > 0 {
		lines = append(lines, fmt.Sprintf("➖ **Total NOT_RUN:** %d", r.Summary.NotRun))
	}
	if r.Summary.Unknown > 0 {
		lines = append(lines, fmt.Sprintf("❔ **Total UNKNOWN:** %d", r.Summary.Unknown))
	}
	lines = append(lines, "")
	for _, g := range r.Groups {
		lines = append(lines, "", "## Group: "+capitalize(g.Name), "")
		if g.Description != "" {
			lines = append(lines, g.Description, "")
		}
		lines = append(lines,
			"| Rule ID | Status | Instances | Log |",
			"|---------|--------|-----------|-----|",
		)
		for _, row := range g.Rows {
			lines = append(lines, row.markdown())
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

type jsonFinding struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type jsonRule struct {
	ID          string         `json:"id"`
	OriginalID  string         `json:"original_id,omitempty"`
	Description string         `json:"description,omitempty"`
	Groups      []string       `json:"groups"`
	Status      rulelog.Status `json:"status"`
	ExitCode    int            `json:"exit_code"`
	Instances   int            `json:"instances"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Findings    []jsonFinding  `json:"findings"`
}

type jsonReport struct {
	Generated string            `json:"generated"`
	SrcPath   string            `json:"src_path"`
	Summary   stats.StatusCount `json:"summary"`
	Rules     []jsonRule        `json:"rules"`
}

// FindingID derives a stable id from the rule and the finding, so equal
// runs export equal ids.
func FindingID(ruleID string, f findings.Finding) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(ruleID+"\x00"+f.String())).String()
}

func (r *ComplianceReport) JSON() ([]byte, error) {
	out := jsonReport{
		Generated: r.Timestamp.Format(basic.TimestampLayout),
		SrcPath:   r.SrcPath,
		Summary:   r.Summary,
		Rules:     make([]jsonRule, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		rule := jsonRule{
			ID:          row.ID,
			OriginalID:  row.OriginalID,
			Description: row.Description,
			Groups:      row.Groups,
			Status:      row.Result.Status,
			ExitCode:    row.Result.ExitCode,
			Instances:   row.Result.Instances,
			Reason:      row.Result.Reason,
			Findings:    []jsonFinding{},
		}
		if !row.Result.Timestamp.IsZero() {
			rule.Timestamp = row.Result.Timestamp.Format(basic.TimestampLayout)
		}
		for _, f := range row.Result.Findings {
			rule.Findings = append(rule.Findings, jsonFinding{
				ID:      FindingID(row.ID, f),
				Path:    f.Path,
				Line:    f.Line,
				Message: f.Message,
			})
		}
		out.Rules = append(out.Rules, rule)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %v", err)
	}
	return append(b, '\n'), nil
}

// SARIF exports the findings of failing rules as a SARIF 2.1.0 log. Every
// rule of the report is declared so that passing rules are listed too.
func (r *ComplianceReport) SARIF() ([]byte, error) {
	log, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %v", err)
	}
	run := sarif.NewRunWithInformationURI("rulecheck", "./"+SummaryFileName)
	for _, row := range r.Rows {
		description := row.Description
		if description == "" {
			description = row.ID
		}
		rule := run.AddRule(row.ID).WithDescription(description)
		if row.Result.Status != rulelog.Fail {
			continue
		}
		for _, f := range row.Result.Findings {
			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(filepath.ToSlash(f.Path))).
					WithRegion(sarif.NewRegion().WithStartLine(f.Line)),
			)
			result := sarif.NewRuleResult(rule.ID).
				WithMessage(sarif.NewTextMessage(f.Message)).
				WithLevel("error").
				WithLocations([]*sarif.Location{location})
			run.AddResult(result)
		}
	}
	log.AddRun(run)
	var b bytes.Buffer
	if err := log.PrettyWrite(&b); err != nil {
		return nil, fmt.Errorf("failed to encode SARIF report: %v", err)
	}
	return b.Bytes(), nil
}

// WriteMarkdown writes rules_summary.md into dir and returns its path.
func (r *ComplianceReport) WriteMarkdown(dir string) (string, error) {
	path := filepath.Join(dir, SummaryFileName)
	if err := atomic.WriteString(path, r.Markdown()); err != nil {
		return path, fmt.Errorf("failed to write %s: %v", path, err)
	}
	return path, nil
}

// WriteAll writes the markdown summary, the JSON and SARIF exports and the
// status counts into dir. Only the markdown summary is mandatory; the other
// files are logged on failure.
func (r *ComplianceReport) WriteAll(dir string) (string, error) {
	path, err := r.WriteMarkdown(dir)
	if err != nil {
		return path, err
	}
	exports := []struct {
		name   string
		encode func() ([]byte, error)
	}{
		{JSONFileName, r.JSON},
		{SARIFFileName, r.SARIF},
	}
	for _, export := range exports {
		content, err := export.encode()
		if err != nil {
			glog.Errorf("failed to encode %s: %v", export.name, err)
			continue
		}
		if err := atomic.Write(filepath.Join(dir, export.name), content); err != nil {
			glog.Errorf("failed to write %s: %v", export.name, err)
		}
	}
	results := make([]rulelog.Result, 0, len(r.Rows))
	for _, row := range r.Rows {
		results = append(results, row.Result)
	}
	stats.CountStatusAndWrite(results, dir)
	return path, nil
}
