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

package rulesets

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"naive.systems/rulecheck/cruleslib/options"
	"naive.systems/rulecheck/heuristics"
)

type RuleDefinition struct {
	ID          string
	OriginalID  string
	Description string
	Analyzer    heuristics.Analyzer
	// RequiresReport is set for rules that read the cppcheck report, which
	// is generated before such rules run.
	RequiresReport bool
}

type RuleGroup struct {
	Name        string
	Description string
	IDs         []string
}

// Registry is the fixed rule table. Iteration follows declaration order.
type Registry struct {
	rules  []*RuleDefinition
	byID   map[string]*RuleDefinition
	groups []*RuleGroup
}

// to fix the sequence of group tables in reports
var GROUP_NAMES = []string{"nasa", "misra", "iso", "compiler", "cppcheck", "heuristic"}

var GROUPS = map[string]*RuleGroup{
	"nasa": {
		Description: "**NASA Power of Ten Rules** - Critical safety rules from NASA/JPL for resource-constrained embedded systems. Ensures predictability, reliability, and safety-critical code quality through strict control flow, bounded loops, and defensive assertions.",
		IDs: []string{
			"RULE-001", "RULE-002", "RULE-007", "RULE-009", "RULE-011",
			"RULE-012", "RULE-014", "RULE-023", "RULE-024", "RULE-026",
			"RULE-029", "RULE-033", "RULE-034", "RULE-037", "RULE-038",
			"RULE-039", "RULE-040",
		},
	},
	"misra": {
		Description: "**MISRA C:2012** - Motor Industry Software Reliability Association guidelines for safety-critical software. Prevents undefined behavior, improves code safety, portability, and maintainability across automotive and safety-critical domains.",
		IDs: []string{
			"RULE-049", "RULE-050", "RULE-051", "RULE-054", "RULE-055",
			"RULE-056", "RULE-058", "RULE-060", "RULE-062", "RULE-063",
			"RULE-064", "RULE-065", "RULE-066",
		},
	},
	"iso": {
		Description: "**ISO 25119** - Functional safety requirements for machinery control systems. Ensures requirement traceability, defensive programming practices, and compliance with automated safety standards.",
		IDs:         []string{"RULE-067", "RULE-068"},
	},
	"compiler": {
		Description: "**Compiler Checks** - Compiler flags and build configuration validation. Enforces aggressive warning levels and error detection at compile time to catch potential issues early.",
		IDs: []string{
			"RULE-023", "RULE-024", "RULE-037", "RULE-055",
			"RULE-056", "RULE-062",
		},
	},
	"cppcheck": {
		Description: "**Static Analysis (Cppcheck)** - Comprehensive static analysis to detect potential runtime errors, memory issues, undefined behavior, and code quality problems without execution.",
		IDs: []string{
			"RULE-039", "RULE-040", "RULE-049", "RULE-050", "RULE-051",
			"RULE-054", "RULE-055", "RULE-056", "RULE-058", "RULE-060",
			"RULE-062", "RULE-064",
		},
	},
	"heuristic": {
		Description: "**Custom Heuristics** - Project-specific pattern detection including stack usage analysis, NULL pointer checks, pointer arithmetic validation, and function complexity metrics.",
		IDs: []string{
			"RULE-011", "RULE-012", "RULE-014", "RULE-023", "RULE-024",
			"RULE-026", "RULE-033", "RULE-034", "RULE-063", "RULE-064",
			"RULE-067", "RULE-068",
		},
	},
}

var (
	dynamicAllocation = []string{`\bmalloc\b`, `\bcalloc\b`, `\brealloc\b`, `\bfree\b`}
	standardIO        = []string{`\bprintf\b`, `\bscanf\b`, `\bfopen\b`, `\bfclose\b`}
)

func flags(list ...string) heuristics.BuildFlagsCheck {
	return heuristics.BuildFlagsCheck{Flags: list}
}

func reportPatterns(list ...string) heuristics.ReportPatternCheck {
	return heuristics.ReportPatternCheck{Patterns: list}
}

func definitions(cfg *options.Config) []*RuleDefinition {
	t := cfg.Thresholds
	return []*RuleDefinition{
		{ID: "RULE-001", OriginalID: "R1.1", Description: "No goto statements",
			Analyzer: heuristics.PatternCheck{Patterns: []string{`\bgoto\b`}}},
		{ID: "RULE-002", OriginalID: "R1.2", Description: "No setjmp/longjmp",
			Analyzer: heuristics.PatternCheck{Patterns: []string{`\bsetjmp\b`, `\blongjmp\b`}}},
		{ID: "RULE-007", OriginalID: "R2.3", Description: fmt.Sprintf("No while(true)/for(;;) except %s", cfg.EntryPoint),
			Analyzer: heuristics.UnboundedLoopCheck{EntryPoint: cfg.EntryPoint}},
		{ID: "RULE-009", OriginalID: "R3.1", Description: "No malloc/calloc/realloc/free",
			Analyzer: heuristics.PatternCheck{Patterns: dynamicAllocation}},
		{ID: "RULE-011", OriginalID: "R3.4", Description: fmt.Sprintf("Stack usage per function <= %d bytes (heuristic)", t.MaxStackBytes),
			Analyzer: heuristics.StackCheck{MaxBytes: t.MaxStackBytes}},
		{ID: "RULE-012", OriginalID: "R4.1", Description: fmt.Sprintf("Function length <= %d lines", t.MaxFunctionLines),
			Analyzer: heuristics.FunctionLengthCheck{Max: t.MaxFunctionLines}},
		{ID: "RULE-014", OriginalID: "R4.3", Description: fmt.Sprintf("Cyclomatic complexity <= %d (heuristic)", t.MaxComplexity),
			Analyzer: heuristics.ComplexityCheck{Max: t.MaxComplexity}},
		{ID: "RULE-021", OriginalID: "R6.2", Description: "Minimize global variables",
			Analyzer: heuristics.GlobalsCheck{}},
		{ID: "RULE-023", OriginalID: "R6.4", Description: "Initialize variables at declaration (heuristic)",
			Analyzer: heuristics.Chain{Gate: flags("-Wuninitialized"), Then: heuristics.UninitializedCheck{}}},
		{ID: "RULE-024", OriginalID: "R7.1", Description: "Check all return values (heuristic)",
			Analyzer: heuristics.Chain{Gate: flags("-Wunused-result"), Then: heuristics.UnusedResultCheck{Allowlist: cfg.UnusedResultAllowlist}}},
		{ID: "RULE-026", OriginalID: "R7.3", Description: "Pointer parameters must be NULL-checked (heuristic)",
			Analyzer: heuristics.NullDerefCheck{}},
		{ID: "RULE-029", OriginalID: "R8.2", Description: "No function-like macros",
			Analyzer: heuristics.PatternCheck{Patterns: []string{`#define\s+\w+\s*\(`}}},
		{ID: "RULE-033", OriginalID: "R9.2", Description: "No pointer arithmetic (heuristic)",
			Analyzer: heuristics.PointerArithmeticCheck{}},
		{ID: "RULE-034", OriginalID: "R9.3", Description: "No function pointers",
			Analyzer: heuristics.FunctionPointerCheck()},
		{ID: "RULE-035", OriginalID: "R9.4", Description: "No multi-level pointers",
			Analyzer: heuristics.MultiLevelPointerCheck{}},
		{ID: "RULE-037", OriginalID: "R10.1", Description: "Required compiler flags present",
			Analyzer: flags("-Wall", "-Wextra", "-Werror", "-pedantic")},
		{ID: "RULE-038", OriginalID: "R10.2", Description: "Zero compiler warnings (requires build log)",
			Analyzer: heuristics.BuildLogCheck{}},
		{ID: "RULE-039", OriginalID: "R10.3", Description: "Cppcheck report exists",
			Analyzer: heuristics.ReportPresentCheck{}, RequiresReport: true},
		{ID: "RULE-040", OriginalID: "R10.4", Description: "Zero cppcheck errors",
			Analyzer: heuristics.ReportErrorsCheck{}, RequiresReport: true},
		{ID: "RULE-049", OriginalID: "MISRA-1.3", Description: "No undefined or critical unspecified behavior (cppcheck)",
			Analyzer: heuristics.ReportErrorsCheck{}, RequiresReport: true},
		{ID: "RULE-050", OriginalID: "MISRA-2.1", Description: "No unreachable code (cppcheck)",
			Analyzer: reportPatterns(`unreachable`, `unreachableCode`), RequiresReport: true},
		{ID: "RULE-051", OriginalID: "MISRA-2.2", Description: "No dead code (cppcheck)",
			Analyzer: reportPatterns(`unreachable`, `dead code`, `after break`, `after return`), RequiresReport: true},
		{ID: "RULE-052", OriginalID: "R14.4", Description: fmt.Sprintf("File length <= %d lines (Code Quality Metrics)", t.MaxFileLines),
			Analyzer: heuristics.FileLengthCheck{Max: t.MaxFileLines}},
		{ID: "RULE-053", OriginalID: "R14.5", Description: fmt.Sprintf("Assertions >= %d per function (Code Quality Metrics)", t.MinAssertsPerFunction),
			Analyzer: heuristics.AssertsPerFunctionCheck{Min: t.MinAssertsPerFunction}},
		{ID: "RULE-054", OriginalID: "MISRA-9.1", Description: "No uninitialized auto vars (cppcheck)",
			Analyzer: reportPatterns(`uninit`, `uninitialized`), RequiresReport: true},
		{ID: "RULE-055", OriginalID: "MISRA-10.1", Description: "Appropriate essential types (cppcheck/misra)",
			Analyzer:       heuristics.Merge{flags("-Wconversion"), reportPatterns(`misra.*10\.1`, `sign`, `conversion`)},
			RequiresReport: true},
		{ID: "RULE-056", OriginalID: "MISRA-10.3", Description: "No narrowing assignments (cppcheck/misra)",
			Analyzer:       heuristics.Chain{Gate: flags("-Wconversion", "-Wsign-conversion"), Then: reportPatterns(`misra.*10\.3`, `narrow`, `conversion`)},
			RequiresReport: true},
		{ID: "RULE-058", OriginalID: "MISRA-11.3", Description: "No object pointer casting (cppcheck/misra)",
			Analyzer:       reportPatterns(`id="misra.*11\.3"`, `<error.*MISRA.*11\.3`, `cast.*object.*pointer`, `cast.*pointer.*type`),
			RequiresReport: true},
		{ID: "RULE-060", OriginalID: "MISRA-13.2", Description: "Single side effect per expression (cppcheck/misra)",
			Analyzer: reportPatterns(`misra.*13\.2`, `sideeffect`), RequiresReport: true},
		{ID: "RULE-062", OriginalID: "MISRA-16.3", Description: "Switch clauses end with break (cppcheck/misra)",
			Analyzer:       heuristics.Chain{Gate: flags("-Wimplicit-fallthrough"), Then: reportPatterns(`misra.*16\.3`, `switch`)},
			RequiresReport: true},
		{ID: "RULE-063", OriginalID: "MISRA-17.7", Description: "Use return values (heuristic)",
			Analyzer: heuristics.UnusedResultCheck{Allowlist: cfg.UnusedResultAllowlist}},
		{ID: "RULE-064", OriginalID: "MISRA-18.1", Description: "Pointer arithmetic within bounds (heuristic)",
			Analyzer: heuristics.PointerArithmeticCheck{}},
		{ID: "RULE-065", OriginalID: "MISRA-21.3", Description: "No dynamic allocation functions",
			Analyzer: heuristics.PatternCheck{Patterns: dynamicAllocation}},
		{ID: "RULE-066", OriginalID: "MISRA-21.6", Description: "No standard I/O functions",
			Analyzer: heuristics.PatternCheck{Patterns: standardIO}},
		{ID: "RULE-067", OriginalID: "ISO-001", Description: fmt.Sprintf("Requirement traceability (%s tags)", strings.Join(cfg.RequirementTags, "/")),
			Analyzer: heuristics.TraceabilityCheck{Tags: cfg.RequirementTags}},
		{ID: "RULE-068", OriginalID: "ISO-002", Description: "Defensive programming via assertions (density)",
			Analyzer: heuristics.AssertDensityCheck{Min: t.MinAssertDensity}},
	}
}

// NewRegistry binds the configured parameters into the rule table.
func NewRegistry(cfg *options.Config) *Registry {
	r := &Registry{byID: make(map[string]*RuleDefinition)}
	for _, def := range definitions(cfg) {
		if _, dup := r.byID[def.ID]; dup {
			panic(fmt.Sprintf("duplicate rule id %s", def.ID))
		}
		r.rules = append(r.rules, def)
		r.byID[def.ID] = def
	}
	for _, name := range GROUP_NAMES {
		g := GROUPS[name]
		r.groups = append(r.groups, &RuleGroup{
			Name:        name,
			Description: g.Description,
			IDs:         append([]string(nil), g.IDs...),
		})
	}
	return r
}

func (r *Registry) Lookup(id string) (*RuleDefinition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// Rules returns every definition in declaration order.
func (r *Registry) Rules() []*RuleDefinition {
	return append([]*RuleDefinition(nil), r.rules...)
}

// Group returns the ordered ids of a group, including ids without a
// registered rule.
func (r *Registry) Group(name string) (*RuleGroup, bool) {
	for _, g := range r.groups {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

func (r *Registry) Groups() []*RuleGroup {
	return append([]*RuleGroup(nil), r.groups...)
}

// AllIDs lists group members in first seen order across groups, followed
// by registered rules that belong to no group.
func (r *Registry) AllIDs() []string {
	ids := []string{}
	for _, g := range r.groups {
		for _, id := range g.IDs {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	for _, def := range r.rules {
		if !slices.Contains(ids, def.ID) {
			ids = append(ids, def.ID)
		}
	}
	return ids
}

// GroupsOf names the groups id belongs to, in group order.
func (r *Registry) GroupsOf(id string) []string {
	names := []string{}
	for _, g := range r.groups {
		if slices.Contains(g.IDs, id) {
			names = append(names, g.Name)
		}
	}
	return names
}

// RequiresReport reports whether any of ids needs the cppcheck report.
func (r *Registry) RequiresReport(ids []string) bool {
	for _, id := range ids {
		if def, ok := r.byID[id]; ok && def.RequiresReport {
			return true
		}
	}
	return false
}
