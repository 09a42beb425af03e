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
	"reflect"
	"testing"

	"naive.systems/rulecheck/cruleslib/options"
)

func TestRegistryGroups(t *testing.T) {
	r := NewRegistry(options.Default())
	names := []string{}
	for _, g := range r.Groups() {
		names = append(names, g.Name)
	}
	if !reflect.DeepEqual(names, GROUP_NAMES) {
		t.Errorf("unexpected result. got: %v, expected: %v", names, GROUP_NAMES)
	}
	iso, ok := r.Group("iso")
	if !ok || !reflect.DeepEqual(iso.IDs, []string{"RULE-067", "RULE-068"}) {
		t.Errorf("unexpected iso group %+v", iso)
	}
	if _, ok := r.Group("autosar"); ok {
		t.Errorf("unexpected group autosar")
	}
	// every group member has a rule
	for _, g := range r.Groups() {
		for _, id := range g.IDs {
			if _, ok := r.Lookup(id); !ok {
				t.Errorf("%s in group %s has no rule", id, g.Name)
			}
		}
	}
}

func TestRegistryMembership(t *testing.T) {
	r := NewRegistry(options.Default())
	for _, testCase := range [...]struct {
		id       string
		expected []string
	}{
		{"RULE-001", []string{"nasa"}},
		{"RULE-023", []string{"nasa", "compiler", "heuristic"}},
		{"RULE-055", []string{"misra", "compiler", "cppcheck"}},
		{"RULE-021", []string{}},
		{"RULE-999", []string{}},
	} {
		if got := r.GroupsOf(testCase.id); !reflect.DeepEqual(got, testCase.expected) {
			t.Errorf("GroupsOf(%s) = %v, expected %v", testCase.id, got, testCase.expected)
		}
	}
}

func TestAllIDs(t *testing.T) {
	r := NewRegistry(options.Default())
	ids := r.AllIDs()
	if len(ids) != len(r.Rules()) {
		t.Errorf("AllIDs has %d ids, registry has %d rules", len(ids), len(r.Rules()))
	}
	if ids[0] != "RULE-001" || ids[len(ids)-1] != "RULE-053" {
		t.Errorf("unexpected order %v", ids)
	}
	tail := ids[len(ids)-4:]
	if expected := []string{"RULE-021", "RULE-035", "RULE-052", "RULE-053"}; !reflect.DeepEqual(tail, expected) {
		t.Errorf("ungrouped ids come last in declaration order. got: %v, expected: %v", tail, expected)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestRequiresReport(t *testing.T) {
	r := NewRegistry(options.Default())
	if r.RequiresReport([]string{"RULE-001", "RULE-064"}) {
		t.Errorf("heuristic rules need no report")
	}
	if !r.RequiresReport([]string{"RULE-001", "RULE-050"}) {
		t.Errorf("RULE-050 needs the report")
	}
}

func TestDescriptionsFollowConfig(t *testing.T) {
	cfg := options.Default()
	cfg.Thresholds.MaxFunctionLines = 40
	r := NewRegistry(cfg)
	def, ok := r.Lookup("RULE-012")
	if !ok || def.Description != "Function length <= 40 lines" {
		t.Errorf("unexpected definition %+v", def)
	}
}
