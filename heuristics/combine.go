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
	"strings"

	"naive.systems/rulecheck/cruleslib/findings"
)

// Chain runs Gate first and stops there when it skips or finds anything.
// Only a clean gate lets Then decide the outcome.
type Chain struct {
	Gate Analyzer
	Then Analyzer
}

func (c Chain) Scan(env *Env) (*findings.Outcome, error) {
	gate, err := c.Gate.Scan(env)
	if err != nil {
		return nil, err
	}
	if gate.Skipped || len(gate.Findings) > 0 {
		return gate, nil
	}
	return c.Then.Scan(env)
}

// Merge runs every analyzer and lists all their findings. The merged
// outcome is skipped when any part was.
type Merge []Analyzer

func (m Merge) Scan(env *Env) (*findings.Outcome, error) {
	merged := &findings.Outcome{Findings: []findings.Finding{}}
	reasons := []string{}
	for _, a := range m {
		o, err := a.Scan(env)
		if err != nil {
			return nil, err
		}
		merged.Findings = append(merged.Findings, o.Findings...)
		if o.Skipped {
			merged.Skipped = true
			reasons = append(reasons, o.Reason)
		}
	}
	merged.Reason = strings.Join(reasons, "; ")
	return merged, nil
}
