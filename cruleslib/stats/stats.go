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

package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang/glog"
	"naive.systems/rulecheck/atomic"
	"naive.systems/rulecheck/cruleslib/rulelog"
)

// run stages
const (
	PREPARING int = iota // Stale log removal and report generation
	RUNNING              // Rule execution
	AGGREGATING          // Report writing
	END
)

const (
	ProgressFileName = "progress.json"
	SummaryFileName  = "summary.json"
	LOCFileName      = "loc.json"
)

type Progress struct {
	StageID   int       `json:"stage_id"`
	DoneRatio string    `json:"done_ratio"`
	StartedAt time.Time `json:"started_at"`
}

type StatusCount struct {
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Skip    int `json:"skip"`
	NotRun  int `json:"not_run"`
	Unknown int `json:"unknown"`
}

func (c *StatusCount) Total() int {
	return c.Pass + c.Fail + c.Skip + c.NotRun + c.Unknown
}

// Accumulate counts one result. Statuses outside the known set count as
// UNKNOWN.
func (c *StatusCount) Accumulate(status rulelog.Status, ruleID string) {
	switch status {
	case rulelog.Pass:
		c.Pass++
	case rulelog.Fail:
		c.Fail++
	case rulelog.Skip:
		c.Skip++
	case rulelog.NotRun:
		c.NotRun++
	case rulelog.Unknown:
		c.Unknown++
	default:
		glog.Warningf("undefined status %q of rule %s", status, ruleID)
		c.Unknown++
	}
}

func CountStatuses(results []rulelog.Result) StatusCount {
	var cnt StatusCount
	for _, r := range results {
		cnt.Accumulate(r.Status, r.ID)
	}
	return cnt
}

func WriteLOC(resultDir string, linesCounter int) {
	path := filepath.Join(resultDir, LOCFileName)
	err := atomic.Write(path, []byte(strconv.Itoa(linesCounter)))
	if err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
}

func WriteProgress(resultDir string, stageID int, doneRatio string, startedAt time.Time) {
	// skip writing it if resultDir does not exist
	_, err := os.Stat(resultDir)
	if os.IsNotExist(err) {
		glog.Warningf("result dir %s does not exist", resultDir)
		return
	}
	path := filepath.Join(resultDir, ProgressFileName)
	progress, err := json.Marshal(Progress{StageID: stageID, DoneRatio: doneRatio, StartedAt: startedAt})
	if err != nil {
		glog.Errorf("failed to marshal json stageID %d and doneRatio %s: %v", stageID, doneRatio, err)
		return
	}
	err = atomic.Write(path, progress)
	if err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
}

func GetStatusCountBytes(cnt StatusCount) ([]byte, error) {
	statsBytes, err := json.MarshalIndent(cnt, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %v", err)
	}
	return append(statsBytes, '\n'), nil
}

func CountStatusAndWrite(results []rulelog.Result, resultDir string) StatusCount {
	cnt := CountStatuses(results)
	statsBytes, err := GetStatusCountBytes(cnt)
	if err != nil {
		glog.Errorf("failed to get status count bytes: %v", err)
		return cnt
	}
	statsFile := filepath.Join(resultDir, SummaryFileName)
	err = atomic.Write(statsFile, statsBytes)
	if err != nil {
		glog.Errorf("failed to write to file %s: %v", statsFile, err)
	}
	return cnt
}
