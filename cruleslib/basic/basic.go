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
This package should not import any packages of other analyzers to
avoid recursive import.
*/
package basic

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/text/message"
)

const TimestampLayout = "2006-01-02 15:04:05"

func PrintfWithTimeStamp(format string, arg ...any) {
	prefix := fmt.Sprintf("%v ", time.Now().Format(TimestampLayout))
	message := fmt.Sprintf(prefix+format, arg...)
	fmt.Println(message)
	glog.Info(message)
}

func GetPercentString(v1, v2 int) string {
	if v2 == 0 {
		return "100%"
	}
	percent := (v1 * 100) / v2
	return fmt.Sprintf("%d%%", percent)
}

func FormatTimeDuration(d time.Duration) string {
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	if ms == 0 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%d.%03ds", s, ms)
}

// print checking process serialized, goroutine safe
type CheckingProcessPrinter struct {
	mutex                sync.Mutex
	startedAt            time.Time
	timeElapsed          map[string]time.Time
	startAnalyzeTaskNum  int
	finishAnalyzeTaskNum int
	totalTaskNum         int
}

func NewCheckingProcessPrinter(totalTaskNum int) *CheckingProcessPrinter {
	return &CheckingProcessPrinter{
		totalTaskNum: totalTaskNum,
		timeElapsed:  make(map[string]time.Time),
		startedAt:    time.Now(),
	}
}

// Called before start checking a rule
func (c *CheckingProcessPrinter) StartAnalyzeTask(ruleName string, printer *message.Printer) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.startAnalyzeTaskNum++
	PrintfWithTimeStamp(printer.Sprintf("Start analyzing for %s (%v/%v)", ruleName, c.startAnalyzeTaskNum, c.totalTaskNum))
	c.timeElapsed[ruleName] = time.Now()
}

// Called after finish checking a rule
func (c *CheckingProcessPrinter) FinishAnalyzeTask(ruleName, status string, printer *message.Printer) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	elapsed := time.Since(c.timeElapsed[ruleName])
	c.finishAnalyzeTaskNum++
	percent := GetPercentString(c.finishAnalyzeTaskNum, c.totalTaskNum)
	timeUsed := FormatTimeDuration(elapsed)
	PrintfWithTimeStamp(printer.Sprintf("Analysis of %s completed: %s (%s, %v/%v) [%s]", ruleName, status, percent, c.finishAnalyzeTaskNum, c.totalTaskNum, timeUsed))
}

func (c *CheckingProcessPrinter) GetPercentString() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return GetPercentString(c.finishAnalyzeTaskNum, c.totalTaskNum)
}

func (c *CheckingProcessPrinter) GetStartedAt() time.Time {
	return c.startedAt
}

type combinedOutput struct {
	Output []byte
	Error  error
}

// CombinedOutput runs c and returns its stdout and stderr. The process is
// killed when ctx is done or after timeoutMinute minutes; zero means no
// limit besides ctx.
func CombinedOutput(ctx context.Context, c *exec.Cmd, taskName string, timeoutMinute int) ([]byte, error) {
	var b bytes.Buffer
	c.Stdout = &b
	c.Stderr = &b
	if err := c.Start(); err != nil {
		return nil, err
	}
	result := make(chan combinedOutput, 1)
	go func() {
		err := c.Wait()
		result <- combinedOutput{Output: b.Bytes(), Error: err}
	}()
	var timeout <-chan time.Time
	if timeoutMinute > 0 {
		timer := time.NewTimer(time.Duration(timeoutMinute) * time.Minute)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-ctx.Done():
		if err := c.Process.Kill(); err != nil {
			glog.Errorf("failed to kill %v: %v", c.Process.Pid, err)
		}
		<-result
		return nil, fmt.Errorf("%v interrupted: %v", taskName, ctx.Err())
	case <-timeout:
		if err := c.Process.Kill(); err != nil {
			return nil, fmt.Errorf("failed to kill %v: %v", c.Process.Pid, err)
		}
		<-result
		return nil, fmt.Errorf("%v timed out: over %v minutes", taskName, timeoutMinute)
	case r := <-result:
		return r.Output, r.Error
	}
}
