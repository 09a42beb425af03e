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

package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var languageMap = map[string]language.Tag{"en": language.English, "zh": language.Chinese}

// Console messages keyed by their English format string.
var zhMessages = map[string]string{
	"Start analyzing for %s (%v/%v)":                   "开始分析 %s (%v/%v)",
	"Analysis of %s completed: %s (%s, %v/%v) [%s]":    "%s 分析完成：%s (%s, %v/%v) [%s]",
	"Removed stale logs of %d rule(s)":                 "已删除 %d 条规则的旧日志",
	"Cppcheck report not found. Running static analysis...": "未找到 Cppcheck 报告，正在运行静态分析...",
	"Static analysis failed: %v":                       "静态分析失败：%v",
	"Static analysis found issues that need attention": "静态分析发现需要处理的问题",
	"Static analysis completed (no issues found)":      "静态分析完成（未发现问题）",
	"Static analysis results saved to: %s":             "静态分析结果已保存至：%s",
	"Unknown rule ID: %s":                              "未知规则 ID：%s",
	"Unknown rule group: %s":                           "未知规则组：%s",
	"Summary written to: %s":                           "汇总已写入：%s",
	"Interrupted, %d rule(s) not run":                  "已中断，%d 条规则未运行",
	"Total PASS: %d, FAIL: %d, SKIP: %d, NOT_RUN: %d, UNKNOWN: %d": "通过：%d，失败：%d，跳过：%d，未运行：%d，未知：%d",
}

func init() {
	for key, msg := range zhMessages {
		if err := message.SetString(language.Chinese, key, msg); err != nil {
			panic(err)
		}
	}
}

// GetPrinter returns a printer for lang. Unsupported languages fall back to
// English.
func GetPrinter(lang string) *message.Printer {
	var langTag language.Tag
	if _, exist := languageMap[lang]; exist {
		langTag = languageMap[lang]
	} else {
		langTag = languageMap["en"]
	}
	return message.NewPrinter(langTag)
}
