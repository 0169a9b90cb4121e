package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// Artifacts lists the files written for a run.
type Artifacts struct {
	JSONPath     string
	MarkdownPath string
}

// Paths returns the written artifact paths.
func (a Artifacts) Paths() []string {
	var out []string
	for _, p := range []string{a.JSONPath, a.MarkdownPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JSONFileName returns the summary file name for a run timestamp.
func JSONFileName(ts string) string {
	return fmt.Sprintf("performance_test_results_%s.json", ts)
}

// MarkdownFileName returns the report file name for a run timestamp.
func MarkdownFileName(ts string) string {
	return fmt.Sprintf("performance_analysis_report_%s.md", ts)
}

// Save writes the JSON summary and the Markdown report into dir. Each file is
// attempted independently; the returned Artifacts only lists files that were
// written.
func Save(dir string, s *Summary) (Artifacts, error) {
	var art Artifacts
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return art, fmt.Errorf("创建输出目录失败: %w", err)
	}

	var errs []error

	data, err := sonic.MarshalIndent(s, "", "  ")
	if err != nil {
		errs = append(errs, fmt.Errorf("序列化测试结果失败: %w", err))
	} else {
		path := filepath.Join(dir, JSONFileName(s.Timestamp))
		if err := os.WriteFile(path, data, 0644); err != nil {
			errs = append(errs, fmt.Errorf("写入测试结果失败: %w", err))
		} else {
			art.JSONPath = path
		}
	}

	path := filepath.Join(dir, MarkdownFileName(s.Timestamp))
	if err := os.WriteFile(path, []byte(RenderMarkdown(s)), 0644); err != nil {
		errs = append(errs, fmt.Errorf("写入分析报告失败: %w", err))
	} else {
		art.MarkdownPath = path
	}

	return art, errors.Join(errs...)
}
