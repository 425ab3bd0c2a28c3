package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/sitesnap/internal/models"
)

func TestReadURLsFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("跳过注释、无效和重复URL", func(t *testing.T) {
		path := filepath.Join(dir, "urls.txt")
		content := strings.Join([]string{
			"# 注释",
			"",
			"https://example.com",
			"ftp://example.com/file",
			"  https://example.org/page  ",
			"https://example.com",
		}, "\n")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		urls, err := ReadURLsFromFile(path)
		if err != nil {
			t.Fatalf("读取失败: %v", err)
		}
		want := []string{"https://example.com", "https://example.org/page"}
		if strings.Join(urls, ",") != strings.Join(want, ",") {
			t.Errorf("期望 %v, 得到 %v", want, urls)
		}
	})

	t.Run("没有有效URL", func(t *testing.T) {
		path := filepath.Join(dir, "empty.txt")
		if err := os.WriteFile(path, []byte("# only comments\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadURLsFromFile(path); err == nil {
			t.Error("应返回错误")
		}
	})

	t.Run("文件不存在", func(t *testing.T) {
		if _, err := ReadURLsFromFile(filepath.Join(dir, "missing.txt")); err == nil {
			t.Error("应返回错误")
		}
	})
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %s, 期望 %s", tt.in, got, tt.want)
		}
	}
}

func TestReporter_GenerateReport(t *testing.T) {
	t.Run("禁用时不写文件", func(t *testing.T) {
		path, err := NewReporter("").GenerateReport(&models.CloneReport{TaskID: "x"})
		if err != nil || path != "" {
			t.Errorf("禁用的报告器不应写入: path=%s err=%v", path, err)
		}
	})

	t.Run("写出JSON报告", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "reports")
		outcome := models.NewCloneOutcome("task-1", "http://localhost:8080")
		outcome.Success = true

		report := &models.CloneReport{
			TaskID:    "task-1",
			TargetURL: "http://localhost:8080",
			Domain:    "localhost:8080",
			StartTime: time.Now(),
			EndTime:   time.Now(),
			Outcome:   outcome,
		}

		path, err := NewReporter(dir).GenerateReport(report)
		if err != nil {
			t.Fatalf("生成报告失败: %v", err)
		}
		if filepath.Base(path) != "localhost_8080_task-1.json" {
			t.Errorf("报告文件名错误: %s", path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("读取报告失败: %v", err)
		}
		var decoded models.CloneReport
		if err := decoded.FromJSON(data); err != nil {
			t.Fatalf("解析报告失败: %v", err)
		}
		if decoded.Outcome == nil || !decoded.Outcome.Success {
			t.Errorf("报告结果错误: %+v", decoded.Outcome)
		}
	})
}
