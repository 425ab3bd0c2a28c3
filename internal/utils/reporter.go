package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 克隆报告生成器
// 报告写在镜像目录之外, 保证镜像目录只包含页面、样式表和资源文件
type Reporter struct {
	reportDir string
}

// NewReporter 创建报告生成器, reportDir 为空时不生成报告
func NewReporter(reportDir string) *Reporter {
	return &Reporter{reportDir: reportDir}
}

// Enabled 是否启用
func (r *Reporter) Enabled() bool {
	return r != nil && r.reportDir != ""
}

// GenerateReport 写出 <reportDir>/<domain>_<taskID>.json, 返回报告路径
func (r *Reporter) GenerateReport(report *models.CloneReport) (string, error) {
	if !r.Enabled() {
		return "", nil
	}
	if err := os.MkdirAll(r.reportDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", strings.ReplaceAll(report.Domain, ":", "_"), report.TaskID)
	path := filepath.Join(r.reportDir, name)
	if err := saveJSON(path, report); err != nil {
		return "", err
	}

	Infof("✅ 报告已生成: %s", path)
	return path, nil
}

func saveJSON(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}
	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条, out 为 nil 时不显示
func NewProgressBar(max int, description string, out io.Writer) *progressbar.ProgressBar {
	if out == nil {
		out = io.Discard
	}
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
