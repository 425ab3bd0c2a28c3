package models

import (
	"fmt"
	"strings"
	"time"
)

// FailedAsset 抓取或写入失败的资源
type FailedAsset struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// CloneOutcome 克隆边界的返回值, 任何调用方(命令行、工具调度循环)都据此判断结果
type CloneOutcome struct {
	ID            string        `json:"id"`
	TargetURL     string        `json:"target_url"`
	Success       bool          `json:"success"`
	OutputDir     string        `json:"output_dir,omitempty"`
	AssetsFetched int           `json:"assets_fetched"`
	AssetsFailed  int           `json:"assets_failed"`
	Errors        []string      `json:"errors"`
	FailedAssets  []FailedAsset `json:"failed_assets"`
	Files         []string      `json:"files,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// NewCloneOutcome 创建空结果
func NewCloneOutcome(id, targetURL string) *CloneOutcome {
	return &CloneOutcome{
		ID:           id,
		TargetURL:    targetURL,
		Errors:       make([]string, 0),
		FailedAssets: make([]FailedAsset, 0),
	}
}

// AddError 记录一条错误描述
func (o *CloneOutcome) AddError(err error) {
	if err != nil {
		o.Errors = append(o.Errors, err.Error())
	}
}

// Fail 以致命错误结束
func (o *CloneOutcome) Fail(err error) *CloneOutcome {
	o.Success = false
	o.AddError(err)
	return o
}

// Summary 人类可读的结果描述
func (o *CloneOutcome) Summary() string {
	if !o.Success {
		reason := "unknown error"
		if len(o.Errors) > 0 {
			reason = o.Errors[len(o.Errors)-1]
		}
		return "Error cloning website: " + reason
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Website cloned. Files %s are created in %s/", strings.Join(o.Files, ", "), o.OutputDir)
	fmt.Fprintf(&b, " (%d assets fetched, %d failed)", o.AssetsFetched, o.AssetsFailed)
	return b.String()
}
