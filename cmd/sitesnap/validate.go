package main

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/RecoveryAshes/sitesnap/internal/core"
	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

// ValidateFlags 验证命令行标志, 返回规范化后的目标URL
func ValidateFlags(targetURL, urlFile, folder string) (string, error) {
	if targetURL != "" && urlFile != "" {
		return "", fmt.Errorf("--url 与 --url-file 不能同时使用")
	}
	if urlFile != "" && folder != "" {
		return "", fmt.Errorf("--folder 只能用于单个URL")
	}
	if err := models.ValidateFolderName(folder); err != nil {
		return "", err
	}
	if targetURL == "" {
		return "", nil
	}

	normalized, err := NormalizeURL(targetURL)
	if err != nil {
		return "", fmt.Errorf("无效的目标URL: %w", err)
	}
	if err := models.ValidateURL(normalized); err != nil {
		return "", fmt.Errorf("无效的目标URL: %w", err)
	}
	return normalized, nil
}

// NormalizeURL 规范化URL, 没有协议时默认使用https
func NormalizeURL(urlStr string) (string, error) {
	urlStr = strings.TrimSpace(urlStr)
	if !strings.Contains(urlStr, "://") {
		urlStr = "https://" + urlStr
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// runValidateConfig 校验头部配置并打印脱敏后的合并结果
func runValidateConfig(hm *core.HeaderManager) error {
	utils.Info("🔍 验证HTTP头部配置...")
	if err := hm.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	safeHeaders, err := hm.GetSafeHeaders()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(safeHeaders)
	}

	names := make([]string, 0, len(safeHeaders))
	for name := range safeHeaders {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("✅ 配置验证通过!")
	fmt.Printf("头部配置文件: %s\n", hm.ConfigPath())
	fmt.Printf("当前有效的HTTP头部 (%d个):\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, safeHeaders[name])
	}
	return nil
}
