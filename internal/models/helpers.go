package models

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// NewID 生成唯一ID
func NewID() string {
	return uuid.New().String()
}

// DefaultFolderName 默认输出目录名: cloned-<主机名,点替换为连字符>
func DefaultFolderName(targetURL string) string {
	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Hostname() == "" {
		return "cloned-site"
	}
	return "cloned-" + strings.ReplaceAll(parsed.Hostname(), ".", "-")
}

// ValidateFolderName 拒绝越出输出根目录的目录名
func ValidateFolderName(name string) error {
	if name == "" {
		return nil
	}
	for _, part := range strings.FieldsFunc(filepath.ToSlash(name), func(r rune) bool { return r == '/' }) {
		if part == ".." {
			return fmt.Errorf("输出目录名不能包含 '..': %s", name)
		}
	}
	return nil
}
