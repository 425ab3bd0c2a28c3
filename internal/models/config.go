package models

import (
	"fmt"
	"time"
)

// RenderMode 页面渲染模式
type RenderMode string

const (
	RenderAuto    RenderMode = "auto"
	RenderDynamic RenderMode = "dynamic"
	RenderStatic  RenderMode = "static"
)

// CloneConfig 单次克隆的参数
type CloneConfig struct {
	Mode           RenderMode `mapstructure:"mode" json:"mode"`
	Timeout        int        `mapstructure:"timeout" json:"timeout"`                 // 整体超时(秒)
	RenderWait     int        `mapstructure:"render_wait" json:"render_wait"`         // DOM稳定等待(秒)
	Concurrency    int        `mapstructure:"concurrency" json:"concurrency"`         // 资源并发抓取数
	RequestTimeout int        `mapstructure:"request_timeout" json:"request_timeout"` // 单个请求超时(秒)
	MaxAssetSize   int        `mapstructure:"max_asset_size" json:"max_asset_size"`   // 单个资源上限(MB)
	InsecureTLS    bool       `mapstructure:"insecure_tls" json:"insecure_tls"`
	Headless       bool       `mapstructure:"headless" json:"headless"`
	Stealth        bool       `mapstructure:"stealth" json:"stealth"`
	BrowserBin     string     `mapstructure:"browser_bin" json:"browser_bin,omitempty"`
	ShowProgress   bool       `mapstructure:"-" json:"-"`
}

// DefaultCloneConfig 默认克隆参数
func DefaultCloneConfig() CloneConfig {
	return CloneConfig{
		Mode:           RenderAuto,
		Timeout:        120,
		RenderWait:     2,
		Concurrency:    8,
		RequestTimeout: 30,
		MaxAssetSize:   50,
		InsecureTLS:    true,
		Headless:       true,
		Stealth:        true,
	}
}

// Validate 校验参数范围
func (c CloneConfig) Validate() error {
	switch c.Mode {
	case RenderAuto, RenderDynamic, RenderStatic:
	default:
		return fmt.Errorf("无效的渲染模式: %s (有效值: auto, dynamic, static)", c.Mode)
	}
	if c.Concurrency < 1 || c.Concurrency > 32 {
		return fmt.Errorf("并发数必须在1-32之间,当前值: %d", c.Concurrency)
	}
	if c.Timeout < 1 || c.Timeout > 3600 {
		return fmt.Errorf("超时时间必须在1-3600秒之间,当前值: %d", c.Timeout)
	}
	if c.RequestTimeout < 1 || c.RequestTimeout > c.Timeout {
		return fmt.Errorf("请求超时必须在1-%d秒之间,当前值: %d", c.Timeout, c.RequestTimeout)
	}
	if c.RenderWait < 0 || c.RenderWait > 60 {
		return fmt.Errorf("渲染等待时间必须在0-60秒之间,当前值: %d", c.RenderWait)
	}
	if c.MaxAssetSize < 1 {
		return fmt.Errorf("资源大小上限必须大于0MB,当前值: %d", c.MaxAssetSize)
	}
	return nil
}

// TimeoutDuration 整体超时
func (c CloneConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// RequestTimeoutDuration 单请求超时
func (c CloneConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// RenderWaitDuration DOM稳定等待
func (c CloneConfig) RenderWaitDuration() time.Duration {
	return time.Duration(c.RenderWait) * time.Second
}

// MaxAssetBytes 单个资源字节上限
func (c CloneConfig) MaxAssetBytes() int {
	return c.MaxAssetSize * 1024 * 1024
}
