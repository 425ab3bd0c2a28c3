package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

// Config 应用程序配置
type Config struct {
	Clone   models.CloneConfig `mapstructure:"clone"`
	Logging LoggingConfig      `mapstructure:"logging"`
	Output  OutputConfig       `mapstructure:"output"`
	Batch   BatchConfig        `mapstructure:"batch"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir      string `mapstructure:"base_dir"`
	ReportDir    string `mapstructure:"report_dir"` // 为空时不生成报告
	ShowProgress bool   `mapstructure:"show_progress"`
}

// BatchConfig 批量克隆配置
type BatchConfig struct {
	Parallel        int  `mapstructure:"parallel"`
	ContinueOnError bool `mapstructure:"continue_on_error"`
}

// LoadConfig 加载配置文件; 未指定路径且找不到配置文件时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".sitesnap"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		utils.Debugf("未找到配置文件, 使用默认配置")
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	clone := models.DefaultCloneConfig()
	v.SetDefault("clone.mode", string(clone.Mode))
	v.SetDefault("clone.timeout", clone.Timeout)
	v.SetDefault("clone.render_wait", clone.RenderWait)
	v.SetDefault("clone.concurrency", clone.Concurrency)
	v.SetDefault("clone.request_timeout", clone.RequestTimeout)
	v.SetDefault("clone.max_asset_size", clone.MaxAssetSize)
	v.SetDefault("clone.insecure_tls", clone.InsecureTLS)
	v.SetDefault("clone.headless", clone.Headless)
	v.SetDefault("clone.stealth", clone.Stealth)
	v.SetDefault("clone.browser_bin", clone.BrowserBin)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.base_dir", ".")
	v.SetDefault("output.report_dir", "")
	v.SetDefault("output.show_progress", true)

	v.SetDefault("batch.parallel", 2)
	v.SetDefault("batch.continue_on_error", true)
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// CLIOverrides 命令行参数, 零值表示未指定
type CLIOverrides struct {
	Mode        string
	Concurrency int
	Timeout     int
	OutputDir   string
	LogLevel    string
	NoProgress  bool
}

// MergeCLIFlags 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	if o.Mode != "" {
		c.Clone.Mode = models.RenderMode(o.Mode)
	}
	if o.Concurrency > 0 {
		c.Clone.Concurrency = o.Concurrency
	}
	if o.Timeout > 0 {
		c.Clone.Timeout = o.Timeout
		if c.Clone.RequestTimeout > o.Timeout {
			c.Clone.RequestTimeout = o.Timeout
		}
	}
	if o.OutputDir != "" {
		c.Output.BaseDir = o.OutputDir
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.NoProgress {
		c.Output.ShowProgress = false
	}
	c.Clone.ShowProgress = c.Output.ShowProgress
}

// Validate 校验合并后的配置
func (c *Config) Validate() error {
	if err := c.Clone.Validate(); err != nil {
		return err
	}
	if c.Batch.Parallel < 1 || c.Batch.Parallel > 16 {
		return fmt.Errorf("批量并行数必须在1-16之间,当前值: %d", c.Batch.Parallel)
	}
	return nil
}
