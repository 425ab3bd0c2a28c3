package core

import (
	"net/http"
	"sync"

	"github.com/RecoveryAshes/sitesnap/internal/config"
	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

const (
	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)

// HeaderManager 合并 默认 < headers.yaml < 命令行 三层请求头
// 实现 models.HeaderProvider, 可在并发克隆之间共享
type HeaderManager struct {
	defaults http.Header
	file     http.Header
	cli      http.Header

	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor
	loader    *config.HeaderConfigLoader

	mu      sync.Mutex
	loaded  bool
	merged  http.Header
	loadErr error
}

// NewHeaderManager 创建头部管理器; configFile 为空时使用 configs/headers.yaml
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}
	return &HeaderManager{
		defaults:  defaultHeaders(),
		file:      make(http.Header),
		cli:       cli,
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
		loader:    config.NewHeaderConfigLoader(configFile),
	}, nil
}

func defaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{DefaultUserAgent},
		"Accept":          []string{"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"},
		"Accept-Language": []string{"zh-CN,zh;q=0.9,en;q=0.8"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

// load 读取配置文件并校验, 只执行一次
func (hm *HeaderManager) load() error {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	if hm.loaded {
		return hm.loadErr
	}
	hm.loaded = true

	cfg, err := hm.loader.Load()
	if err != nil {
		utils.Errorf("加载HTTP头部配置失败: %v", err)
		hm.loadErr = err
		return err
	}
	for name, value := range cfg.Headers {
		hm.file.Set(name, value)
	}

	for _, layer := range []struct {
		name    string
		headers http.Header
	}{
		{"默认", hm.defaults},
		{"配置文件", hm.file},
		{"命令行", hm.cli},
	} {
		if err := hm.validator.Validate(layer.headers); err != nil {
			utils.Errorf("%s头部验证失败: %v", layer.name, err)
			hm.loadErr = err
			return err
		}
	}

	hm.merged = mergeHeaders(hm.defaults, hm.file, hm.cli)
	if len(cfg.Headers) > 0 {
		utils.Debugf("加载 %d 个配置文件头部: %s", len(cfg.Headers), hm.redactor.RedactToString(hm.file))
	}
	return nil
}

// mergeHeaders 后面的层整体覆盖前面的同名头部
func mergeHeaders(layers ...http.Header) http.Header {
	result := make(http.Header)
	for _, layer := range layers {
		for name, values := range layer {
			result[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
	return result
}

// Validate 加载并校验全部头部
func (hm *HeaderManager) Validate() error {
	return hm.load()
}

// GetHeaders 实现 models.HeaderProvider, 每次返回独立副本
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if err := hm.load(); err != nil {
		return nil, err
	}
	return hm.merged.Clone(), nil
}

// GetSafeHeaders 脱敏后的合并头部, 用于日志和 --validate-config 输出
func (hm *HeaderManager) GetSafeHeaders() (map[string]string, error) {
	headers, err := hm.GetHeaders()
	if err != nil {
		return nil, err
	}
	return hm.redactor.Redact(headers), nil
}

// ConfigPath 头部配置文件路径
func (hm *HeaderManager) ConfigPath() string {
	return hm.loader.Path()
}
