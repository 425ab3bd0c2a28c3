package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

// ErrBrowserUnavailable 浏览器无法启动或连接
var ErrBrowserUnavailable = errors.New("浏览器不可用")

// Renderer 取得页面渲染后的HTML
// finalURL 为重定向后的最终地址, 作为文档基准URL
type Renderer interface {
	Render(ctx context.Context, pageURL string) (html string, finalURL string, err error)
}

// NewRenderer 按渲染模式创建渲染器
func NewRenderer(cfg models.CloneConfig, headers models.HeaderProvider) (Renderer, error) {
	static := NewStaticRenderer(StaticOptions{
		Timeout:     cfg.RequestTimeoutDuration(),
		MaxBodySize: cfg.MaxAssetBytes(),
		InsecureTLS: cfg.InsecureTLS,
		Headers:     headers,
	})
	dynamic := NewDynamicRenderer(DynamicOptions{
		Headless:    cfg.Headless,
		Stealth:     cfg.Stealth,
		BrowserBin:  cfg.BrowserBin,
		RenderWait:  cfg.RenderWaitDuration(),
		NavTimeout:  cfg.RequestTimeoutDuration(),
		InsecureTLS: cfg.InsecureTLS,
		Headers:     headers,
	})

	switch cfg.Mode {
	case models.RenderStatic:
		return static, nil
	case models.RenderDynamic:
		return dynamic, nil
	case models.RenderAuto, "":
		return &AutoRenderer{Primary: dynamic, Fallback: static}, nil
	default:
		return nil, fmt.Errorf("未知的渲染模式: %s", cfg.Mode)
	}
}

// AutoRenderer 优先动态渲染, 浏览器不可用时退回静态抓取
type AutoRenderer struct {
	Primary  Renderer
	Fallback Renderer
}

// Render 实现 Renderer
func (a *AutoRenderer) Render(ctx context.Context, pageURL string) (string, string, error) {
	html, finalURL, err := a.Primary.Render(ctx, pageURL)
	if err == nil || !errors.Is(err, ErrBrowserUnavailable) || ctx.Err() != nil {
		return html, finalURL, err
	}
	utils.Warnf("动态渲染不可用, 退回静态模式: %v", err)
	return a.Fallback.Render(ctx, pageURL)
}

func networkError(target string, err error) error {
	var cloneErr *models.CloneError
	if errors.As(err, &cloneErr) {
		return err
	}
	return models.NewCloneError(models.KindNetwork, target, err)
}
