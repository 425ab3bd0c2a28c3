package render

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

// scrollScript 逐屏滚动到底部, 触发懒加载图片
const scrollScript = `async () => {
	const step = Math.max(window.innerHeight, 200);
	for (let y = 0; y < document.body.scrollHeight && y < 50000; y += step) {
		window.scrollTo(0, y);
		await new Promise(r => setTimeout(r, 100));
	}
	window.scrollTo(0, 0);
	return true;
}`

// DynamicOptions 动态渲染参数
type DynamicOptions struct {
	Headless    bool
	Stealth     bool
	BrowserBin  string
	RenderWait  time.Duration
	NavTimeout  time.Duration
	InsecureTLS bool
	Headers     models.HeaderProvider
}

// DynamicRenderer 用无头浏览器渲染页面, 每次渲染启动独立的浏览器进程
type DynamicRenderer struct {
	opts DynamicOptions
}

// NewDynamicRenderer 创建动态渲染器
func NewDynamicRenderer(opts DynamicOptions) *DynamicRenderer {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	return &DynamicRenderer{opts: opts}
}

// Render 实现 Renderer
func (d *DynamicRenderer) Render(ctx context.Context, pageURL string) (html string, finalURL string, err error) {
	// rod 的 Must 系列和CDP断连会 panic, 转为错误
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("浏览器操作panic: %v", r)
			err = models.NewCloneError(models.KindNetwork, pageURL, fmt.Errorf("浏览器崩溃: %v", r))
		}
	}()

	browser, cleanup, err := d.launchBrowser(ctx)
	if err != nil {
		return "", "", err
	}
	defer cleanup()

	page, err := d.openPage(browser)
	if err != nil {
		return "", "", networkError(pageURL, err)
	}
	defer page.Close()

	if err := d.applyHeaders(page); err != nil {
		utils.Warnf("设置页面请求头失败: %v", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, d.opts.NavTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return "", "", d.pageError(ctx, pageURL, fmt.Errorf("导航失败: %w", err))
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		utils.Warnf("等待页面加载超时 [%s]: %v", pageURL, err)
	}

	p := page.Context(ctx)
	if _, err := p.Evaluate(&rod.EvalOptions{JS: scrollScript, AwaitPromise: true}); err != nil {
		utils.Debugf("滚动页面失败 [%s]: %v", pageURL, err)
	}
	if d.opts.RenderWait > 0 {
		if err := p.WaitStable(d.opts.RenderWait); err != nil {
			utils.Debugf("等待DOM稳定失败 [%s]: %v", pageURL, err)
		}
	}
	if ctx.Err() != nil {
		return "", "", models.NewCloneError(models.KindCanceled, pageURL, ctx.Err())
	}

	html, err = p.HTML()
	if err != nil {
		return "", "", d.pageError(ctx, pageURL, fmt.Errorf("读取页面HTML失败: %w", err))
	}

	finalURL = pageURL
	if info, err := p.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}
	utils.Debugf("动态渲染完成: %s (%d 字节)", finalURL, len(html))
	return html, finalURL, nil
}

// launchBrowser 启动并连接浏览器; 返回的清理函数关闭浏览器并结束进程
func (d *DynamicRenderer) launchBrowser(ctx context.Context) (*rod.Browser, func(), error) {
	l := launcher.New().Context(ctx).Headless(d.opts.Headless)
	if d.opts.BrowserBin != "" {
		l = l.Bin(d.opts.BrowserBin)
	}
	if d.opts.InsecureTLS {
		l = l.Set("ignore-certificate-errors")
		utils.Debugf("浏览器启动参数: --ignore-certificate-errors")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: 启动浏览器失败: %v", ErrBrowserUnavailable, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("%w: 连接浏览器失败: %v", ErrBrowserUnavailable, err)
	}
	utils.Debugf("浏览器已启动: %s", controlURL)

	cleanup := func() {
		if err := browser.Close(); err != nil {
			utils.Debugf("关闭浏览器失败: %v", err)
		}
		l.Kill()
		l.Cleanup()
	}
	return browser, cleanup, nil
}

func (d *DynamicRenderer) openPage(browser *rod.Browser) (*rod.Page, error) {
	if d.opts.Stealth {
		return stealth.Page(browser)
	}
	return browser.Page(proto.TargetCreateTarget{URL: ""})
}

// applyHeaders User-Agent 走UA覆盖, 其余头部作为额外请求头
func (d *DynamicRenderer) applyHeaders(page *rod.Page) error {
	if d.opts.Headers == nil {
		return nil
	}
	headers, err := d.opts.Headers.GetHeaders()
	if err != nil {
		return err
	}

	var dict []string
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		if http.CanonicalHeaderKey(name) == "User-Agent" {
			if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: values[0]}); err != nil {
				return err
			}
			continue
		}
		dict = append(dict, name, values[0])
	}
	if len(dict) > 0 {
		if _, err := page.SetExtraHeaders(dict); err != nil {
			return err
		}
	}
	return nil
}

func (d *DynamicRenderer) pageError(ctx context.Context, pageURL string, err error) error {
	if ctx.Err() != nil {
		return models.NewCloneError(models.KindCanceled, pageURL, ctx.Err())
	}
	return models.NewCloneError(models.KindNetwork, pageURL, err)
}
