package render

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

var errNoResponse = errors.New("未收到响应")

// StaticOptions 静态渲染参数
type StaticOptions struct {
	Timeout     time.Duration
	MaxBodySize int
	InsecureTLS bool
	Headers     models.HeaderProvider
}

// StaticRenderer 直接GET页面, 不执行脚本
type StaticRenderer struct {
	opts StaticOptions
}

// NewStaticRenderer 创建静态渲染器
func NewStaticRenderer(opts StaticOptions) *StaticRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &StaticRenderer{opts: opts}
}

// Render 实现 Renderer
func (s *StaticRenderer) Render(ctx context.Context, pageURL string) (string, string, error) {
	headers := http.Header{}
	if s.opts.Headers != nil {
		h, err := s.opts.Headers.GetHeaders()
		if err != nil {
			return "", "", fmt.Errorf("获取HTTP头部失败: %w", err)
		}
		headers = h
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: s.opts.InsecureTLS,
		},
	}
	defer transport.CloseIdleConnections()

	options := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.StdlibContext(ctx),
	}
	if s.opts.MaxBodySize > 0 {
		options = append(options, colly.MaxBodySize(s.opts.MaxBodySize))
	}
	c := colly.NewCollector(options...)
	c.WithTransport(transport)
	c.SetRequestTimeout(s.opts.Timeout)

	var (
		page     string
		finalURL string
		fetchErr = errNoResponse
	)

	c.OnResponse(func(r *colly.Response) {
		finalURL = r.Request.URL.String()
		page, fetchErr = decodePage(r.Headers.Get("Content-Encoding"), r.Headers.Get("Content-Type"), r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r.StatusCode > 0 {
			err = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
		}
		fetchErr = err
	})

	utils.Debugf("静态获取页面: %s", pageURL)
	if err := c.Request(http.MethodGet, pageURL, nil, nil, headers); err != nil {
		fetchErr = err
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return "", "", models.NewCloneError(models.KindCanceled, pageURL, err)
	}
	if fetchErr != nil {
		return "", "", networkError(pageURL, fetchErr)
	}
	return page, finalURL, nil
}

// decodePage 解压并按声明的字符集转换为UTF-8
func decodePage(encoding, contentType string, body []byte) (string, error) {
	body, err := utils.DecompressBody(encoding, body)
	if err != nil {
		return "", err
	}
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		utils.Debugf("字符集识别失败, 按UTF-8处理: %v", err)
		return string(body), nil
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("字符集转换失败: %w", err)
	}
	return string(decoded), nil
}
