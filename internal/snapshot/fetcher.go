package snapshot

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

const canonicalKey = "canonical"

var (
	errTooLarge   = errors.New("资源超过大小上限")
	errNotStarted = errors.New("请求未完成")
)

// FetcherOptions 抓取参数
type FetcherOptions struct {
	Concurrency    int
	RequestTimeout time.Duration
	MaxBodySize    int
	InsecureTLS    bool
	Headers        models.HeaderProvider
	Progress       io.Writer // nil 时不显示进度条
}

// Fetcher 有界并发的资源抓取器
// 每次 Fetch 使用独立的 colly 收集器, Wait 返回即所有记录到达终态
type Fetcher struct {
	opts      FetcherOptions
	transport *http.Transport
}

// NewFetcher 创建抓取器
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = 50 * 1024 * 1024
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost:   opts.Concurrency,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureTLS, // 允许自签名、过期证书
		},
	}

	return &Fetcher{opts: opts, transport: transport}
}

// Fetch 抓取全部 Pending 记录; 同一规范化URL只请求一次
// 单个资源失败只标记该记录; 仅在 ctx 结束时返回错误, 此时未完成的记录标记为失败
func (f *Fetcher) Fetch(ctx context.Context, records []*models.AssetRecord) error {
	byURL := make(map[string]*models.AssetRecord, len(records))
	for _, rec := range records {
		if rec.Status == models.AssetPending {
			byURL[rec.CanonicalURL] = rec
		}
	}
	if len(byURL) == 0 {
		return ctx.Err()
	}
	defer f.transport.CloseIdleConnections()

	headers := http.Header{}
	if f.opts.Headers != nil {
		h, err := f.opts.Headers.GetHeaders()
		if err != nil {
			return fmt.Errorf("获取HTTP头部失败: %w", err)
		}
		headers = h
	}

	var bar *progressbar.ProgressBar
	if f.opts.Progress != nil {
		bar = utils.NewProgressBar(len(byURL), "下载资源", f.opts.Progress)
		defer bar.Finish()
	}

	var mu sync.Mutex
	settle := func(canonical string, apply func(rec *models.AssetRecord) bool) {
		mu.Lock()
		defer mu.Unlock()
		rec := byURL[canonical]
		if rec != nil && apply(rec) && bar != nil {
			_ = bar.Add(1)
		}
	}

	c := f.newCollector(ctx)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		canonical := r.Ctx.Get(canonicalKey)
		body, err := utils.DecompressBody(r.Headers.Get("Content-Encoding"), r.Body)
		switch {
		case err != nil:
			utils.Warnf("解压响应失败 [%s]: %v", canonical, err)
			settle(canonical, func(rec *models.AssetRecord) bool {
				return rec.MarkFailed(models.NewCloneError(models.KindNetwork, canonical, err))
			})
		case len(r.Body) > f.opts.MaxBodySize:
			settle(canonical, func(rec *models.AssetRecord) bool {
				return rec.MarkFailed(models.NewCloneError(models.KindNetwork, canonical, errTooLarge))
			})
		default:
			utils.Debugf("下载完成 [%s]: %d 字节", canonical, len(body))
			settle(canonical, func(rec *models.AssetRecord) bool {
				if !rec.MarkFetched(body, r.Headers.Get("Content-Type")) {
					return false
				}
				rec.FinalURL = r.Request.URL.String()
				return true
			})
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		canonical := r.Ctx.Get(canonicalKey)
		if r.StatusCode > 0 {
			err = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
		}
		utils.Warnf("下载资源失败 [%s]: %v", canonical, err)
		settle(canonical, func(rec *models.AssetRecord) bool {
			return rec.MarkFailed(models.NewCloneError(models.KindNetwork, canonical, err))
		})
	})

	utils.Infof("开始下载 %d 个资源 (并发=%d)", len(byURL), f.opts.Concurrency)
	requested := make(map[string]bool, len(byURL))
	for _, rec := range records {
		if byURL[rec.CanonicalURL] != rec || requested[rec.CanonicalURL] {
			continue
		}
		requested[rec.CanonicalURL] = true
		cctx := colly.NewContext()
		cctx.Put(canonicalKey, rec.CanonicalURL)
		if err := c.Request(http.MethodGet, rec.CanonicalURL, nil, cctx, headers.Clone()); err != nil {
			settle(rec.CanonicalURL, func(rec *models.AssetRecord) bool {
				return rec.MarkFailed(models.NewCloneError(models.KindNetwork, rec.CanonicalURL, err))
			})
		}
	}
	c.Wait()

	// 被中止的请求不会触发任何回调
	cause := ctx.Err()
	if cause == nil {
		cause = errNotStarted
	}
	for _, rec := range byURL {
		if rec.Status == models.AssetPending {
			rec.MarkFailed(models.NewCloneError(models.KindNetwork, rec.CanonicalURL, cause))
		}
	}

	return ctx.Err()
}

func (f *Fetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.Async(true),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.MaxBodySize(f.opts.MaxBodySize+1),
		colly.StdlibContext(ctx),
	)
	c.WithTransport(f.transport)
	c.SetRequestTimeout(f.opts.RequestTimeout)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: f.opts.Concurrency,
	}); err != nil {
		utils.Warnf("设置并发限制失败: %v", err)
	}
	return c
}
