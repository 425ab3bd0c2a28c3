package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/render"
	"github.com/RecoveryAshes/sitesnap/internal/snapshot"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

// ClonerOptions 克隆器参数
type ClonerOptions struct {
	Config   models.CloneConfig
	BaseDir  string                // 输出根目录, 镜像目录建在其下
	Headers  models.HeaderProvider // 可为 nil
	Renderer render.Renderer       // nil 时按 Config.Mode 创建
	Reporter *utils.Reporter       // nil 时不生成报告
	Progress io.Writer             // nil 时不显示进度条
}

// Cloner 单页面克隆器
// 可被多个 goroutine 同时使用, 每次 Clone 使用独立的清单
type Cloner struct {
	cfg      models.CloneConfig
	baseDir  string
	headers  models.HeaderProvider
	renderer render.Renderer
	reporter *utils.Reporter
	progress io.Writer
}

// NewCloner 创建克隆器
func NewCloner(opts ClonerOptions) (*Cloner, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("克隆配置无效: %w", err)
	}

	renderer := opts.Renderer
	if renderer == nil {
		r, err := render.NewRenderer(opts.Config, opts.Headers)
		if err != nil {
			return nil, err
		}
		renderer = r
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = "."
	}

	return &Cloner{
		cfg:      opts.Config,
		baseDir:  baseDir,
		headers:  opts.Headers,
		renderer: renderer,
		reporter: opts.Reporter,
		progress: opts.Progress,
	}, nil
}

// Clone 克隆单个页面到 <BaseDir>/<folder>
// folder 为空时使用 cloned-<主机名>; 任何错误都体现在返回的结果中, 不会 panic
func (c *Cloner) Clone(ctx context.Context, targetURL, folder string) (outcome *models.CloneOutcome) {
	start := time.Now()
	outcome = models.NewCloneOutcome(models.NewID(), targetURL)
	var m *snapshot.Manifest

	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("克隆过程panic [%s]: %v", targetURL, r)
			outcome.OutputDir = ""
			outcome.Fail(fmt.Errorf("内部错误: %v", r))
		}
		outcome.Duration = time.Since(start)
		c.writeReport(outcome, m, start)
		utils.Infof("克隆结束 [%s]: %s (耗时 %.2f秒)", targetURL, outcome.Summary(), outcome.Duration.Seconds())
	}()

	if err := models.ValidateURL(targetURL); err != nil {
		return outcome.Fail(models.NewCloneError(models.KindURLResolution, targetURL, err))
	}
	if folder == "" {
		folder = models.DefaultFolderName(targetURL)
	}
	if err := models.ValidateFolderName(folder); err != nil {
		return outcome.Fail(models.NewCloneError(models.KindFileSystem, folder, err))
	}
	outputDir := filepath.Join(c.baseDir, folder)

	utils.Infof("开始克隆: %s -> %s (模式=%s)", targetURL, outputDir, c.cfg.Mode)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.TimeoutDuration())
	defer cancel()

	var err error
	m, err = c.capture(ctx, targetURL, outputDir, outcome)
	if m != nil {
		fetched, failed := m.Counts()
		outcome.AssetsFetched = fetched
		outcome.AssetsFailed = failed
		outcome.FailedAssets = m.FailedAssets()
		for _, fa := range outcome.FailedAssets {
			outcome.Errors = append(outcome.Errors, fa.Reason)
		}
	}
	if err != nil {
		return outcome.Fail(err)
	}

	outcome.Success = true
	outcome.OutputDir = outputDir
	return outcome
}

// capture 渲染 -> 收集 -> 抓取 -> 写出
// 输出目录只在全部抓取结束且 ctx 仍有效后才创建, 取消时不写任何文件
func (c *Cloner) capture(ctx context.Context, targetURL, outputDir string, outcome *models.CloneOutcome) (*snapshot.Manifest, error) {
	markup, finalURL, err := c.renderer.Render(ctx, targetURL)
	if err != nil {
		return nil, classify(ctx, targetURL, models.KindNetwork, err)
	}
	pageURL, err := url.Parse(finalURL)
	if err != nil || pageURL.Host == "" {
		pageURL, _ = url.Parse(targetURL)
	}

	doc, err := snapshot.ParseDocument(markup)
	if err != nil {
		return nil, err
	}
	base := snapshot.DocumentBase(doc, pageURL)
	if n := snapshot.RemoveBase(doc); n > 0 {
		utils.Debugf("文档基准URL: %s (移除 %d 个 <base>)", base, n)
	}

	m := snapshot.NewManifest(outcome.ID, base, outputDir, doc)
	collector := snapshot.NewCollector()
	m.Register(collector.CollectHTML(doc, base))

	fetcher := snapshot.NewFetcher(snapshot.FetcherOptions{
		Concurrency:    c.cfg.Concurrency,
		RequestTimeout: c.cfg.RequestTimeoutDuration(),
		MaxBodySize:    c.cfg.MaxAssetBytes(),
		InsecureTLS:    c.cfg.InsecureTLS,
		Headers:        c.headers,
		Progress:       c.progress,
	})

	// 样式表先行, 其正文中的 url() 需要在第二轮一起抓取
	if err := fetcher.Fetch(ctx, m.Pending(isStylesheet)); err != nil {
		return m, classify(ctx, targetURL, models.KindNetwork, err)
	}
	sheets := append(m.LinkedStylesheets(), snapshot.StyleElements(doc, base)...)
	m.Register(collector.CollectCSS(sheets))
	for _, e := range collector.Errors {
		outcome.AddError(e)
	}
	utils.Infof("收集到 %d 处引用, %d 个资源", len(m.References()), len(m.Records()))

	snapshot.AssignNames(m.Records())
	if err := fetcher.Fetch(ctx, m.Pending(nil)); err != nil {
		return m, classify(ctx, targetURL, models.KindNetwork, err)
	}
	if err := ctx.Err(); err != nil {
		return m, models.NewCloneError(models.KindCanceled, targetURL, err)
	}

	writer := snapshot.NewWriter(outputDir)
	if err := writer.Prepare(m.TotalBytes()); err != nil {
		return m, err
	}
	writer.WriteAssets(m.Records())

	snapshot.Rewrite(m)
	document := snapshot.FormatHTML(doc.Nodes[0])
	stylesheet := snapshot.FormatStylesheets(m.AggregateCSS)

	files, err := writer.WriteDocument(document, stylesheet)
	if err != nil {
		return m, err
	}
	outcome.Files = files
	return m, nil
}

func isStylesheet(rec *models.AssetRecord) bool {
	return rec.Stylesheet
}

// classify ctx 已结束时统一归为 Canceled, 未分类的错误归为 kind
func classify(ctx context.Context, target string, kind models.ErrorKind, err error) error {
	if ctx.Err() != nil {
		return models.NewCloneError(models.KindCanceled, target, ctx.Err())
	}
	var cloneErr *models.CloneError
	if errors.As(err, &cloneErr) {
		return err
	}
	return models.NewCloneError(kind, target, err)
}

func (c *Cloner) writeReport(outcome *models.CloneOutcome, m *snapshot.Manifest, start time.Time) {
	if !c.reporter.Enabled() {
		return
	}

	domain := "unknown"
	if u, err := url.Parse(outcome.TargetURL); err == nil && u.Host != "" {
		domain = u.Host
	}
	report := &models.CloneReport{
		TaskID:    outcome.ID,
		TargetURL: outcome.TargetURL,
		Domain:    domain,
		Mode:      c.cfg.Mode,
		StartTime: start,
		EndTime:   time.Now(),
		Duration:  outcome.Duration.Seconds(),
		Outcome:   outcome,
		Assets:    make([]models.AssetInfo, 0),
		Config:    c.cfg,
	}
	if m != nil {
		for _, rec := range m.Records() {
			report.Assets = append(report.Assets, models.NewAssetInfo(rec, m.Sites(rec.CanonicalURL)))
		}
	}

	if _, err := c.reporter.GenerateReport(report); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}
}
