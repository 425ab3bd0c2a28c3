package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

var errSkipped = errors.New("前序克隆失败, 已跳过 (continue_on_error=false)")

// BatchCloner 批量克隆, 多个页面并行且互不共享状态
type BatchCloner struct {
	cloner        *Cloner
	parallel      int
	continueOnErr bool
}

// BatchSummary 批量克隆摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	SkippedCount  int
	TotalAssets   int
	TotalDuration time.Duration
	Outcomes      []*models.CloneOutcome // 与输入URL顺序一致
}

// NewBatchCloner 创建批量克隆器, 并行数受系统资源限制
func NewBatchCloner(cloner *Cloner, parallel int, continueOnErr bool) *BatchCloner {
	return &BatchCloner{
		cloner:        cloner,
		parallel:      capParallel(parallel, cloner.cfg.Mode),
		continueOnErr: continueOnErr,
	}
}

// CloneAll 克隆URL列表; 同主机的多个URL输出到 cloned-<主机>, cloned-<主机>-2 ...
// continueOnErr 为 false 时, 首个失败之后不再启动新的克隆, 已在进行的克隆照常完成
func (bc *BatchCloner) CloneAll(ctx context.Context, urls []string) *BatchSummary {
	start := time.Now()
	utils.Infof("🚀 开始批量克隆: %d 个URL (并行=%d)", len(urls), bc.parallel)

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Outcomes:  make([]*models.CloneOutcome, len(urls)),
	}
	folders := batchFolders(urls)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bc.parallel)

	var mu sync.Mutex
	skip := func(i int, target string) {
		mu.Lock()
		defer mu.Unlock()
		summary.Outcomes[i] = models.NewCloneOutcome(models.NewID(), target).Fail(errSkipped)
		summary.SkippedCount++
	}
	for i, target := range urls {
		if !bc.continueOnErr && gctx.Err() != nil {
			skip(i, target)
			continue
		}
		g.Go(func() error {
			// 等待名额期间可能已有克隆失败
			if !bc.continueOnErr && gctx.Err() != nil {
				skip(i, target)
				return nil
			}
			utils.Infof("[%d/%d] %s", i+1, len(urls), target)
			outcome := bc.cloner.Clone(ctx, target, folders[i])

			mu.Lock()
			summary.Outcomes[i] = outcome
			mu.Unlock()

			if !outcome.Success && !bc.continueOnErr {
				return fmt.Errorf("克隆失败 [%s]", target)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, outcome := range summary.Outcomes {
		if outcome.Success {
			summary.SuccessCount++
			summary.TotalAssets += outcome.AssetsFetched
		} else {
			summary.FailCount++
		}
	}
	summary.FailCount -= summary.SkippedCount
	summary.TotalDuration = time.Since(start)

	bc.logSummary(summary)
	return summary
}

// batchFolders 为每个URL分配不冲突的默认目录名
func batchFolders(urls []string) []string {
	seen := make(map[string]int)
	folders := make([]string, len(urls))
	for i, u := range urls {
		name := models.DefaultFolderName(u)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}
		folders[i] = name
	}
	return folders
}

func (bc *BatchCloner) logSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 批量克隆摘要")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	if summary.SkippedCount > 0 {
		utils.Infof("⏭️  跳过: %d", summary.SkippedCount)
	}
	utils.Infof("📦 资源总数: %d", summary.TotalAssets)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration.Seconds())
	utils.Info("==================================================")

	for _, outcome := range summary.Outcomes {
		if !outcome.Success {
			utils.Warnf("  - %s: %s", outcome.TargetURL, outcome.Summary())
		}
	}
}
