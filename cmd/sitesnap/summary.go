package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/RecoveryAshes/sitesnap/internal/core"
	"github.com/RecoveryAshes/sitesnap/internal/models"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
)

const rule = "=================================================="

func printOutcome(outcome *models.CloneOutcome) {
	fmt.Println()
	fmt.Println(rule)
	if outcome.Success {
		okColor.Println("✅ " + outcome.Summary())
	} else {
		failColor.Println("❌ " + outcome.Summary())
	}
	fmt.Println(rule)
	if outcome.Success {
		fmt.Printf("📁 输出目录: %s\n", outcome.OutputDir)
		fmt.Printf("📦 资源: %d 成功, %d 失败\n", outcome.AssetsFetched, outcome.AssetsFailed)
	}
	fmt.Printf("⏱️  耗时: %.2f秒\n", outcome.Duration.Seconds())
	for _, fa := range outcome.FailedAssets {
		warnColor.Printf("  - %s: %s\n", fa.URL, fa.Reason)
	}
}

func printBatchSummary(summary *core.BatchSummary) {
	fmt.Println()
	fmt.Println(rule)
	fmt.Println("📊 批量克隆摘要")
	fmt.Println(rule)
	fmt.Printf("总URL数: %d\n", summary.TotalURLs)
	okColor.Printf("✅ 成功: %d\n", summary.SuccessCount)
	if summary.FailCount > 0 {
		failColor.Printf("❌ 失败: %d\n", summary.FailCount)
	}
	if summary.SkippedCount > 0 {
		warnColor.Printf("⏭️  跳过: %d\n", summary.SkippedCount)
	}
	fmt.Printf("📦 资源总数: %d\n", summary.TotalAssets)
	fmt.Printf("⏱️  总耗时: %.2f秒\n", summary.TotalDuration.Seconds())
	fmt.Println(rule)

	for _, outcome := range summary.Outcomes {
		if outcome.Success {
			fmt.Printf("  %s -> %s\n", outcome.TargetURL, outcome.OutputDir)
		} else {
			failColor.Printf("  %s: %s\n", outcome.TargetURL, outcome.Summary())
		}
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
