package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/shirou/gopsutil/v3/disk"
)

// 镜像目录所在磁盘的最低剩余空间
const minFreeBytes = 200 * 1024 * 1024

func main() {
	fmt.Println("==============================================")
	fmt.Println("  sitesnap 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	fmt.Printf("✅ Go版本: %s\n", runtime.Version())
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 动态渲染依赖本机 Chrome/Chromium, 缺失时 auto 模式退回静态渲染
	if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ 浏览器: %s\n", path)
	} else {
		fmt.Println("⚠️  未找到Chrome/Chromium - dynamic 模式将在首次运行时自动下载, auto 模式退回静态渲染")
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Printf("❌ 无法获取工作目录: %v\n", err)
		os.Exit(1)
	}
	if usage, err := disk.Usage(wd); err != nil {
		fmt.Printf("⚠️  无法读取磁盘信息: %v\n", err)
	} else if usage.Free < minFreeBytes {
		fmt.Printf("❌ 磁盘剩余空间不足: %.1f MB\n", float64(usage.Free)/(1024*1024))
		allOK = false
	} else {
		fmt.Printf("✅ 磁盘剩余空间: %.1f GB\n", float64(usage.Free)/(1024*1024*1024))
	}

	probe := filepath.Join(wd, ".sitesnap-write-test")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		fmt.Printf("❌ 工作目录不可写: %v\n", err)
		allOK = false
	} else {
		_ = os.Remove(probe)
		fmt.Println("✅ 工作目录可写")
	}

	fmt.Println()
	fmt.Println("检查Go模块依赖...")
	if _, err := os.Stat("go.mod"); err == nil {
		fmt.Println("✅ go.mod文件存在")
		fmt.Println("正在下载依赖...")
		if err := exec.Command("go", "mod", "download").Run(); err != nil {
			fmt.Printf("❌ go mod download失败: %v\n", err)
			allOK = false
		} else {
			fmt.Println("✅ 依赖下载完成")
		}
	} else {
		fmt.Println("❌ go.mod文件不存在")
		allOK = false
	}

	fmt.Println()
	fmt.Println("检查项目结构...")
	for _, dir := range []string{
		"cmd/sitesnap",
		"internal/core",
		"internal/render",
		"internal/snapshot",
		"internal/models",
		"internal/utils",
		"internal/config",
	} {
		if _, err := os.Stat(dir); err == nil {
			fmt.Printf("✅ %s/\n", dir)
		} else {
			fmt.Printf("❌ %s/ 不存在\n", dir)
			allOK = false
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'go build -o sitesnap ./cmd/sitesnap' 构建项目")
		fmt.Println("  2. 运行 './sitesnap --help' 查看帮助")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}
