package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/sitesnap/internal/core"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string
	jsonOutput bool

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	headersConfig  string   // 头部配置文件路径
	validateConfig bool     // 验证配置文件

	// 克隆参数
	targetURL   string
	urlFile     string
	folder      string
	outputDir   string
	mode        string
	concurrency int
	timeout     int
	noProgress  bool

	// 批量处理参数
	parallel        int
	continueOnError bool
)

// appConfig 由 PersistentPreRunE 加载, 已合并命令行参数
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "sitesnap",
	Short: "网页快照克隆工具",
	Long: `sitesnap - 将在线网页克隆为可离线浏览的静态镜像

输出目录为扁平结构:
  index.html    改写后的页面
  styles.css    按层叠顺序合并的样式表
  <资源文件>    图片、字体等, 引用均已改写为本地文件名

支持:
  • 静态(HTTP)和动态(无头浏览器)渲染, auto 模式在浏览器不可用时退回静态
  • 资源去重和有界并发下载
  • 批量URL处理
  • 自定义HTTP请求头

示例:
  sitesnap -u https://example.com
  sitesnap -u https://example.com --folder example -o mirrors
  sitesnap -f urls.txt --parallel 4
  sitesnap -u https://example.com -H "Authorization: Bearer token"
  sitesnap --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		config.MergeCLIFlags(core.CLIOverrides{
			Mode:        mode,
			Concurrency: concurrency,
			Timeout:     timeout,
			OutputDir:   outputDir,
			LogLevel:    logLevel,
			NoProgress:  noProgress || jsonOutput,
		})
		if verbose && logLevel == "" {
			config.Logging.Level = "debug"
		}
		if cmd.Flags().Changed("parallel") {
			config.Batch.Parallel = parallel
		}
		if cmd.Flags().Changed("continue-on-error") {
			config.Batch.ContinueOnError = continueOnError
		}

		logConfig := config.LogConfig()
		logConfig.NoConsole = jsonOutput
		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}
		if verbose {
			utils.Info("详细模式已启用")
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Ctrl+C 取消正在进行的克隆, 已取消的克隆不写出任何文件
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		headerManager, err := core.NewHeaderManager(headersConfig, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		if validateConfig {
			return runValidateConfig(headerManager)
		}

		if targetURL == "" && urlFile == "" {
			return cmd.Help()
		}

		normalized, err := ValidateFlags(targetURL, urlFile, folder)
		if err != nil {
			return err
		}
		if err := appConfig.Validate(); err != nil {
			return err
		}
		if err := headerManager.Validate(); err != nil {
			return fmt.Errorf("HTTP头部配置无效: %w", err)
		}

		opts := core.ClonerOptions{
			Config:   appConfig.Clone,
			BaseDir:  appConfig.Output.BaseDir,
			Headers:  headerManager,
			Reporter: utils.NewReporter(appConfig.Output.ReportDir),
		}
		if appConfig.Clone.ShowProgress {
			opts.Progress = os.Stderr
		}
		cloner, err := core.NewCloner(opts)
		if err != nil {
			return fmt.Errorf("创建克隆器失败: %w", err)
		}

		if urlFile != "" {
			urls, err := utils.ReadURLsFromFile(urlFile)
			if err != nil {
				return fmt.Errorf("读取URL文件失败: %w", err)
			}
			batch := core.NewBatchCloner(cloner, appConfig.Batch.Parallel, appConfig.Batch.ContinueOnError)
			summary := batch.CloneAll(ctx, urls)
			if jsonOutput {
				return printJSON(summary.Outcomes)
			}
			printBatchSummary(summary)
			if summary.SuccessCount == 0 && summary.TotalURLs > 0 {
				return fmt.Errorf("全部 %d 个URL克隆失败", summary.TotalURLs)
			}
			return nil
		}

		outcome := cloner.Clone(ctx, normalized, folder)
		if jsonOutput {
			if err := printJSON(outcome); err != nil {
				return err
			}
		} else {
			printOutcome(outcome)
		}
		if !outcome.Success {
			return fmt.Errorf("克隆失败")
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sitesnap %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "以JSON输出克隆结果")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().StringVar(&headersConfig, "headers-config", "", "HTTP头部配置文件 (默认 configs/headers.yaml)")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 克隆参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "目标URL (必需,除非使用 --url-file)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().StringVar(&folder, "folder", "", "镜像目录名 (默认 cloned-<主机名>)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出根目录")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "", "渲染模式 (auto|dynamic|static)")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "资源并发下载数 (1-32)")
	rootCmd.Flags().IntVar(&timeout, "timeout", 0, "单次克隆总超时(秒)")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "不显示下载进度条")

	// 批量处理参数
	rootCmd.Flags().IntVar(&parallel, "parallel", 2, "批量模式下并行克隆的页面数 (1-16)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
