package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"profitstat/internal/config"
	"profitstat/internal/importer"
	"profitstat/internal/logging"
	"profitstat/internal/model"
	"profitstat/internal/server"
	"profitstat/internal/util"
)

var (
	port        = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode     = flag.Bool("dev", false, "开发模式")
	configPath  = flag.String("config", "", "配置文件路径 (默认为可执行文件同目录下的 config.toml)")
	outPath     = flag.String("out", "", "批处理模式的导出文件路径 (默认使用配置中的 file_name)")
	writeConfig = flag.Bool("write-config", false, "将当前配置写入配置文件后退出")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法:\n  %s [flags]               启动服务\n  %s [flags] a.xlsx b.xlsx  批处理统计\n\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}

	logging.Configure(cfg)

	if *writeConfig {
		if err := config.SaveConfig(cfg, *configPath); err != nil {
			log.Fatal().Err(err).Msg("写入配置失败")
		}
		return
	}

	if flag.NArg() > 0 {
		os.Exit(runBatch(cfg, flag.Args(), *outPath))
	}

	serve(cfg)
}

// runBatch 不启动服务，直接统计命令行给出的文件
func runBatch(cfg *config.AppConfig, paths []string, out string) int {
	files := make([]model.SourceFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ 无法读取文件 %s: %v\n", p, err)
			continue
		}
		files = append(files, model.SourceFile{Name: filepath.Base(p), Data: data})
	}

	coordinator := importer.NewCoordinator(importer.OptionsFromConfig(cfg))
	report, err := coordinator.Run(context.Background(), files)
	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "⚠️ %s\n", w.Reason)
	}
	if errors.Is(err, importer.ErrNoValidData) {
		fmt.Fprintln(os.Stderr, "请上传包含有效字段的 Excel 文件。")
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "project_name\tmonth\tprofit")
	for _, r := range report.Summary {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ProjectName, r.Month, r.TotalProfit.String())
	}
	_ = w.Flush()

	if out == "" {
		out = cfg.Export.FileName
	}
	if err := os.WriteFile(out, report.Workbook, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 写入 %s 失败: %v\n", out, err)
		return 1
	}
	fmt.Printf("📥 已导出: %s\n", out)
	return 0
}

func serve(cfg *config.AppConfig) {
	fmt.Println("==========================================")
	fmt.Println("  项目利润统计系统")
	fmt.Println("==========================================")

	srv := server.NewServer(cfg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("服务启动中")
		if err := srv.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("服务启动失败")
		}
	}()

	if !cfg.Server.DevMode && cfg.Server.OpenBrowser {
		fmt.Printf("正在打开浏览器: %s\n", url)
		if err := util.OpenBrowser(url); err != nil {
			fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Printf("请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
}
