package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"profitstat/internal/config"
)

// Configure 初始化全局日志：开发模式输出到控制台，否则输出 JSON
func Configure(cfg *config.AppConfig) {
	ConfigureWriter(cfg, os.Stdout)
}

// ConfigureWriter 同 Configure，可指定输出位置
func ConfigureWriter(cfg *config.AppConfig, out io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Server.DevMode && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	writer := out
	if cfg.Server.DevMode {
		writer = zerolog.ConsoleWriter{Out: out}
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}
