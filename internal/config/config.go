package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix 环境变量前缀，如 PROFITSTAT_SERVER_PORT
const EnvPrefix = "PROFITSTAT"

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server" envconfig:"SERVER"`
	Log      LogConfig      `toml:"log" envconfig:"LOG"`
	Pipeline PipelineConfig `toml:"pipeline" envconfig:"PIPELINE"`
	Export   ExportConfig   `toml:"export" envconfig:"EXPORT"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port               int  `toml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	DevMode            bool `toml:"dev_mode" envconfig:"DEV_MODE"`
	OpenBrowser        bool `toml:"open_browser" envconfig:"OPEN_BROWSER"`
	MaxUploadMB        int  `toml:"max_upload_mb" envconfig:"MAX_UPLOAD_MB" validate:"min=1,max=1024"`
	DownloadTTLMinutes int  `toml:"download_ttl_minutes" envconfig:"DOWNLOAD_TTL_MINUTES" validate:"min=1,max=1440"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level" envconfig:"LEVEL" validate:"oneof=trace debug info warn error"`
}

// PipelineConfig 统计口径配置
type PipelineConfig struct {
	// 目标月份标记（按文本匹配，不做日期解析）
	Months    []string `toml:"months" envconfig:"MONTHS" validate:"min=1,dive,required"`
	MatchMode string   `toml:"match_mode" envconfig:"MATCH_MODE" validate:"oneof=substring exact"`
	FillScope string   `toml:"fill_scope" envconfig:"FILL_SCOPE" validate:"oneof=file global"`

	MonthLabels   []string `toml:"month_labels" envconfig:"MONTH_LABELS" validate:"min=1,dive,required"`
	ProjectLabels []string `toml:"project_labels" envconfig:"PROJECT_LABELS" validate:"min=1,dive,required"`
	ChannelLabels []string `toml:"channel_labels" envconfig:"CHANNEL_LABELS" validate:"min=1,dive,required"`
	ProfitLabels  []string `toml:"profit_labels" envconfig:"PROFIT_LABELS" validate:"min=1,dive,required"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	SummarySheet string `toml:"summary_sheet" envconfig:"SUMMARY_SHEET" validate:"required,max=31,nefield=RawSheet"`
	RawSheet     string `toml:"raw_sheet" envconfig:"RAW_SHEET" validate:"required,max=31"`
	FileName     string `toml:"file_name" envconfig:"FILE_NAME" validate:"required"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FromFile      bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:               20262,
			DevMode:            false,
			OpenBrowser:        true,
			MaxUploadMB:        32,
			DownloadTTLMinutes: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
		Pipeline: PipelineConfig{
			Months:        []string{"1月", "2月", "3月"},
			MatchMode:     "substring",
			FillScope:     "file",
			MonthLabels:   []string{"月份"},
			ProjectLabels: []string{"项目名称", "游戏"},
			ChannelLabels: []string{"渠道"},
			ProfitLabels:  []string{"利润"},
		},
		Export: ExportConfig{
			SummarySheet: "summary",
			RawSheet:     "raw",
			FileName:     "项目利润汇总_2025Q1.xlsx",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 加载配置：默认值 → config.toml → 环境变量，最后校验。
// path 为空时使用可执行文件同目录下的 config.toml；文件不存在时使用默认配置。
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FromFile = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	// 环境变量覆盖（用于容器 / 本地运行）
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, info, fmt.Errorf("读取环境变量失败: %w", err)
	}
	if os.Getenv(EnvPrefix+"_SERVER_PORT") != "" {
		info.PortSpecified = true
	}

	if err := Validate(config); err != nil {
		return nil, info, err
	}

	return config, info, nil
}

// Validate 校验配置取值
func Validate(config *AppConfig) error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
