package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"TodoList/internal/task"
	"TodoList/pkg/logger"
)

// EnvPath 指定配置文件路径的环境变量。
const EnvPath = "TODOLIST_CONFIG"

// DefaultPath 为未设置环境变量时使用的配置文件位置。
const DefaultPath = "configs/todolist.yaml"

// Mode 决定任务数据的来源。
type Mode string

const (
	// ModeNetworked 通过 HTTP 访问远端任务存储与上传服务。
	ModeNetworked Mode = "networked"
	// ModeStandalone 使用进程内存储，附件以本地文件引用保存。
	ModeStandalone Mode = "standalone"
)

// Config 描述客户端启动阶段需要加载的全部配置。
type Config struct {
	Mode    Mode          `yaml:"mode" validate:"oneof=networked standalone"`
	API     APIConfig     `yaml:"api"`
	View    ViewConfig    `yaml:"view"`
	Upload  UploadConfig  `yaml:"upload"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig 控制任务存储服务的访问方式。
type APIConfig struct {
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1,lte=600"`
}

// ViewConfig 控制列表展示。
type ViewConfig struct {
	PageSize int `yaml:"page_size" validate:"gte=1,lte=100"`
}

// UploadConfig 控制附件选择器。
type UploadConfig struct {
	AllowedTypes []string `yaml:"allowed_types" validate:"dive,startswith=."`
	StartDir     string   `yaml:"start_dir"`
}

// LogConfig 对应 pkg/logger 的配置项。
type LogConfig struct {
	Level       string   `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format      string   `yaml:"format" validate:"oneof=json text"`
	OutputPaths []string `yaml:"output_paths" validate:"dive,required"`
	MaxSizeMB   int      `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups  int      `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays  int      `yaml:"max_age_days" validate:"gte=0"`
}

// MetricsConfig 控制出站请求统计。
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// PathFromEnv 返回环境变量中的配置路径，未设置时返回默认值。
func PathFromEnv() string {
	if path := strings.TrimSpace(os.Getenv(EnvPath)); path != "" {
		return path
	}
	return DefaultPath
}

// Load 解析指定路径的 YAML 配置文件。文件不存在时返回默认配置。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	var cfg Config
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// 使用默认配置
	case err != nil:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	default:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("解析配置失败: %w", err)
		}
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	c.Mode = Mode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	if c.Mode == "" {
		c.Mode = ModeNetworked
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://127.0.0.1:8000"
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 15
	}

	if c.View.PageSize <= 0 {
		c.View.PageSize = task.DefaultPageSize
	}

	if len(c.Upload.AllowedTypes) == 0 {
		c.Upload.AllowedTypes = append([]string(nil), task.DefaultAttachmentTypes...)
	}
	if c.Upload.StartDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Upload.StartDir = home
		} else {
			c.Upload.StartDir = "."
		}
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if len(c.Log.OutputPaths) == 0 {
		c.Log.OutputPaths = []string{logger.DefaultPath}
	}
	for i, out := range c.Log.OutputPaths {
		if isStream(out) || filepath.IsAbs(out) {
			continue
		}
		c.Log.OutputPaths[i] = filepath.Join(baseDir, out)
	}
}

// Validate 检查无法通过默认值修复的配置错误。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return fmt.Errorf("配置校验失败: %s", describeFieldErrors(fieldErrs))
		}
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.Mode == ModeNetworked && !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url 必须是 http(s) 地址: %q", c.API.BaseURL)
	}
	return nil
}

var validate = newValidator()

// newValidator 使用 yaml 字段名报告错误，便于对照配置文件。
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func describeFieldErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		if e.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s 不满足 %s=%s", field, e.Tag(), e.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s 不满足 %s", field, e.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// Logger 转换为 pkg/logger 的配置。
func (c LogConfig) Logger() logger.Config {
	return logger.Config{
		Level:       c.Level,
		Format:      c.Format,
		OutputPaths: append([]string(nil), c.OutputPaths...),
		Rotation: logger.RotationConfig{
			MaxSizeMB:  c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAgeDays: c.MaxAgeDays,
		},
	}
}

func isStream(out string) bool {
	switch strings.ToLower(out) {
	case "stdout", "stderr", "discard":
		return true
	}
	return false
}
