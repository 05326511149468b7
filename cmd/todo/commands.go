package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"TodoList/internal/config"
	"TodoList/internal/observability/metrics"
	"TodoList/internal/task"
	"TodoList/internal/tui"
	"TodoList/internal/view"
	"TodoList/pkg/logger"
	"TodoList/sdk/go/taskstore"
)

type flags struct {
	configFile string
	standalone bool
}

// newRootCommand 构建 todo 命令，默认启动终端界面。
func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Terminal todo list backed by the task store API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", config.PathFromEnv(), "config file path")
	cmd.PersistentFlags().BoolVar(&f.standalone, "standalone", false, "keep tasks in memory instead of calling the task store")
	cmd.AddCommand(newConfigCommand(&f))
	return cmd
}

// newConfigCommand 输出合并默认值后的最终配置。
func newConfigCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("序列化配置失败: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func (f *flags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	if f.standalone {
		cfg.Mode = config.ModeStandalone
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(cfg.Log.Logger()); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	appLog := logger.Named("main")

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		defer func() {
			appLog.Info("task store api metrics", slog.Any("summary", collector))
			appLog.Debug("task store api metrics exposition", slog.String("text", collector.Render()))
		}()
	}

	store, uploader := buildBackend(cfg, collector)
	defer store.Close()

	v := view.New(store, uploader,
		view.WithPageSize(cfg.View.PageSize),
		view.WithLogger(logger.Named("view")),
	)
	model := tui.New(ctx, v, tui.Options{
		AllowedTypes: cfg.Upload.AllowedTypes,
		StartDir:     cfg.Upload.StartDir,
		Logger:       logger.Named("tui"),
	})

	appLog.Info("starting todo client", slog.String("mode", string(cfg.Mode)), slog.String("api", cfg.API.BaseURL))
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("终端界面退出异常: %w", err)
	}
	appLog.Info("todo client stopped")
	return nil
}

// buildBackend 根据运行模式选择任务存储与附件上传实现。
func buildBackend(cfg *config.Config, collector *metrics.Collector) (task.Store, task.Uploader) {
	if cfg.Mode == config.ModeStandalone {
		return task.NewMemoryStore(), task.LocalUploader{}
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second}
	if collector != nil {
		httpClient.Transport = collector.Transport(nil)
	}
	client := taskstore.NewClient(cfg.API.BaseURL, httpClient)
	breaker := task.NewBreaker("task-store", 0)
	store := task.NewRemoteStore(client, task.WithBreaker(breaker))
	return store, task.NewRemoteUploader(client, task.WithUploadBreaker(breaker))
}
