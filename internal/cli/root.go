// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/artemshloyda/wallpaperctl/internal/config"
	"github.com/artemshloyda/wallpaperctl/internal/logger"
	"github.com/artemshloyda/wallpaperctl/internal/metrics"
)

var (
	// Version будет установлена при сборке.
	Version = "dev"

	// BuildTime будет установлена при сборке.
	BuildTime = "unknown"
)

// annotationNoSetup помечает команды, которым не нужна конфигурация.
const annotationNoSetup = "wallpaperctl/no-setup"

// globalFlags - значения глобальных флагов.
type globalFlags struct {
	configPath     string
	wallpapersRoot string
	outputRoot     string
	dbDriver       string
	db             string
	logLevel       string
	logFormat      string
	verbose        bool
}

// app - состояние одного запуска CLI.
type app struct {
	flags globalFlags

	cfg        *config.Config
	configFile string
	level      zerolog.Level
	log        zerolog.Logger
	runID      string
	metrics    *metrics.Recorder
}

// NewRootCmd создаёт корневую команду CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "wallpaperctl",
		Short: "Конвейер обоев: рендишены и импорт в каталог",
		Long: `wallpaperctl - пакетный конвейер для обоев, которые выкладываются периодами
(static/wallpapers/001, 002, ...).

compress строит рендишены (thumbnail, preview, original) с правилом contain-fit,
ingest сверяет период с каталогом и готовит SQL-файл с новыми записями.
Повторный запуск безопасен: готовые рендишены и известные файлы пропускаются.

Примеры:
  # Превью для самого нового периода
  wallpaperctl compress

  # Все рендишены для периода 003, с перезаписью
  wallpaperctl compress -p 003 -t thumbnail,preview,original -f

  # Новые файлы периода в SQL-файл и сразу в каталог
  wallpaperctl ingest --upload

  # Создать схему каталога
  wallpaperctl migrate`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	// Глобальные флаги
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "Путь к файлу конфигурации YAML")
	flags.StringVar(&a.flags.wallpapersRoot, "wallpapers-root", "", "Корень с директориями периодов (по умолчанию static/wallpapers)")
	flags.StringVar(&a.flags.outputRoot, "output-root", "", "База для директорий рендишенов (по умолчанию static)")
	flags.StringVar(&a.flags.dbDriver, "db-driver", "", "Драйвер каталога: sqlite3 или postgres")
	flags.StringVar(&a.flags.db, "db", "", "База каталога (для sqlite3 - путь к файлу)")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "Уровень логирования: debug, info, warn, error")
	flags.StringVar(&a.flags.logFormat, "log-format", "", "Формат логов: console или json")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Подробный вывод")

	// Подкоманды
	rootCmd.AddCommand(newCompressCmd(a))
	rootCmd.AddCommand(newIngestCmd(a))
	rootCmd.AddCommand(newPeriodCmd(a))
	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup собирает конфигурацию по слоям: умолчания, файл, окружение, флаги.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Annotations[annotationNoSetup] == "true" {
		return nil
	}

	cfg := config.DefaultConfig()

	fc, path, err := config.FindAndLoadConfig(a.flags.configPath)
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}
	fc.ApplyToConfig(cfg)
	a.configFile = path

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("wallpapers-root") {
		cfg.WallpapersRoot = a.flags.wallpapersRoot
	}
	if flags.Changed("output-root") {
		cfg.OutputRoot = a.flags.outputRoot
	}
	if flags.Changed("db-driver") {
		cfg.Catalog.Driver = a.flags.dbDriver
	}
	if flags.Changed("db") {
		cfg.Catalog.Database = a.flags.db
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.flags.logFormat
	}
	if a.flags.verbose {
		cfg.Verbose = true
	}

	a.cfg = cfg
	a.level = logger.ParseLevel(cfg.LogLevel)
	if cfg.Verbose && a.level > zerolog.DebugLevel {
		a.level = zerolog.DebugLevel
	}
	a.runID = uuid.NewString()
	a.log = a.newLogger(cmd, cmd.ErrOrStderr())
	a.metrics = metrics.New()

	if path != "" {
		a.log.Debug().Str("path", path).Msg("загружен файл конфигурации")
	}
	return nil
}

// newLogger создаёт логгер запуска, пишущий в out.
func (a *app) newLogger(cmd *cobra.Command, out io.Writer) zerolog.Logger {
	return logger.New(logger.Options{
		Level:   a.level,
		Format:  a.cfg.LogFormat,
		Output:  out,
		NoColor: !isTerminal(out),
	}).With().
		Str("run_id", a.runID).
		Str("command", cmd.Name()).
		Logger()
}

// validate проверяет итоговую конфигурацию после флагов команды.
func (a *app) validate() error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}
	return nil
}

// finish фиксирует длительность запуска и выгружает метрики, если задан файл.
func (a *app) finish(command string, start time.Time) {
	a.metrics.ObserveRun(command, time.Since(start), time.Now())
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("не удалось записать метрики")
	}
}

// signalContext возвращает контекст, отменяемый по SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// isTerminal сообщает, является ли w терминалом.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newVersionCmd создаёт команду version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Показать версию",
		Annotations: map[string]string{annotationNoSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wallpaperctl %s (built %s)\n", Version, BuildTime)
		},
	}
}

// Execute запускает CLI.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		// Не выводим ошибку, cobra уже вывела
		os.Exit(1)
	}
}

/*
Возможные расширения:
- Добавить команду export для выгрузки каталога в JSON
- Добавить автодополнение для имён рендишенов
*/
