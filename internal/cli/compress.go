package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/wallpaperctl/internal/config"
	"github.com/artemshloyda/wallpaperctl/internal/converter"
	"github.com/artemshloyda/wallpaperctl/internal/progress"
	"github.com/artemshloyda/wallpaperctl/internal/scanner"
	"github.com/artemshloyda/wallpaperctl/internal/vipsfinder"
	"github.com/artemshloyda/wallpaperctl/internal/worker"
)

// compressFlags - флаги команды compress.
type compressFlags struct {
	types       []string
	force       bool
	directory   string
	period      string
	auto        bool
	engine      string
	vipsPath    string
	noProgress  bool
	metricsFile string
}

// compressTarget - что обрабатывать в этом запуске.
type compressTarget struct {
	dir    string
	period string
	files  []scanner.File
}

// newCompressCmd создаёт команду compress.
func newCompressCmd(a *app) *cobra.Command {
	f := &compressFlags{}

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Построить рендишены обоев",
		Long: `Строит рендишены для периода или произвольной директории.

Без --period и --directory (или с --auto) выбирается самый новый непустой период.
Уже существующие рендишены пропускаются, если не указан --force.

Примеры:
  wallpaperctl compress
  wallpaperctl compress -p 003 -t thumbnail,preview
  wallpaperctl compress -d ./incoming --engine vips`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompress(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&f.types, "types", "t", nil, "Рендишены через запятую: thumbnail, preview, original (по умолчанию preview)")
	flags.BoolVarP(&f.force, "force", "f", false, "Перезаписать существующие рендишены")
	flags.StringVarP(&f.directory, "directory", "d", "", "Обработать произвольную директорию (рекурсивно)")
	flags.StringVarP(&f.period, "period", "p", "", "Период (например, 003)")
	flags.BoolVar(&f.auto, "auto", false, "Выбрать самый новый непустой период")
	flags.StringVar(&f.engine, "engine", "", "Движок: native или vips")
	flags.StringVar(&f.vipsPath, "vips-path", "", "Путь к бинарнику vips")
	flags.BoolVar(&f.noProgress, "no-progress", false, "Отключить прогресс-бар")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Файл метрик для node_exporter textfile collector")

	return cmd
}

// runCompress выполняет основную логику сжатия.
func (a *app) runCompress(cmd *cobra.Command, f *compressFlags) error {
	startTime := time.Now()
	cfg := a.cfg

	flags := cmd.Flags()
	if flags.Changed("types") {
		cfg.Types = f.types
	}
	if flags.Changed("engine") {
		cfg.Engine = config.Engine(f.engine)
	}
	if flags.Changed("vips-path") {
		cfg.VipsPath = f.vipsPath
	}
	if flags.Changed("no-progress") {
		cfg.NoProgress = f.noProgress
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if err := a.validate(); err != nil {
		return err
	}
	defer a.finish("compress", startTime)

	profiles, err := cfg.SelectProfiles(cfg.Types)
	if err != nil {
		return err
	}
	if cfg.Engine == config.EngineNative {
		for _, p := range profiles {
			if p.Format == config.FormatWebP {
				return fmt.Errorf("рендишен %s: формат webp поддерживается только движком vips (--engine vips)", p.Name)
			}
		}
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	engine, err := a.newEngine(ctx)
	if err != nil {
		return err
	}
	conv := converter.New(engine, cfg)

	sc := scanner.New(cfg.CompressExtensions)
	for _, p := range profiles {
		sc.SkipDirs = append(sc.SkipDirs, cfg.ProfileDir(p))
	}

	out := cmd.OutOrStdout()

	// Отсутствующий вход не считается сбоем запуска: диагностика и штатный выход.
	target, err := a.compressTarget(ctx, sc, f)
	if err != nil {
		a.log.Error().Err(err).Msg("вход для сжатия не найден, обработка не запускалась")
		fmt.Fprintf(out, "❌ %v\n", err)
		return nil
	}

	fmt.Fprintf(out, "🚀 Запуск сжатия:\n")
	fmt.Fprintf(out, "   Вход: %s\n", target.dir)
	if target.period != "" {
		fmt.Fprintf(out, "   Период: %s\n", target.period)
	}
	fmt.Fprintf(out, "   Рендишены: %s\n", strings.Join(cfg.Types, ", "))
	fmt.Fprintf(out, "   Движок: %s\n", conv.Engine())
	fmt.Fprintf(out, "   Файлов: %d\n", len(target.files))
	if f.force {
		fmt.Fprintln(out, "   ⚠️  Перезапись существующих рендишенов")
	}
	fmt.Fprintln(out)

	bar := progress.New(progress.Options{
		Total:    int64(len(target.files) * len(profiles)),
		Disabled: cfg.NoProgress || !isTerminal(cmd.ErrOrStderr()),
		Writer:   cmd.ErrOrStderr(),
	})

	log := a.log
	if bar.Active() {
		log = a.newLogger(cmd, bar)
	}

	runner := worker.New(conv, profiles, log)
	runner.SetForce(f.force)
	runner.SetObserver(a.metrics)
	runner.SetProgressBar(bar)

	var stats worker.Stats
	runErr := runner.Run(ctx, target.files, target.period, &stats)
	bar.Finish()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "📊 Результаты:\n")
	fmt.Fprintf(out, "   Файлов: %d\n", stats.Files)
	fmt.Fprintf(out, "   Сжато: %d\n", stats.Converted)
	fmt.Fprintf(out, "   Пропущено: %d\n", stats.Skipped)
	fmt.Fprintf(out, "   Ошибок: %d\n", stats.Failed)
	fmt.Fprintf(out, "   Размер до: %s\n", worker.FormatBytes(stats.InputBytes))
	fmt.Fprintf(out, "   Размер после: %s\n", worker.FormatBytes(stats.OutputBytes))
	fmt.Fprintf(out, "   Сэкономлено: %s (%.1f%%)\n", worker.FormatBytes(stats.SavedBytes()), stats.SavedPercent())
	fmt.Fprintf(out, "   Время: %s\n", time.Since(startTime).Round(time.Millisecond))

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintln(out, "\n⚠️  Получен сигнал завершения, обработка остановлена")
		}
		return runErr
	}
	if stats.Failed > 0 {
		fmt.Fprintln(out, "\n⚠️  Часть файлов не обработана, подробности в логе")
	}
	return nil
}

// compressTarget определяет директорию и файлы запуска.
func (a *app) compressTarget(ctx context.Context, sc *scanner.Scanner, f *compressFlags) (*compressTarget, error) {
	cfg := a.cfg

	if !f.auto {
		switch {
		case f.directory != "":
			files, err := sc.Walk(ctx, f.directory)
			if err != nil {
				return nil, err
			}
			return &compressTarget{dir: f.directory, files: files}, nil

		case f.period != "":
			if !scanner.IsPeriod(f.period) {
				return nil, fmt.Errorf("некорректный период %q (ожидается три цифры, например 003)", f.period)
			}
			dir := cfg.PeriodDir(f.period)
			files, err := sc.List(dir)
			if err != nil {
				return nil, err
			}
			return &compressTarget{dir: dir, period: f.period, files: files}, nil
		}
	}

	period, err := sc.LatestPeriod(cfg.WallpapersRoot)
	if err == nil {
		dir := cfg.PeriodDir(period)
		files, err := sc.List(dir)
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("period", period).Msg("🔍 выбран самый новый период")
		return &compressTarget{dir: dir, period: period, files: files}, nil
	}
	if !errors.Is(err, scanner.ErrNoPeriod) {
		return nil, err
	}

	// Периодов нет: обрабатывается сам корень обоев.
	a.log.Warn().Str("root", cfg.WallpapersRoot).Msg("непустой период не найден, обрабатывается корневая директория")
	files, err := sc.Walk(ctx, cfg.WallpapersRoot)
	if err != nil {
		return nil, err
	}
	return &compressTarget{dir: cfg.WallpapersRoot, files: files}, nil
}

// newEngine создаёт движок перекодирования по конфигурации.
func (a *app) newEngine(ctx context.Context) (converter.Engine, error) {
	if a.cfg.Engine != config.EngineVips {
		return converter.NewNative(), nil
	}

	vipsInfo, err := vipsfinder.NewFinder(a.cfg.VipsPath).Find()
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("path", vipsInfo.Path).Str("version", vipsInfo.Version).Msg("📦 найден vips")

	engine := converter.NewVips(vipsInfo.Path)
	if err := engine.CheckHealth(ctx); err != nil {
		return nil, err
	}
	return engine, nil
}
