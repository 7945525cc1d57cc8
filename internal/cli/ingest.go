package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/wallpaperctl/internal/config"
	"github.com/artemshloyda/wallpaperctl/internal/ingest"
)

// ingestFlags - флаги команды ingest.
type ingestFlags struct {
	period      string
	upload      bool
	artifactDir string
	metricsFile string
}

// newIngestCmd создаёт команду ingest.
func newIngestCmd(a *app) *cobra.Command {
	f := &ingestFlags{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Подготовить новые обои периода к импорту в каталог",
		Long: `Сверяет директорию периода с каталогом и записывает новые файлы
в wallpapers_import_<period>.sql. С --upload записи сразу вставляются в каталог
одной транзакцией; при ошибке SQL-файл остаётся для ручного импорта.

Примеры:
  wallpaperctl ingest
  wallpaperctl ingest -p 003 --upload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIngest(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.period, "period", "p", "", "Период (по умолчанию самый новый непустой)")
	flags.BoolVar(&f.upload, "upload", false, "Вставить новые записи в каталог")
	flags.StringVar(&f.artifactDir, "artifact-dir", "", "Директория для SQL-файла (по умолчанию текущая)")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Файл метрик для node_exporter textfile collector")

	return cmd
}

// runIngest выполняет сверку и выгрузку периода.
func (a *app) runIngest(cmd *cobra.Command, f *ingestFlags) error {
	startTime := time.Now()
	cfg := a.cfg

	flags := cmd.Flags()
	if flags.Changed("artifact-dir") {
		cfg.ArtifactDir = f.artifactDir
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if err := a.validate(); err != nil {
		return err
	}
	defer a.finish("ingest", startTime)

	ctx, stop := signalContext(cmd)
	defer stop()

	pipeline := ingest.NewPipeline(cfg, ingest.StoreOpener(cfg.Catalog), a.log)
	pipeline.SetMetrics(a.metrics)
	pipeline.SetRunID(a.runID)

	report, err := pipeline.Run(ctx, ingest.Options{Period: f.period, Upload: f.upload})
	if report != nil {
		printReport(cmd.OutOrStdout(), cfg, report, f.upload)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "   Время: %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// printReport выводит итог запуска ingest.
func printReport(out io.Writer, cfg *config.Config, r *ingest.Report, upload bool) {
	fmt.Fprintf(out, "📁 Период: %s (%s)\n", r.Period, r.Dir)
	fmt.Fprintf(out, "   В каталоге: %d\n", r.Known)
	fmt.Fprintf(out, "   В директории: %d\n", r.Listed)
	fmt.Fprintf(out, "   Новых: %d\n", r.New)
	if r.Warnings > 0 {
		fmt.Fprintf(out, "   ⚠️  Без метаданных: %d\n", r.Warnings)
	}

	if r.New == 0 {
		fmt.Fprintln(out, "✅ Новых обоев нет")
	}
	if r.Artifact != "" {
		fmt.Fprintf(out, "📝 SQL файл: %s\n", r.Artifact)
	}
	if r.FirstID > 0 {
		fmt.Fprintf(out, "   ID: %d..%d\n", r.FirstID, r.LastID)
	}

	switch {
	case r.Committed:
		fmt.Fprintf(out, "✅ Загружено в каталог: %d\n", r.New)
	case r.Artifact != "" && !upload:
		fmt.Fprintln(out, "💡 Импорт вручную:")
		if cfg.Catalog.IsPostgres() {
			conn := cfg.Catalog.RedactedConnString()
			fmt.Fprintf(out, "   psql %q -f %s\n", conn, r.Artifact)
			if conn != cfg.Catalog.ConnString() {
				fmt.Fprintln(out, "   (пароль скрыт, передайте его через PGPASSWORD)")
			}
		} else {
			fmt.Fprintf(out, "   sqlite3 %s < %s\n", cfg.Catalog.Database, r.Artifact)
		}
		fmt.Fprintln(out, "   или повторите запуск с --upload")
	}

	if r.HasTotal {
		fmt.Fprintf(out, "📊 Всего в каталоге: %d\n", r.Total)
	}
}
