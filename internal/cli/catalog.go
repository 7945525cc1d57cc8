package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/wallpaperctl/internal/catalog"
	"github.com/artemshloyda/wallpaperctl/internal/scanner"
)

// newPeriodCmd создаёт команду period.
func newPeriodCmd(a *app) *cobra.Command {
	var (
		all bool
		use string
	)

	cmd := &cobra.Command{
		Use:   "period",
		Short: "Показать самый новый непустой период",
		Long: `Показывает самый новый период, в котором есть хотя бы один поддерживаемый файл.

Непустота считается по расширениям команды из --for: ingest (по умолчанию,
ingest_extensions, включая gif) или compress (compress_extensions). Период только
с gif непуст для ingest и пуст для compress.

Примеры:
  wallpaperctl period
  wallpaperctl period --for compress --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.validate(); err != nil {
				return err
			}
			var exts []string
			switch use {
			case "ingest":
				exts = a.cfg.IngestExtensions
			case "compress":
				exts = a.cfg.CompressExtensions
			default:
				return fmt.Errorf("неизвестное значение --for %q (ожидается ingest или compress)", use)
			}
			sc := scanner.New(exts)
			out := cmd.OutOrStdout()

			if !all {
				period, err := sc.LatestPeriod(a.cfg.WallpapersRoot)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, period)
				return nil
			}

			periods, err := sc.Periods(a.cfg.WallpapersRoot)
			if err != nil {
				return err
			}
			if len(periods) == 0 {
				fmt.Fprintf(out, "Периоды не найдены в %s\n", a.cfg.WallpapersRoot)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ПЕРИОД\tФАЙЛОВ\tПУТЬ")
			fmt.Fprintln(w, "------\t------\t----")
			for _, p := range periods {
				dir := filepath.Join(a.cfg.WallpapersRoot, p)
				files, err := sc.List(dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", p, len(files), dir)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Показать все периоды с количеством файлов")
	cmd.Flags().StringVar(&use, "for", "ingest", "Чьи расширения учитывать: ingest или compress")

	return cmd
}

// openCatalog открывает настроенный каталог.
func (a *app) openCatalog(ctx context.Context) (*catalog.Store, error) {
	c := a.cfg.Catalog
	store, err := catalog.Open(ctx, c.Driver, c.ConnString(), c.Name())
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть каталог: %w", err)
	}
	return store, nil
}

// newMigrateCmd создаёт команду migrate.
func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции схемы каталога",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.validate(); err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			store, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx, a.log); err != nil {
				return err
			}
			version, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Каталог %s: версия схемы %d\n", store.Name(), version)
			return nil
		},
	}
}

// newStatsCmd создаёт команду stats.
func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Показать статистику каталога",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.validate(); err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			store, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			total, err := store.Count(ctx)
			if err != nil {
				return fmt.Errorf("не удалось получить статистику: %w", err)
			}
			counts, err := store.CategoryCounts(ctx)
			if err != nil {
				return fmt.Errorf("не удалось получить статистику: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📊 Статистика каталога %s:\n", store.Name())
			fmt.Fprintf(out, "   Всего записей: %d\n\n", total)

			if len(counts) == 0 {
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "КАТЕГОРИЯ\tЗАПИСЕЙ")
			fmt.Fprintln(w, "---------\t-------")
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%d\n", c.Category, c.Count)
			}
			return w.Flush()
		},
	}
}
