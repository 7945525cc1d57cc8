package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/artemshloyda/wallpaperctl/internal/catalog"
	"github.com/artemshloyda/wallpaperctl/internal/config"
	"github.com/artemshloyda/wallpaperctl/internal/ident"
	"github.com/artemshloyda/wallpaperctl/internal/metrics"
	"github.com/artemshloyda/wallpaperctl/internal/scanner"
)

// DefaultPeriod - период, если автоопределение ничего не нашло.
const DefaultPeriod = "001"

var (
	// ErrPeriodNotFound - директория периода не существует.
	ErrPeriodNotFound = errors.New("директория периода не существует")

	// ErrInvalidPeriod - токен периода не из трёх цифр.
	ErrInvalidPeriod = errors.New("некорректный период")
)

// Options - параметры одного запуска ingest.
type Options struct {
	// Period - период; пусто = самый новый непустой.
	Period string

	// Upload - вставить записи в каталог после записи артефакта.
	Upload bool
}

// Report - итог запуска.
type Report struct {
	Period string
	Dir    string

	// Known - записей в каталоге до запуска.
	Known int

	// Listed - изображений в директории периода.
	Listed int

	// New - новых изображений.
	New int

	// Artifact - путь к SQL-файлу (пусто, если новых нет).
	Artifact string

	// Committed - записи вставлены в каталог.
	Committed bool

	FirstID int64
	LastID  int64

	// Total - записей в каталоге после запуска (если HasTotal).
	Total    int64
	HasTotal bool

	// Warnings - файлы, метаданные которых не удалось прочитать.
	Warnings int
}

// Pipeline выполняет ingest: сверка, метаданные, идентификаторы, выгрузка.
type Pipeline struct {
	cfg     *config.Config
	open    Opener
	scanner *scanner.Scanner
	log     zerolog.Logger
	metrics *metrics.Recorder
	runID   string
	now     func() time.Time
}

// NewPipeline создаёт Pipeline.
func NewPipeline(cfg *config.Config, open Opener, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		open:    open,
		scanner: scanner.New(cfg.IngestExtensions),
		log:     log,
		now:     time.Now,
	}
}

// SetMetrics устанавливает получателя метрик.
func (p *Pipeline) SetMetrics(m *metrics.Recorder) {
	p.metrics = m
}

// SetRunID устанавливает идентификатор запуска для заголовка артефакта.
func (p *Pipeline) SetRunID(id string) {
	p.runID = id
}

// SetClock подменяет часы (для тестов).
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Run выполняет один запуск. Каждая фаза открывает своё подключение к каталогу.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	period, err := p.resolvePeriod(opts.Period)
	if err != nil {
		return nil, err
	}

	report := &Report{Period: period, Dir: p.cfg.PeriodDir(period)}
	log := p.log.With().Str("period", period).Logger()

	if info, err := os.Stat(report.Dir); err != nil || !info.IsDir() {
		return report, fmt.Errorf("%w: %s", ErrPeriodNotFound, report.Dir)
	}

	// Фаза 1: сверка.
	rec, err := NewReconciler(p.open, p.scanner).NewFiles(ctx, report.Dir)
	if err != nil {
		log.Error().Err(err).Str("phase", "reconcile").Msg("сверка с каталогом не удалась, запуск прерван")
		return report, err
	}
	report.Known = rec.Known
	report.Listed = len(rec.Listed)
	report.New = len(rec.New)
	p.metrics.SetIngestFiles("known", report.Known)
	p.metrics.SetIngestFiles("listed", report.Listed)
	p.metrics.SetIngestFiles("new", report.New)

	if len(rec.New) > 0 {
		if err := p.emit(ctx, log, period, rec.New, opts.Upload, report); err != nil {
			return report, err
		}
	}

	// Фаза 4: итоговое количество. Ошибка здесь не влияет на результат.
	err = withCatalog(ctx, p.open, func(c Catalog) error {
		n, err := c.Count(ctx)
		report.Total = n
		return err
	})
	if err != nil {
		log.Warn().Err(err).Str("phase", "count").Msg("не удалось получить количество записей каталога")
	} else {
		report.HasTotal = true
	}

	return report, nil
}

func (p *Pipeline) emit(ctx context.Context, log zerolog.Logger, period string, files []scanner.File, upload bool, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	assets := make([]Asset, 0, len(files))
	for _, f := range files {
		if scanner.HasCJK(f.Name) {
			log.Warn().Str("path", f.Path).Msg("имя файла содержит иероглифы, рекомендуется переименовать")
		}
		a, err := Extract(f)
		if err != nil {
			report.Warnings++
			log.Warn().Err(err).Str("path", f.Path).Msg("метаданные не прочитаны, файл импортируется с 0x0")
		}
		assets = append(assets, a)
	}

	now := p.now()
	date := ident.Date(now)

	// Фаза 2: единственное чтение максимума за день.
	var (
		maxID int64
		found bool
	)
	err := withCatalog(ctx, p.open, func(c Catalog) error {
		var err error
		maxID, found, err = c.MaxIDWithPrefix(ctx, date)
		return err
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrCatalogRead, err)
		log.Error().Err(err).Str("phase", "sequence").Msg("не удалось прочитать последовательность идентификаторов")
		return err
	}

	first, err := ident.StartSequence(date, maxID, found)
	if err != nil {
		return err
	}
	alloc, err := ident.NewAllocator(date, first)
	if err != nil {
		return err
	}

	entries, err := BuildEntries(assets, period, alloc, EntryOptions{
		UserID:         p.cfg.OwnerUserID,
		FilePathPrefix: p.cfg.FilePathPrefix,
	}, now)
	if err != nil {
		return err
	}
	report.FirstID, report.LastID, _ = alloc.Range()

	for _, e := range entries {
		log.Debug().Int64("id", e.ID).Str("file", e.FilePath).Str("category", e.Category).Msg("✅ новая запись")
	}

	// Фаза 3: артефакт и, при upload, вставка тем же блоком идентификаторов.
	emitter := NewEmitter(p.open, p.cfg.ArtifactPath, p.cfg.Catalog.Name(), p.runID)
	emitter.now = p.now

	res, err := emitter.Emit(ctx, Batch{
		Period:      period,
		Reservation: catalog.ReservationOf(alloc),
		Entries:     entries,
	}, upload)
	report.Artifact = res.ArtifactPath
	if err != nil {
		log.Error().Err(err).Str("phase", "commit").Msg("выгрузка не удалась")
		return err
	}

	report.Committed = res.Committed
	if res.Committed {
		p.metrics.AddCommitted(res.Rows)
	}
	return nil
}

// resolvePeriod возвращает явный период или самый новый непустой.
func (p *Pipeline) resolvePeriod(period string) (string, error) {
	if period != "" {
		if !scanner.IsPeriod(period) {
			return "", fmt.Errorf("%w: %q (ожидается три цифры, например 003)", ErrInvalidPeriod, period)
		}
		return period, nil
	}

	latest, err := p.scanner.LatestPeriod(p.cfg.WallpapersRoot)
	if err != nil {
		p.log.Warn().Err(err).Str("default", DefaultPeriod).Msg("период не найден, используется период по умолчанию")
		return DefaultPeriod, nil
	}
	return latest, nil
}

/*
Возможные расширения:
- Добавить режим dry-run без записи артефакта
- Добавить повторную генерацию артефакта для уже импортированного периода
*/
