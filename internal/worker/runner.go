// Package worker выполняет пакетное сжатие файлов по профилям рендишенов.
package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artemshloyda/wallpaperctl/internal/config"
	"github.com/artemshloyda/wallpaperctl/internal/converter"
	"github.com/artemshloyda/wallpaperctl/internal/progress"
	"github.com/artemshloyda/wallpaperctl/internal/scanner"
)

// Stats содержит статистику одного запуска. Принадлежит вызывающему.
type Stats struct {
	// Files - количество исходных файлов.
	Files int64

	// Attempted - количество пар файл x профиль.
	Attempted int64

	// Converted - созданные рендишены.
	Converted int64

	// Skipped - уже существующие рендишены.
	Skipped int64

	// Failed - ошибки.
	Failed int64

	// InputBytes - размер исходников созданных рендишенов.
	InputBytes int64

	// OutputBytes - размер созданных рендишенов.
	OutputBytes int64
}

// Record учитывает результат перекодирования.
func (s *Stats) Record(res *converter.Result) {
	s.Attempted++
	switch res.Outcome {
	case converter.OutcomeConverted:
		s.Converted++
		s.InputBytes += res.BytesBefore
		s.OutputBytes += res.BytesAfter
	case converter.OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// SavedBytes возвращает количество сэкономленных байт.
func (s *Stats) SavedBytes() int64 {
	return s.InputBytes - s.OutputBytes
}

// SavedPercent возвращает процент экономии.
func (s *Stats) SavedPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.SavedBytes()) / float64(s.InputBytes) * 100
}

// FormatBytes форматирует байты в человекочитаемый формат.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < 0 {
		return "-" + FormatBytes(-bytes)
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// Transcoder создаёт один рендишен.
type Transcoder interface {
	Transcode(ctx context.Context, srcPath string, p config.Profile, period string, force bool) *converter.Result
}

// Observer получает результаты перекодирования (метрики).
type Observer interface {
	ObserveTranscode(profile, outcome string, in, out int64)
}

// Runner последовательно обрабатывает файлы всеми выбранными профилями.
type Runner struct {
	conv     Transcoder
	profiles []config.Profile
	force    bool
	log      zerolog.Logger
	observer Observer
	progress *progress.Bar
}

// New создаёт Runner.
func New(conv Transcoder, profiles []config.Profile, log zerolog.Logger) *Runner {
	return &Runner{
		conv:     conv,
		profiles: profiles,
		log:      log,
	}
}

// SetForce включает перезапись существующих рендишенов.
func (r *Runner) SetForce(force bool) {
	r.force = force
}

// SetObserver устанавливает получателя метрик.
func (r *Runner) SetObserver(o Observer) {
	r.observer = o
}

// SetProgressBar устанавливает прогресс-бар.
func (r *Runner) SetProgressBar(bar *progress.Bar) {
	r.progress = bar
}

// Run обрабатывает files и накапливает результаты в stats.
// Ошибка одного файла не прерывает пакет. Отмена ctx проверяется между файлами.
func (r *Runner) Run(ctx context.Context, files []scanner.File, period string, stats *Stats) error {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats.Files++
		if scanner.HasCJK(file.Name) {
			r.log.Warn().Str("path", file.Path).Msg("имя файла содержит иероглифы, рекомендуется переименовать")
		}
		if r.progress != nil {
			r.progress.Describe(file.Name)
		}

		for _, p := range r.profiles {
			res := r.conv.Transcode(ctx, file.Path, p, period, r.force)
			stats.Record(res)
			r.report(file, res)
		}
	}
	return nil
}

func (r *Runner) report(file scanner.File, res *converter.Result) {
	if r.observer != nil {
		r.observer.ObserveTranscode(res.Profile, string(res.Outcome), res.BytesBefore, res.BytesAfter)
	}

	mark := progress.MarkDone
	switch res.Outcome {
	case converter.OutcomeConverted:
		r.log.Debug().
			Str("path", file.Path).
			Str("profile", res.Profile).
			Str("dst", res.DstPath).
			Str("size", fmt.Sprintf("%dx%d -> %dx%d", res.SrcWidth, res.SrcHeight, res.Width, res.Height)).
			Dur("duration", res.Duration).
			Msg("✅ рендишен создан")
	case converter.OutcomeSkipped:
		mark = progress.MarkSkipped
		r.log.Debug().Str("path", file.Path).Str("profile", res.Profile).Msg("⏭️  рендишен уже существует")
	default:
		mark = progress.MarkFailed
		r.log.Error().Err(res.Err).Str("path", file.Path).Str("profile", res.Profile).Msg("❌ не удалось создать рендишен")
	}

	if r.progress != nil {
		r.progress.Add(mark)
	}
}

/*
Возможные расширения:
- Добавить параллельную обработку с ограничением памяти
- Добавить retry логику для failed файлов
*/
