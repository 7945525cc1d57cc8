// Package progress предоставляет прогресс-бар с ETA для пакетной обработки.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Mark - итог одного шага для счётчиков бара.
type Mark int

const (
	// MarkDone - шаг выполнен.
	MarkDone Mark = iota
	// MarkSkipped - шаг пропущен.
	MarkSkipped
	// MarkFailed - шаг завершился ошибкой.
	MarkFailed
)

// Bar представляет прогресс-бар. Нулевой или отключённый Bar только считает.
type Bar struct {
	bar    *progressbar.ProgressBar
	mu     sync.Mutex
	writer io.Writer
	start  time.Time

	done    int64
	skipped int64
	failed  int64
}

// Options содержит настройки для прогресс-бара.
type Options struct {
	// Total - количество шагов (файл x профиль).
	Total int64

	// Description - описание задачи.
	Description string

	// Disabled - отключить отрисовку.
	Disabled bool

	// Writer - куда выводить (по умолчанию os.Stderr).
	Writer io.Writer
}

// New создаёт новый прогресс-бар.
func New(opts Options) *Bar {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	b := &Bar{writer: writer, start: time.Now()}
	if opts.Disabled || opts.Total <= 0 {
		return b
	}

	description := opts.Description
	if description == "" {
		description = "Сжатие"
	}

	b.bar = progressbar.NewOptions64(
		opts.Total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("шаг"),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]▓[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(writer)
		}),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
	return b
}

// Add отмечает один завершённый шаг.
func (b *Bar) Add(m Mark) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch m {
	case MarkSkipped:
		b.skipped++
	case MarkFailed:
		b.failed++
	default:
		b.done++
	}

	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

// Describe меняет подпись бара (например, имя текущего файла).
func (b *Bar) Describe(description string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		b.bar.Describe(description)
	}
}

// Finish завершает прогресс-бар.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// Counts возвращает счётчики шагов.
func (b *Bar) Counts() (done, skipped, failed int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done, b.skipped, b.failed
}

// Elapsed возвращает время с момента создания бара.
func (b *Bar) Elapsed() time.Duration {
	return time.Since(b.start)
}

// Active сообщает, отрисовывается ли бар.
func (b *Bar) Active() bool {
	return b.bar != nil
}

// Write выводит p, временно скрывая бар. Позволяет направить логгер в бар.
func (b *Bar) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Clear()
	}

	n, err := b.writer.Write(p)

	if b.bar != nil {
		_ = b.bar.RenderBlank()
	}
	return n, err
}

/*
Возможные расширения:
- Добавить отдельный бар на каждый профиль
- Добавить историю скорости обработки
*/
