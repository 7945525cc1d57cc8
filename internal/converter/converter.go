// Package converter содержит логику перекодирования изображений в рендишены.
package converter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/artemshloyda/wallpaperctl/internal/config"
)

// ErrUnsupportedFormat - движок не умеет кодировать выбранный формат.
var ErrUnsupportedFormat = errors.New("формат не поддерживается движком")

// Outcome - итог обработки одного файла одним профилем.
type Outcome string

const (
	// OutcomeConverted - рендишен создан.
	OutcomeConverted Outcome = "converted"
	// OutcomeSkipped - рендишен уже существует, force не задан.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed - ошибка чтения, кодирования или записи.
	OutcomeFailed Outcome = "failed"
)

// Job описывает одну операцию кодирования для движка.
type Job struct {
	SrcPath   string
	DstPath   string
	SrcWidth  int
	SrcHeight int
	Width     int
	Height    int
	Profile   config.Profile
}

// Resize сообщает, отличаются ли целевые размеры от исходных.
func (j Job) Resize() bool {
	return j.Width != j.SrcWidth || j.Height != j.SrcHeight
}

// Engine кодирует Job в файл DstPath.
type Engine interface {
	Name() string
	Encode(ctx context.Context, job Job) error
}

// Result содержит результат перекодирования.
type Result struct {
	// Outcome - итог обработки.
	Outcome Outcome

	// Profile - имя профиля.
	Profile string

	// SrcPath - исходный файл.
	SrcPath string

	// DstPath - путь к рендишену.
	DstPath string

	// SrcWidth, SrcHeight - размеры исходника.
	SrcWidth, SrcHeight int

	// Width, Height - размеры рендишена.
	Width, Height int

	// BytesBefore - размер исходника.
	BytesBefore int64

	// BytesAfter - размер рендишена.
	BytesAfter int64

	// Duration - время обработки.
	Duration time.Duration

	// Err - ошибка (для OutcomeFailed).
	Err error
}

// Converter создаёт рендишены с помощью выбранного движка.
type Converter struct {
	engine  Engine
	dirFor  func(config.Profile) string
	timeout time.Duration
}

// New создаёт новый Converter. Директории рендишенов берутся из cfg.
func New(engine Engine, cfg *config.Config) *Converter {
	return &Converter{
		engine:  engine,
		dirFor:  cfg.ProfileDir,
		timeout: 5 * time.Minute,
	}
}

// SetTimeout устанавливает таймаут на один файл.
func (c *Converter) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Engine возвращает имя движка.
func (c *Converter) Engine() string {
	return c.engine.Name()
}

// DstPath возвращает путь рендишена исходника для профиля и периода.
func (c *Converter) DstPath(srcPath string, p config.Profile, period string) string {
	return DstPath(c.dirFor(p), period, srcPath, p.Format)
}

// Transcode создаёт рендишен srcPath по профилю p.
// Если рендишен уже существует и force=false, файл не читается и результат - OutcomeSkipped.
// Ошибки никогда не прерывают вызывающего: они возвращаются в Result.Err.
func (c *Converter) Transcode(ctx context.Context, srcPath string, p config.Profile, period string, force bool) *Result {
	start := time.Now()
	res := &Result{
		Profile: p.Name,
		SrcPath: srcPath,
		DstPath: c.DstPath(srcPath, p, period),
	}

	if !force {
		if _, err := os.Stat(res.DstPath); err == nil {
			res.Outcome = OutcomeSkipped
			return res
		}
	}

	fail := func(err error) *Result {
		res.Outcome = OutcomeFailed
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return fail(fmt.Errorf("не удалось прочитать исходник: %w", err))
	}
	res.BytesBefore = srcInfo.Size()

	res.SrcWidth, res.SrcHeight, err = DecodeSize(srcPath)
	if err != nil {
		return fail(err)
	}
	res.Width, res.Height = FitSize(res.SrcWidth, res.SrcHeight, p.MaxWidth, p.MaxHeight)

	dstDir := filepath.Dir(res.DstPath)
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return fail(fmt.Errorf("не удалось создать директорию %s: %w", dstDir, err))
	}

	// Атомарная запись: кодируем во временный файл и переименовываем.
	tmp := tmpPath(res.DstPath)
	job := Job{
		SrcPath:   srcPath,
		DstPath:   tmp,
		SrcWidth:  res.SrcWidth,
		SrcHeight: res.SrcHeight,
		Width:     res.Width,
		Height:    res.Height,
		Profile:   p,
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.engine.Encode(ctx, job); err != nil {
		_ = os.Remove(tmp)
		return fail(fmt.Errorf("%s: %w", c.engine.Name(), err))
	}

	if err := os.Rename(tmp, res.DstPath); err != nil {
		_ = os.Remove(tmp)
		return fail(fmt.Errorf("не удалось переименовать %s -> %s: %w", tmp, res.DstPath, err))
	}

	if dstInfo, err := os.Stat(res.DstPath); err == nil {
		res.BytesAfter = dstInfo.Size()
	}

	res.Outcome = OutcomeConverted
	res.Duration = time.Since(start)
	return res
}

// DecodeSize читает размеры изображения без полного декодирования.
func DecodeSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("не удалось открыть %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("не удалось прочитать заголовок изображения: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

/*
Возможные расширения:
- Добавить сохранение ICC профиля
- Добавить progressive JPEG через vips (interlace)
*/
