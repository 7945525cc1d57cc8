package converter

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/artemshloyda/wallpaperctl/internal/config"
)

// Native кодирует рендишены средствами Go через imaging.
// Поддерживает jpeg и png; webp требует движка vips.
type Native struct{}

// NewNative создаёт движок native.
func NewNative() *Native {
	return &Native{}
}

// Name возвращает имя движка.
func (n *Native) Name() string {
	return string(config.EngineNative)
}

// Encode декодирует исходник, при необходимости уменьшает его (Lanczos) и сохраняет.
func (n *Native) Encode(ctx context.Context, job Job) error {
	var opts []imaging.EncodeOption
	switch job.Profile.Format {
	case config.FormatJPEG:
		opts = append(opts, imaging.JPEGQuality(job.Profile.Quality))
	case config.FormatPNG:
		opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, job.Profile.Format)
	}

	img, err := imaging.Open(job.SrcPath)
	if err != nil {
		return fmt.Errorf("не удалось декодировать изображение: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if job.Resize() {
		img = imaging.Resize(img, job.Width, job.Height, imaging.Lanczos)
	}

	if job.Profile.Format.Lossy() {
		img = Flatten(img, color.White)
	}

	if err := imaging.Save(img, job.DstPath, opts...); err != nil {
		return fmt.Errorf("не удалось сохранить %s: %w", job.DstPath, err)
	}
	return nil
}

// Flatten накладывает изображение с альфа-каналом на непрозрачный фон.
// Непрозрачные изображения возвращаются как есть.
func Flatten(img image.Image, bg color.Color) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}
