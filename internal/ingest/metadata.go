package ingest

import (
	"fmt"
	"image"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/artemshloyda/wallpaperctl/internal/scanner"
)

// Asset - новый файл периода с метаданными.
type Asset struct {
	File   scanner.File
	Width  int
	Height int

	// Format - формат в верхнем регистре (JPEG, PNG, GIF, WEBP, BMP); пусто, если не распознан.
	Format string
}

// Extract читает размеры и формат изображения.
// При ошибке декодирования возвращает ассет с 0x0 и пустым форматом вместе с ошибкой:
// файл всё равно импортируется.
func Extract(file scanner.File) (Asset, error) {
	asset := Asset{File: file}

	f, err := os.Open(file.Path)
	if err != nil {
		return asset, fmt.Errorf("не удалось открыть %s: %w", file.Path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return asset, fmt.Errorf("не удалось прочитать размеры %s: %w", file.Path, err)
	}

	asset.Width = cfg.Width
	asset.Height = cfg.Height
	asset.Format = strings.ToUpper(format)
	return asset, nil
}

// HumanSize форматирует размер файла для колонки file_size.
func HumanSize(bytes int64) string {
	const mib = 1024 * 1024
	if bytes < mib {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.2f MB", float64(bytes)/mib)
}
