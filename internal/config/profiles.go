package config

import "strings"

// OutputFormat определяет выходной формат рендишена.
type OutputFormat string

const (
	FormatJPEG OutputFormat = "jpeg"
	FormatPNG  OutputFormat = "png"
	FormatWebP OutputFormat = "webp"
)

// Extension возвращает расширение рендишена без точки: jpeg, png или webp.
func (f OutputFormat) Extension() string {
	return strings.ToLower(string(f))
}

// Lossy сообщает, теряет ли формат данные (и не хранит прозрачность).
func (f OutputFormat) Lossy() bool {
	return f == FormatJPEG
}

// Rendition - имя рендишена.
type Rendition string

const (
	// RenditionThumbnail - миниатюра для списков.
	RenditionThumbnail Rendition = "thumbnail"
	// RenditionPreview - превью для страницы обоев.
	RenditionPreview Rendition = "preview"
	// RenditionOriginal - "оригинал", ограниченный Full HD.
	RenditionOriginal Rendition = "original"
)

// Profile содержит параметры одного рендишена.
type Profile struct {
	// Name - имя рендишена.
	Name string `yaml:"-" validate:"required"`
	// MaxWidth - максимальная ширина.
	MaxWidth int `yaml:"max_width" validate:"gt=0"`
	// MaxHeight - максимальная высота.
	MaxHeight int `yaml:"max_height" validate:"gt=0"`
	// Quality - качество (1-100).
	Quality int `yaml:"quality" validate:"min=1,max=100"`
	// Format - выходной формат.
	Format OutputFormat `yaml:"format" validate:"oneof=jpeg png webp"`
	// Dir - корневая директория рендишена (пусто = <output_root>/<name>).
	Dir string `yaml:"dir,omitempty"`
}

// DefaultProfiles возвращает таблицу рендишенов по умолчанию.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		string(RenditionThumbnail): {
			Name:      string(RenditionThumbnail),
			MaxWidth:  600,
			MaxHeight: 450,
			Quality:   92,
			Format:    FormatJPEG,
		},
		string(RenditionPreview): {
			Name:      string(RenditionPreview),
			MaxWidth:  1200,
			MaxHeight: 900,
			Quality:   95,
			Format:    FormatJPEG,
		},
		string(RenditionOriginal): {
			Name:      string(RenditionOriginal),
			MaxWidth:  1920,
			MaxHeight: 1080,
			Quality:   95,
			Format:    FormatJPEG,
		},
	}
}

// ValidRenditions возвращает список встроенных рендишенов.
func ValidRenditions() []string {
	return []string{
		string(RenditionThumbnail),
		string(RenditionPreview),
		string(RenditionOriginal),
	}
}
