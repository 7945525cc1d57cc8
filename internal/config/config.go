// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Engine определяет движок перекодирования изображений.
type Engine string

const (
	// EngineNative - перекодирование средствами Go (imaging).
	EngineNative Engine = "native"
	// EngineVips - перекодирование через внешний бинарник vips.
	EngineVips Engine = "vips"
)

// Config содержит все настройки конвейера.
type Config struct {
	// WallpapersRoot - корневая директория с периодами (<root>/<period>/<file>).
	WallpapersRoot string

	// OutputRoot - база для директорий рендишенов (<OutputRoot>/<rendition>).
	OutputRoot string

	// ArtifactDir - директория для SQL-файлов импорта.
	ArtifactDir string

	// FilePathPrefix - префикс file_path в каталоге (static/wallpapers).
	FilePathPrefix string

	// CompressExtensions - расширения, которые обрабатывает compress (без точки, lowercase).
	CompressExtensions []string

	// IngestExtensions - расширения, которые обрабатывает ingest.
	IngestExtensions []string

	// Renditions - таблица профилей рендишенов по имени.
	Renditions map[string]Profile

	// Types - выбранные для compress профили.
	Types []string

	// Engine - движок перекодирования.
	Engine Engine

	// VipsPath - путь к vips бинарнику (опционально).
	VipsPath string

	// OwnerUserID - user_id для новых записей каталога.
	OwnerUserID int64

	// Catalog - подключение к каталогу.
	Catalog CatalogConfig

	// LogLevel - уровень логирования (debug, info, warn, error).
	LogLevel string

	// LogFormat - формат логов: console или json.
	LogFormat string

	// Verbose - подробный вывод.
	Verbose bool

	// NoProgress - отключить прогресс-бар.
	NoProgress bool

	// MetricsFile - файл для экспорта метрик в формате textfile collector.
	MetricsFile string
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		WallpapersRoot:     filepath.Join("static", "wallpapers"),
		OutputRoot:         "static",
		ArtifactDir:        ".",
		FilePathPrefix:     "static/wallpapers",
		CompressExtensions: []string{"jpg", "jpeg", "png", "webp", "bmp"},
		IngestExtensions:   []string{"jpg", "jpeg", "png", "gif", "webp", "bmp"},
		Renditions:         DefaultProfiles(),
		Types:              []string{string(RenditionPreview)},
		Engine:             EngineNative,
		OwnerUserID:        1,
		Catalog:            DefaultCatalogConfig(),
		LogLevel:           "info",
		LogFormat:          "console",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	if c.WallpapersRoot == "" {
		return fmt.Errorf("корневая директория обоев не указана (--wallpapers-root)")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("директория рендишенов не указана (--output-root)")
	}
	if len(c.CompressExtensions) == 0 || len(c.IngestExtensions) == 0 {
		return fmt.Errorf("не указаны поддерживаемые расширения")
	}
	if c.Engine != EngineNative && c.Engine != EngineVips {
		return fmt.Errorf("неизвестный движок: %s (доступны: native, vips)", c.Engine)
	}
	if c.OwnerUserID < 1 {
		return fmt.Errorf("owner_user_id должен быть >= 1, получено: %d", c.OwnerUserID)
	}
	if len(c.Renditions) == 0 {
		return fmt.Errorf("таблица рендишенов пуста")
	}

	for name, p := range c.Renditions {
		if p.Name == "" {
			p.Name = name
			c.Renditions[name] = p
		}
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("рендишен %s: %w", name, err)
		}
	}
	for _, t := range c.Types {
		if _, ok := c.Renditions[t]; !ok {
			return fmt.Errorf("неизвестный тип рендишена: %s (доступны: %s)",
				t, strings.Join(c.RenditionNames(), ", "))
		}
	}

	if err := validate.Struct(c.Catalog); err != nil {
		return fmt.Errorf("каталог: %w", err)
	}

	return nil
}

// PeriodDir возвращает путь к директории периода.
func (c *Config) PeriodDir(period string) string {
	return filepath.Join(c.WallpapersRoot, period)
}

// ProfileDir возвращает корневую директорию рендишена.
func (c *Config) ProfileDir(p Profile) string {
	if p.Dir != "" {
		return p.Dir
	}
	return filepath.Join(c.OutputRoot, p.Name)
}

// ArtifactPath возвращает путь SQL-файла импорта для периода.
func (c *Config) ArtifactPath(period string) string {
	return filepath.Join(c.ArtifactDir, fmt.Sprintf("wallpapers_import_%s.sql", period))
}

// RenditionNames возвращает отсортированный список имён рендишенов.
func (c *Config) RenditionNames() []string {
	names := make([]string, 0, len(c.Renditions))
	for name := range c.Renditions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SelectProfiles возвращает профили в порядке перечисления имён.
func (c *Config) SelectProfiles(names []string) ([]Profile, error) {
	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		p, ok := c.Renditions[name]
		if !ok {
			return nil, fmt.Errorf("неизвестный тип рендишена: %s", name)
		}
		if p.Name == "" {
			p.Name = name
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
