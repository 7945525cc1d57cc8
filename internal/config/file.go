package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig представляет структуру конфигурационного файла YAML.
// Все поля опциональны - если не указаны, используются значения по умолчанию.
type FileConfig struct {
	// Paths - настройки путей.
	Paths *PathsConfig `yaml:"paths,omitempty"`

	// Renditions - переопределения и дополнения таблицы рендишенов.
	Renditions map[string]Profile `yaml:"renditions,omitempty"`

	// Compress - настройки сжатия.
	Compress *CompressConfig `yaml:"compress,omitempty"`

	// Ingest - настройки импорта в каталог.
	Ingest *IngestConfig `yaml:"ingest,omitempty"`

	// Catalog - подключение к каталогу.
	Catalog *CatalogConfig `yaml:"catalog,omitempty"`

	// Log - настройки логирования.
	Log *LogConfig `yaml:"log,omitempty"`
}

// PathsConfig содержит настройки путей.
type PathsConfig struct {
	// WallpapersRoot - корень с директориями периодов.
	WallpapersRoot string `yaml:"wallpapers_root,omitempty"`

	// OutputRoot - база для директорий рендишенов.
	OutputRoot string `yaml:"output_root,omitempty"`

	// ArtifactDir - куда писать SQL-файлы импорта.
	ArtifactDir string `yaml:"artifact_dir,omitempty"`

	// VipsPath - путь к бинарнику vips.
	VipsPath string `yaml:"vips_path,omitempty"`
}

// CompressConfig содержит настройки сжатия.
type CompressConfig struct {
	// Types - рендишены по умолчанию.
	Types []string `yaml:"types,omitempty"`

	// Extensions - расширения исходных файлов.
	Extensions []string `yaml:"extensions,omitempty"`

	// Engine - native или vips.
	Engine string `yaml:"engine,omitempty"`

	// NoProgress - отключить прогресс-бар.
	NoProgress bool `yaml:"no_progress,omitempty"`
}

// IngestConfig содержит настройки импорта.
type IngestConfig struct {
	// Extensions - расширения исходных файлов.
	Extensions []string `yaml:"extensions,omitempty"`

	// FilePathPrefix - префикс file_path в каталоге.
	FilePathPrefix string `yaml:"file_path_prefix,omitempty"`

	// OwnerUserID - user_id для новых записей.
	OwnerUserID int64 `yaml:"owner_user_id,omitempty"`
}

// LogConfig содержит настройки логирования.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// DefaultConfigPaths возвращает список путей для поиска конфигурационного файла.
// Поиск выполняется в следующем порядке:
// 1. ./wallpaperctl.yaml (текущая директория)
// 2. ./wallpaperctl.yml
// 3. ~/.config/wallpaperctl/config.yaml
// 4. ~/.config/wallpaperctl/config.yml
func DefaultConfigPaths() []string {
	paths := []string{
		"wallpaperctl.yaml",
		"wallpaperctl.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "wallpaperctl", "config.yaml"),
			filepath.Join(home, ".config", "wallpaperctl", "config.yml"),
		)
	}

	return paths
}

// LoadFromFile загружает конфигурацию из указанного файла.
// Возвращает nil, nil если файл не существует.
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML в %s: %w", path, err)
	}

	return &fc, nil
}

// FindAndLoadConfig ищет и загружает конфигурационный файл из стандартных путей.
// Если configPath указан явно, использует только его.
// Возвращает nil, "", nil если файл не найден.
func FindAndLoadConfig(configPath string) (*FileConfig, string, error) {
	if configPath != "" {
		fc, err := LoadFromFile(configPath)
		if err != nil {
			return nil, "", err
		}
		if fc == nil {
			return nil, "", fmt.Errorf("файл конфигурации не найден: %s", configPath)
		}
		return fc, configPath, nil
	}

	for _, path := range DefaultConfigPaths() {
		fc, err := LoadFromFile(path)
		if err != nil {
			return nil, "", err
		}
		if fc != nil {
			return fc, path, nil
		}
	}

	return nil, "", nil
}

// ApplyToConfig применяет настройки из файла к основной конфигурации.
// Явно заданные CLI флаги применяются позже и имеют приоритет.
func (fc *FileConfig) ApplyToConfig(cfg *Config) {
	if fc == nil {
		return
	}

	if fc.Paths != nil {
		if fc.Paths.WallpapersRoot != "" {
			cfg.WallpapersRoot = fc.Paths.WallpapersRoot
		}
		if fc.Paths.OutputRoot != "" {
			cfg.OutputRoot = fc.Paths.OutputRoot
		}
		if fc.Paths.ArtifactDir != "" {
			cfg.ArtifactDir = fc.Paths.ArtifactDir
		}
		if fc.Paths.VipsPath != "" {
			cfg.VipsPath = fc.Paths.VipsPath
		}
	}

	// Рендишены из файла дополняют встроенную таблицу; одноимённые заменяются целиком.
	for name, p := range fc.Renditions {
		p.Name = name
		if cfg.Renditions == nil {
			cfg.Renditions = make(map[string]Profile)
		}
		cfg.Renditions[name] = p
	}

	if fc.Compress != nil {
		if len(fc.Compress.Types) > 0 {
			cfg.Types = fc.Compress.Types
		}
		if len(fc.Compress.Extensions) > 0 {
			cfg.CompressExtensions = fc.Compress.Extensions
		}
		if fc.Compress.Engine != "" {
			cfg.Engine = Engine(fc.Compress.Engine)
		}
		if fc.Compress.NoProgress {
			cfg.NoProgress = true
		}
	}

	if fc.Ingest != nil {
		if len(fc.Ingest.Extensions) > 0 {
			cfg.IngestExtensions = fc.Ingest.Extensions
		}
		if fc.Ingest.FilePathPrefix != "" {
			cfg.FilePathPrefix = fc.Ingest.FilePathPrefix
		}
		if fc.Ingest.OwnerUserID > 0 {
			cfg.OwnerUserID = fc.Ingest.OwnerUserID
		}
	}

	if c := fc.Catalog; c != nil {
		if c.Driver != "" {
			cfg.Catalog.Driver = c.Driver
		}
		if c.DSN != "" {
			cfg.Catalog.DSN = c.DSN
		}
		if c.Host != "" {
			cfg.Catalog.Host = c.Host
		}
		if c.Port > 0 {
			cfg.Catalog.Port = c.Port
		}
		if c.User != "" {
			cfg.Catalog.User = c.User
		}
		if c.Password != "" {
			cfg.Catalog.Password = c.Password
		}
		if c.Database != "" {
			cfg.Catalog.Database = c.Database
		}
		if c.SSLMode != "" {
			cfg.Catalog.SSLMode = c.SSLMode
		}
	}

	if fc.Log != nil {
		if fc.Log.Level != "" {
			cfg.LogLevel = fc.Log.Level
		}
		if fc.Log.Format != "" {
			cfg.LogFormat = fc.Log.Format
		}
	}
}

// GenerateExampleConfig генерирует пример конфигурационного файла.
func GenerateExampleConfig() string {
	return `# wallpaperctl configuration file
# Все параметры опциональны - если не указаны, используются значения по умолчанию.
# Переменные окружения WALLPAPER_* и CLI флаги имеют приоритет над этим файлом.

paths:
  # Корень с директориями периодов (001, 002, ...)
  wallpapers_root: "static/wallpapers"
  # База для директорий рендишенов: <output_root>/<rendition>/<period>/
  output_root: "static"
  # Куда писать wallpapers_import_<period>.sql
  artifact_dir: "."
  # Путь к бинарнику vips (по умолчанию автопоиск)
  vips_path: ""

renditions:
  thumbnail: {max_width: 600, max_height: 450, quality: 92, format: jpeg}
  preview: {max_width: 1200, max_height: 900, quality: 95, format: jpeg}
  original: {max_width: 1920, max_height: 1080, quality: 95, format: jpeg}

compress:
  # Рендишены по умолчанию
  types: [preview]
  # native (Go) или vips (нужен для webp)
  engine: native
  no_progress: false

ingest:
  extensions: [jpg, jpeg, png, gif, webp, bmp]
  file_path_prefix: "static/wallpapers"
  owner_user_id: 1

catalog:
  # sqlite3 или postgres
  driver: sqlite3
  database: "wallpaper_db.sqlite"
  # host: localhost
  # port: 5432
  # user: root
  # password: ""
  # sslmode: disable

log:
  level: info
  # console или json
  format: console
`
}

/*
Возможные расширения:
- Добавить поддержку TOML формата
- Добавить валидацию неизвестных ключей (yaml KnownFields)
*/
