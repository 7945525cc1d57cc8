package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix - префикс переменных окружения (WALLPAPER_DB_HOST и т.д.).
const EnvPrefix = "WALLPAPER"

// envOverlay описывает переменные окружения, перекрывающие файл конфигурации.
type envOverlay struct {
	CatalogConfig
	WallpapersRoot string `envconfig:"WALLPAPERS_ROOT"`
	OutputRoot     string `envconfig:"OUTPUT_ROOT"`
	ArtifactDir    string `envconfig:"ARTIFACT_DIR"`
	VipsPath       string `envconfig:"VIPS_PATH"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFormat      string `envconfig:"LOG_FORMAT"`
}

// LoadDotEnv загружает переменные из файлов .env (по умолчанию ./.env).
// Отсутствие файла не является ошибкой.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("не удалось загрузить .env: %w", err)
	}
	return nil
}

// ApplyEnv применяет переменные окружения WALLPAPER_* к конфигурации.
func ApplyEnv(cfg *Config) error {
	var env envOverlay
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("ошибка разбора переменных окружения: %w", err)
	}

	fc := &FileConfig{
		Paths: &PathsConfig{
			WallpapersRoot: env.WallpapersRoot,
			OutputRoot:     env.OutputRoot,
			ArtifactDir:    env.ArtifactDir,
			VipsPath:       env.VipsPath,
		},
		Catalog: &env.CatalogConfig,
		Log:     &LogConfig{Level: env.LogLevel, Format: env.LogFormat},
	}
	fc.ApplyToConfig(cfg)

	return nil
}
