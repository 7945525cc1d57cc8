// Package vipsfinder отвечает за поиск бинарника vips в системе.
package vipsfinder

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// EnvVar - переменная окружения с путём к vips.
const EnvVar = "WALLPAPERCTL_VIPS"

// MinVersion - минимальная версия vips: effort для webpsave и background у savers.
const MinVersion = "8.12.0"

// VipsInfo содержит информацию о найденном vips.
type VipsInfo struct {
	// Path - абсолютный путь к бинарнику vips.
	Path string

	// Version - версия vips (например, "8.14.2").
	Version string
}

// Finder ищет бинарник vips.
type Finder struct {
	// CustomPath - пользовательский путь к vips (из флага --vips-path).
	CustomPath string

	// lookPath и runVersion подменяются в тестах.
	lookPath   func(string) (string, error)
	runVersion func(path string) (string, error)
}

// NewFinder создаёт новый Finder.
func NewFinder(customPath string) *Finder {
	return &Finder{
		CustomPath: customPath,
		lookPath:   exec.LookPath,
		runVersion: func(path string) (string, error) {
			out, err := exec.Command(path, "--version").Output()
			return string(out), err
		},
	}
}

// Find ищет vips в следующем порядке:
// 1. CustomPath (если задан)
// 2. Переменная окружения WALLPAPERCTL_VIPS
// 3. PATH
// Найденный vips должен быть не старше MinVersion.
func (f *Finder) Find() (*VipsInfo, error) {
	var candidates []string

	if f.CustomPath != "" {
		candidates = append(candidates, f.CustomPath)
	}
	if envPath := os.Getenv(EnvVar); envPath != "" {
		candidates = append(candidates, envPath)
	}
	if pathVips, err := f.lookPath(vipsBinaryName()); err == nil {
		candidates = append(candidates, pathVips)
	}

	var lastErr error
	for _, path := range candidates {
		info, err := f.checkVips(path)
		if err != nil {
			lastErr = err
			continue
		}
		if !AtLeast(info.Version, MinVersion) {
			lastErr = fmt.Errorf("vips %s по пути %s старше %s", info.Version, info.Path, MinVersion)
			continue
		}
		return info, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("vips не найден: %w", lastErr)
	}
	return nil, fmt.Errorf("vips не найден. Установите libvips-tools / brew install vips, "+
		"задайте %s или укажите --vips-path", EnvVar)
}

// checkVips проверяет, является ли путь рабочим vips.
func (f *Finder) checkVips(path string) (*VipsInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("файл не найден: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить абсолютный путь: %w", err)
	}

	output, err := f.runVersion(absPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось выполнить vips --version: %w", err)
	}

	return &VipsInfo{
		Path:    absPath,
		Version: parseVersion(output),
	}, nil
}

// parseVersion извлекает версию из вывода "vips --version".
// Пример вывода: "vips-8.14.2" или "vips-8.15.1-Fri Jan 12 2024".
func parseVersion(output string) string {
	output = strings.TrimSpace(output)
	output = strings.TrimPrefix(output, "vips-")
	output = strings.TrimPrefix(output, "vips ")

	if i := strings.IndexAny(output, "- \n"); i >= 0 {
		output = output[:i]
	}
	return output
}

// AtLeast сравнивает версии вида major.minor.patch.
func AtLeast(version, min string) bool {
	v, m := splitVersion(version), splitVersion(min)
	for i := 0; i < 3; i++ {
		if v[i] != m[i] {
			return v[i] > m[i]
		}
	}
	return true
}

func splitVersion(s string) [3]int {
	var out [3]int
	for i, part := range strings.SplitN(s, ".", 3) {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}

// vipsBinaryName возвращает имя бинарника vips для текущей ОС.
func vipsBinaryName() string {
	if runtime.GOOS == "windows" {
		return "vips.exe"
	}
	return "vips"
}
