// Package scanner отвечает за поиск периодов и листинг изображений в них.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// File представляет файл изображения, найденный при сканировании.
type File struct {
	// Path - абсолютный путь к файлу.
	Path string

	// Name - имя файла с расширением (идентичность ассета внутри периода).
	Name string

	// Size - размер файла в байтах.
	Size int64
}

// Scanner находит файлы с поддерживаемыми расширениями.
type Scanner struct {
	extensions map[string]struct{}

	// SkipDirs - директории, которые Walk никогда не обходит (корни рендишенов).
	SkipDirs []string
}

// New создаёт Scanner с allow-list расширений (без точки, регистр не важен).
func New(extensions []string) *Scanner {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return &Scanner{extensions: exts}
}

// Supported проверяет расширение имени файла.
func (s *Scanner) Supported(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	_, ok := s.extensions[ext]
	return ok
}

// List возвращает изображения верхнего уровня директории, отсортированные по имени.
func (s *Scanner) List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать директорию %s: %w", dir, err)
	}

	var files []File
	for _, entry := range entries {
		if !entry.Type().IsRegular() || skipName(entry.Name()) || !s.Supported(entry.Name()) {
			continue
		}

		f, err := s.file(filepath.Join(dir, entry.Name()), entry)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Walk рекурсивно обходит директорию (режим --directory).
// Скрытые директории и SkipDirs пропускаются, чтобы не обрабатывать собственный вывод.
func (s *Scanner) Walk(ctx context.Context, dir string) ([]File, error) {
	skip := make(map[string]struct{}, len(s.SkipDirs))
	for _, d := range s.SkipDirs {
		if abs, err := filepath.Abs(d); err == nil {
			skip[abs] = struct{}{}
		}
	}

	var files []File
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return fmt.Errorf("не удалось прочитать %s: %w", path, err)
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(path); err == nil {
				if _, ok := skip[abs]; ok {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !d.Type().IsRegular() || skipName(d.Name()) || !s.Supported(d.Name()) {
			return nil
		}

		f, err := s.file(path, d)
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Scanner) file(path string, d os.DirEntry) (File, error) {
	info, err := d.Info()
	if err != nil {
		return File{}, fmt.Errorf("не удалось получить info %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	return File{
		Path: absPath,
		Name: d.Name(),
		Size: info.Size(),
	}, nil
}

// skipName отсекает служебные файлы файловых систем: macOS metadata (._*, .DS_Store)
// и Thumbs.db. Остальные имена с точкой в начале считаются обычными файлами.
func skipName(name string) bool {
	switch {
	case strings.HasPrefix(name, "._"):
		return true
	case name == ".DS_Store", strings.EqualFold(name, "Thumbs.db"):
		return true
	default:
		return false
	}
}

// HasCJK сообщает, содержит ли имя иероглифы. Такие имена плохо переносятся между системами.
func HasCJK(name string) bool {
	for _, r := range name {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

/*
Возможные расширения:
- Добавить exclude-паттерны
- Добавить поддержку symlinks
*/
