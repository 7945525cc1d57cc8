package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/artemshloyda/wallpaperctl/internal/catalog"
)

// Artifact - SQL-файл импорта новых записей: журнал и ручной путь восстановления.
type Artifact struct {
	Period      string
	Catalog     string
	RunID       string
	GeneratedAt time.Time
	Entries     []catalog.Entry
}

// Render возвращает текст артефакта: заголовок и один INSERT на все строки.
func (a Artifact) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "-- Новые обои для импорта (период: %s)\n", a.Period)
	fmt.Fprintf(&b, "-- Сгенерировано: %s\n", a.GeneratedAt.Format(catalog.TimeLayout))
	fmt.Fprintf(&b, "-- Каталог: %s\n", a.Catalog)
	if a.RunID != "" {
		fmt.Fprintf(&b, "-- Запуск: %s\n", a.RunID)
	}
	fmt.Fprintf(&b, "-- Новых записей: %d\n\n", len(a.Entries))

	if len(a.Entries) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "INSERT INTO wallpapers (%s) VALUES\n", strings.Join(catalog.Columns, ", "))
	for i, e := range a.Entries {
		b.WriteString("  (")
		for j, v := range e.Values() {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(sqlLiteral(v))
		}
		b.WriteString(")")
		if i < len(a.Entries)-1 {
			b.WriteString(",\n")
		} else {
			b.WriteString(";\n")
		}
	}
	return b.String()
}

// sqlLiteral форматирует значение как литерал SQL. Кавычки в строках удваиваются.
func sqlLiteral(v any) string {
	switch x := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}

// WriteArtifact атомарно записывает артефакт в path (UTF-8).
func WriteArtifact(path string, a Artifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию для артефакта: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(a.Render()), 0644); err != nil {
		return fmt.Errorf("не удалось записать артефакт %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("не удалось переименовать %s -> %s: %w", tmp, path, err)
	}
	return nil
}
