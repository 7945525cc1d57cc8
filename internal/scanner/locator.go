package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

var (
	// ErrRootNotFound - корневая директория обоев не существует.
	ErrRootNotFound = errors.New("корневая директория обоев не существует")

	// ErrNoPeriod - не найдено ни одного непустого периода.
	ErrNoPeriod = errors.New("непустой период не найден")
)

// PeriodWidth - ширина токена периода (001, 002, ...).
const PeriodWidth = 3

// IsPeriod проверяет, что имя состоит ровно из трёх ASCII цифр.
func IsPeriod(name string) bool {
	if len(name) != PeriodWidth {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}

// Periods возвращает все директории периодов в root, от новых к старым.
// Для токенов фиксированной ширины лексикографический порядок совпадает с числовым.
func (s *Scanner) Periods(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("не удалось прочитать %s: %w", root, err)
	}

	var periods []string
	for _, entry := range entries {
		if entry.IsDir() && IsPeriod(entry.Name()) {
			periods = append(periods, entry.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return periods, nil
}

// LatestPeriod возвращает самый новый период, содержащий хотя бы одно поддерживаемое изображение.
func (s *Scanner) LatestPeriod(root string) (string, error) {
	periods, err := s.Periods(root)
	if err != nil {
		return "", err
	}

	for _, period := range periods {
		files, err := s.List(filepath.Join(root, period))
		if err != nil {
			return "", err
		}
		if len(files) > 0 {
			return period, nil
		}
	}

	return "", ErrNoPeriod
}
