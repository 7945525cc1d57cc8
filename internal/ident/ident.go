// Package ident выдаёт идентификаторы обоев вида YYYYMMDD + порядковый номер за день.
package ident

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout - формат префикса идентификатора.
const DateLayout = "20060102"

// DateWidth - длина префикса даты.
const DateWidth = len(DateLayout)

var (
	// ErrInvalidDate - префикс не является датой YYYYMMDD.
	ErrInvalidDate = errors.New("некорректная дата идентификатора")

	// ErrInvalidSequence - порядковый номер меньше 1.
	ErrInvalidSequence = errors.New("некорректный порядковый номер")
)

// Date возвращает префикс идентификатора для момента t.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate проверяет, что date состоит из восьми ASCII цифр и является датой.
func ValidDate(date string) bool {
	if len(date) != DateWidth {
		return false
	}
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// Compose склеивает дату и номер как строки и читает результат как число.
// Номер не дополняется нулями: 20250715 + 12 = 2025071512.
func Compose(date string, seq int64) (int64, error) {
	if !ValidDate(date) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if seq < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSequence, seq)
	}

	id, err := strconv.ParseInt(date+strconv.FormatInt(seq, 10), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("идентификатор %s%d не помещается в int64: %w", date, seq, err)
	}
	return id, nil
}

// StartSequence возвращает первый свободный номер за дату.
// maxID - максимальный идентификатор каталога с префиксом date (found=false, если его нет).
func StartSequence(date string, maxID int64, found bool) (int64, error) {
	if !ValidDate(date) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if !found {
		return 1, nil
	}

	s := strconv.FormatInt(maxID, 10)
	if len(s) <= DateWidth {
		return 1, nil
	}
	if s[:DateWidth] != date {
		return 0, fmt.Errorf("идентификатор %d не относится к дате %s", maxID, date)
	}

	suffix, err := strconv.ParseInt(s[DateWidth:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный суффикс идентификатора %d: %w", maxID, err)
	}
	return suffix + 1, nil
}

// Allocator выдаёт идентификаторы одного запуска, начиная с First.
// Номера строго возрастают на единицу, поэтому внутри запуска коллизий нет.
type Allocator struct {
	Date  string
	First int64

	next        int64
	first, last int64
}

// NewAllocator создаёт Allocator для даты и первого номера.
func NewAllocator(date string, first int64) (*Allocator, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if first < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSequence, first)
	}
	return &Allocator{Date: date, First: first, next: first}, nil
}

// Next выдаёт следующий идентификатор.
func (a *Allocator) Next() (int64, error) {
	id, err := Compose(a.Date, a.next)
	if err != nil {
		return 0, err
	}
	a.next++
	if a.first == 0 {
		a.first = id
	}
	a.last = id
	return id, nil
}

// Range возвращает первый и последний выданные идентификаторы.
func (a *Allocator) Range() (first, last int64, ok bool) {
	if a.first == 0 {
		return 0, 0, false
	}
	return a.first, a.last, true
}
