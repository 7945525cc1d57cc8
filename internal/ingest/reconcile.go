// Package ingest сверяет период с каталогом и готовит новые записи к импорту.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/multierr"

	"github.com/artemshloyda/wallpaperctl/internal/catalog"
	"github.com/artemshloyda/wallpaperctl/internal/config"
	"github.com/artemshloyda/wallpaperctl/internal/scanner"
)

// ErrCatalogRead - каталог недоступен для чтения; запуск прерывается целиком.
var ErrCatalogRead = errors.New("не удалось прочитать каталог")

// Catalog - операции каталога, которые использует ingest.
type Catalog interface {
	Name() string
	FilePaths(ctx context.Context) ([]string, error)
	MaxIDWithPrefix(ctx context.Context, prefix string) (int64, bool, error)
	InsertBatch(ctx context.Context, res catalog.Reservation, entries []catalog.Entry) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Opener открывает новое подключение к каталогу на одну фазу.
type Opener func(ctx context.Context) (Catalog, error)

// StoreOpener возвращает Opener для настроенного каталога.
func StoreOpener(cfg config.CatalogConfig) Opener {
	return func(ctx context.Context) (Catalog, error) {
		s, err := catalog.Open(ctx, cfg.Driver, cfg.ConnString(), cfg.Name())
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// withCatalog открывает подключение, выполняет fn и закрывает подключение.
func withCatalog(ctx context.Context, open Opener, fn func(Catalog) error) (err error) {
	c, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, c.Close()) }()
	return fn(c)
}

// Reconciliation - результат сверки периода с каталогом.
type Reconciliation struct {
	// Known - количество записей каталога.
	Known int

	// Listed - изображения директории периода.
	Listed []scanner.File

	// New - изображения, которых нет в каталоге.
	New []scanner.File
}

// Reconciler вычисляет новые файлы периода.
type Reconciler struct {
	open    Opener
	scanner *scanner.Scanner
}

// NewReconciler создаёт Reconciler.
func NewReconciler(open Opener, sc *scanner.Scanner) *Reconciler {
	return &Reconciler{open: open, scanner: sc}
}

// NewFiles возвращает файлы dir, имён которых нет в каталоге.
// Любая ошибка каталога фатальна: пустой diff привёл бы к повторному импорту.
func (r *Reconciler) NewFiles(ctx context.Context, dir string) (*Reconciliation, error) {
	var paths []string
	err := withCatalog(ctx, r.open, func(c Catalog) error {
		var err error
		paths, err = c.FilePaths(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogRead, err)
	}

	listed, err := r.scanner.List(dir)
	if err != nil {
		return nil, err
	}

	known := KnownNames(paths)
	return &Reconciliation{
		Known:  len(paths),
		Listed: listed,
		New:    Diff(listed, known),
	}, nil
}

// KnownNames сводит file_path каталога к именам файлов.
// Идентичность не зависит от директории: имя из другого периода тоже считается известным.
func KnownNames(paths []string) map[string]struct{} {
	known := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		known[path.Base(strings.ReplaceAll(p, "\\", "/"))] = struct{}{}
	}
	return known
}

// Diff возвращает файлы, имён которых нет в known (точное сравнение с учётом регистра).
func Diff(files []scanner.File, known map[string]struct{}) []scanner.File {
	var out []scanner.File
	for _, f := range files {
		if _, ok := known[f.Name]; !ok {
			out = append(out, f)
		}
	}
	return out
}
