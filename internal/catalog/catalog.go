// Package catalog содержит доступ к реляционному каталогу обоев (SQLite или PostgreSQL).
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"
)

// Поддерживаемые драйверы.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// ErrUnknownDriver - драйвер каталога не поддерживается.
var ErrUnknownDriver = errors.New("неизвестный драйвер каталога")

// Store предоставляет методы для работы с каталогом.
// Одно подключение на фазу: Store открывается, используется и закрывается.
type Store struct {
	db       *sqlx.DB
	postgres bool
	name     string
}

// Open открывает подключение к каталогу и проверяет его.
// name - имя каталога для диагностики и заголовка артефакта.
func Open(ctx context.Context, driver, dsn, name string) (*Store, error) {
	var (
		sqlDriver string
		postgres  bool
	)

	switch driver {
	case DriverSQLite:
		sqlDriver = DriverSQLite
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
		dsn = sqliteDSN(dsn)
	case DriverPostgres, DriverPgx:
		sqlDriver = DriverPgx
		postgres = true
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}

	db, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть каталог %s: %w", name, err)
	}

	// Соединения не разделяются между фазами.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, multierr.Append(
			fmt.Errorf("не удалось подключиться к каталогу %s: %w", name, err),
			db.Close(),
		)
	}

	return &Store{db: db, postgres: postgres, name: name}, nil
}

// sqliteDSN добавляет параметры: BEGIN IMMEDIATE для транзакций и ожидание блокировки.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"
}

func ensureSQLiteDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	path, _, _ := strings.Cut(dsn, "?")
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию для каталога: %w", err)
	}
	return nil
}

// Close закрывает подключение.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name возвращает имя каталога.
func (s *Store) Name() string {
	return s.name
}

// DB возвращает подключение database/sql (для goose).
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

// FilePaths возвращает file_path всех записей каталога.
func (s *Store) FilePaths(ctx context.Context) ([]string, error) {
	var paths []string
	if err := s.db.SelectContext(ctx, &paths, "SELECT file_path FROM wallpapers"); err != nil {
		return nil, fmt.Errorf("не удалось прочитать file_path: %w", err)
	}
	return paths, nil
}

// MaxIDWithPrefix возвращает наибольший id, десятичная запись которого начинается с prefix.
func (s *Store) MaxIDWithPrefix(ctx context.Context, prefix string) (int64, bool, error) {
	return maxIDWithPrefix(ctx, s.db, prefix)
}

// maxIDWithPrefix выполняет запрос на подключении или внутри транзакции.
func maxIDWithPrefix(ctx context.Context, q sqlx.ExtContext, prefix string) (int64, bool, error) {
	query := q.Rebind("SELECT id FROM wallpapers WHERE CAST(id AS TEXT) LIKE ? ORDER BY id DESC LIMIT 1")

	var id int64
	err := sqlx.GetContext(ctx, q, &id, query, prefix+"%")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("не удалось прочитать максимальный id для %s: %w", prefix, err)
	}
	return id, true, nil
}

// Count возвращает общее количество записей.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM wallpapers"); err != nil {
		return 0, fmt.Errorf("не удалось посчитать записи: %w", err)
	}
	return n, nil
}

// CategoryCounts возвращает количество записей по категориям, от больших к меньшим.
func (s *Store) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := s.db.SelectContext(ctx, &counts,
		"SELECT category, COUNT(*) AS total FROM wallpapers GROUP BY category ORDER BY total DESC, category")
	if err != nil {
		return nil, fmt.Errorf("не удалось посчитать категории: %w", err)
	}
	return counts, nil
}

/*
Возможные расширения:
- Добавить выборку записей периода для повторной генерации артефакта
- Добавить удаление записей, файлы которых пропали с диска
*/
