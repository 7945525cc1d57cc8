package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"

	"github.com/artemshloyda/wallpaperctl/internal/ident"
)

var (
	// ErrSequenceConflict - после чтения максимума другой запуск занял идентификаторы за эту дату.
	ErrSequenceConflict = errors.New("последовательность идентификаторов изменилась с момента резервирования")

	// ErrDuplicateID - идентификатор уже есть в каталоге.
	ErrDuplicateID = errors.New("идентификатор уже существует в каталоге")
)

// sequenceLockKey - ключ pg_advisory_xact_lock для выдачи идентификаторов.
const sequenceLockKey int64 = 0x77616c6c // "wall"

// Reservation - блок идентификаторов, прочитанный одним запуском.
type Reservation struct {
	Date  string
	First int64
}

// ReservationOf возвращает резервирование аллокатора.
func ReservationOf(a *ident.Allocator) Reservation {
	return Reservation{Date: a.Date, First: a.First}
}

// InsertBatch вставляет entries в одной транзакции.
// Внутри транзакции берётся блокировка и максимум за дату перечитывается:
// если он изменился, вставка отменяется с ErrSequenceConflict.
func (s *Store) InsertBatch(ctx context.Context, res Reservation, entries []Entry) (err error) {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = multierr.Append(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = s.lockSequence(ctx, tx); err != nil {
		return err
	}

	maxID, found, err := maxIDWithPrefix(ctx, tx, res.Date)
	if err != nil {
		return err
	}
	start, err := ident.StartSequence(res.Date, maxID, found)
	if err != nil {
		return err
	}
	if start != res.First {
		return fmt.Errorf("%w: ожидался номер %d, в каталоге уже %d", ErrSequenceConflict, res.First, start)
	}

	stmt, err := tx.PrepareNamedContext(ctx, insertQuery())
	if err != nil {
		return fmt.Errorf("не удалось подготовить вставку: %w", err)
	}
	defer func() { err = multierr.Append(err, stmt.Close()) }()

	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx, e); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %d: %v", ErrDuplicateID, e.ID, err)
			}
			return fmt.Errorf("не удалось вставить %s (id %d): %w", e.FilePath, e.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}
	return nil
}

// lockSequence сериализует выдачу идентификаторов между запусками.
// SQLite уже держит RESERVED блокировку (BEGIN IMMEDIATE через _txlock).
func (s *Store) lockSequence(ctx context.Context, tx *sqlx.Tx) error {
	if !s.postgres {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", sequenceLockKey); err != nil {
		return fmt.Errorf("не удалось взять блокировку последовательности: %w", err)
	}
	return nil
}

// insertQuery строит именованную вставку; sqlx подставляет плейсхолдеры драйвера.
func insertQuery() string {
	return fmt.Sprintf("INSERT INTO wallpapers (%s) VALUES (:%s)",
		strings.Join(Columns, ", "), strings.Join(Columns, ", :"))
}

// isUniqueViolation распознаёт конфликт первичного ключа в обоих драйверах.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
