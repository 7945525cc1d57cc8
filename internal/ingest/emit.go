package ingest

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/artemshloyda/wallpaperctl/internal/catalog"
	"github.com/artemshloyda/wallpaperctl/internal/classifier"
	"github.com/artemshloyda/wallpaperctl/internal/ident"
)

// EntryOptions - постоянные поля новых записей.
type EntryOptions struct {
	// UserID - владелец записей.
	UserID int64

	// FilePathPrefix - префикс file_path (static/wallpapers).
	FilePathPrefix string
}

// BuildEntries превращает ассеты в записи каталога, выдавая идентификаторы из alloc.
func BuildEntries(assets []Asset, period string, alloc *ident.Allocator, opts EntryOptions, now time.Time) ([]catalog.Entry, error) {
	stamp := now.Format(catalog.TimeLayout)

	entries := make([]catalog.Entry, 0, len(assets))
	for _, a := range assets {
		id, err := alloc.Next()
		if err != nil {
			return nil, err
		}

		name := a.File.Name
		entries = append(entries, catalog.Entry{
			ID:          id,
			UserID:      opts.UserID,
			Title:       strings.TrimSuffix(name, filepath.Ext(name)),
			Description: "",
			FilePath:    path.Join(opts.FilePathPrefix, period, name),
			FileSize:    HumanSize(a.File.Size),
			Width:       a.Width,
			Height:      a.Height,
			Category:    classifier.Classify(name),
			Tags:        strings.Join(classifier.Tags(name), ","),
			Format:      a.Format,
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		})
	}
	return entries, nil
}

// Batch - новые записи одного периода и резервирование их идентификаторов.
type Batch struct {
	Period      string
	Reservation catalog.Reservation
	Entries     []catalog.Entry
}

// EmitResult - итог выгрузки.
type EmitResult struct {
	// ArtifactPath - путь к SQL-файлу (пусто, если записей нет).
	ArtifactPath string

	// Rows - количество строк в артефакте.
	Rows int

	// Committed - строки вставлены в каталог.
	Committed bool
}

// Emitter записывает артефакт и при необходимости применяет его к каталогу.
type Emitter struct {
	open         Opener
	artifactPath func(period string) string
	catalogName  string
	runID        string
	now          func() time.Time
}

// NewEmitter создаёт Emitter.
func NewEmitter(open Opener, artifactPath func(period string) string, catalogName, runID string) *Emitter {
	return &Emitter{
		open:         open,
		artifactPath: artifactPath,
		catalogName:  catalogName,
		runID:        runID,
		now:          time.Now,
	}
}

// Emit всегда сначала пишет артефакт. При autoCommit вставляет строки одной транзакцией;
// при ошибке транзакция откатывается, а артефакт остаётся на диске.
func (e *Emitter) Emit(ctx context.Context, batch Batch, autoCommit bool) (*EmitResult, error) {
	res := &EmitResult{}
	if len(batch.Entries) == 0 {
		return res, nil
	}

	artifactPath := e.artifactPath(batch.Period)
	err := WriteArtifact(artifactPath, Artifact{
		Period:      batch.Period,
		Catalog:     e.catalogName,
		RunID:       e.runID,
		GeneratedAt: e.now(),
		Entries:     batch.Entries,
	})
	if err != nil {
		return res, err
	}
	res.ArtifactPath = artifactPath
	res.Rows = len(batch.Entries)

	if !autoCommit {
		return res, nil
	}

	err = withCatalog(ctx, e.open, func(c Catalog) error {
		return c.InsertBatch(ctx, batch.Reservation, batch.Entries)
	})
	if err != nil {
		return res, fmt.Errorf("не удалось загрузить записи в каталог (артефакт сохранён: %s): %w", artifactPath, err)
	}

	res.Committed = true
	return res, nil
}
