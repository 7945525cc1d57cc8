package ingest

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemshloyda/wallpaperctl/internal/catalog"
	"github.com/artemshloyda/wallpaperctl/internal/config"
	"github.com/artemshloyda/wallpaperctl/internal/ident"
	"github.com/artemshloyda/wallpaperctl/internal/scanner"
)

var testNow = time.Date(2025, 7, 15, 10, 30, 0, 0, time.Local)

// fakeCatalog - каталог в памяти с управляемыми ошибками.
type fakeCatalog struct {
	paths     []string
	maxID     int64
	found     bool
	readErr   error
	insertErr error
	inserted  []catalog.Entry
	opened    int
	closed    int
}

func (f *fakeCatalog) opener() Opener {
	return func(context.Context) (Catalog, error) {
		f.opened++
		return f, nil
	}
}

func (f *fakeCatalog) Name() string { return "fake_db" }

func (f *fakeCatalog) FilePaths(context.Context) ([]string, error) {
	return f.paths, f.readErr
}

func (f *fakeCatalog) MaxIDWithPrefix(context.Context, string) (int64, bool, error) {
	return f.maxID, f.found, f.readErr
}

func (f *fakeCatalog) InsertBatch(_ context.Context, _ catalog.Reservation, entries []catalog.Entry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, entries...)
	return nil
}

func (f *fakeCatalog) Count(context.Context) (int64, error) {
	return int64(len(f.paths) + len(f.inserted)), nil
}

func (f *fakeCatalog) Close() error {
	f.closed++
	return nil
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, imaging.Save(imaging.New(w, h, color.NRGBA{R: 90, G: 140, B: 200, A: 255}), path))
}

// newTestConfig создаёт конфигурацию с корнем обоев и SQLite каталогом во временной директории.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.WallpapersRoot = filepath.Join(dir, "static", "wallpapers")
	cfg.ArtifactDir = filepath.Join(dir, "artifacts")
	cfg.Catalog = config.CatalogConfig{Driver: "sqlite3", Database: filepath.Join(dir, "wallpaper_db.sqlite")}

	s, err := catalog.Open(context.Background(), cfg.Catalog.Driver, cfg.Catalog.ConnString(), cfg.Catalog.Name())
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background(), zerolog.Nop()))
	require.NoError(t, s.Close())
	return cfg
}

func newTestPipeline(cfg *config.Config) *Pipeline {
	p := NewPipeline(cfg, StoreOpener(cfg.Catalog), zerolog.Nop())
	p.SetClock(func() time.Time { return testNow })
	p.SetRunID("test-run")
	return p
}

func TestKnownNamesAndDiff(t *testing.T) {
	known := KnownNames([]string{
		"static/wallpapers/001/sunset_view.jpg",
		`static\wallpapers\002\win.png`,
		"legacy.jpg",
	})

	files := []scanner.File{
		{Name: "city_tech.png"},
		{Name: "sunset_view.jpg"},
		{Name: "Sunset_View.jpg"},
		{Name: "win.png"},
		{Name: "legacy.jpg"},
	}

	var names []string
	for _, f := range Diff(files, known) {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"city_tech.png", "Sunset_View.jpg"}, names)
}

func TestReconciler_CatalogReadFailure(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"), 4, 4)

	fc := &fakeCatalog{readErr: errors.New("connection refused")}
	_, err := NewReconciler(fc.opener(), scanner.New([]string{"png"})).NewFiles(context.Background(), dir)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogRead)
	assert.Equal(t, 1, fc.closed, "connection must be closed after the phase")
}

func TestReconciler_OpenFailure(t *testing.T) {
	open := func(context.Context) (Catalog, error) { return nil, errors.New("no route to host") }
	_, err := NewReconciler(open, scanner.New([]string{"png"})).NewFiles(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrCatalogRead)
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.0 KB"},
		{512, "0.5 KB"},
		{1024, "1.0 KB"},
		{1024*1024 - 1, "1024.0 KB"},
		{1024 * 1024, "1.00 MB"},
		{2621440, "2.50 MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanSize(tt.in), "HumanSize(%d)", tt.in)
	}
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()

	png := filepath.Join(dir, "city_tech.png")
	writeImage(t, png, 500, 300)
	a, err := Extract(scanner.File{Path: png, Name: "city_tech.png"})
	require.NoError(t, err)
	assert.Equal(t, 500, a.Width)
	assert.Equal(t, 300, a.Height)
	assert.Equal(t, "PNG", a.Format)

	jpg := filepath.Join(dir, "sunset_view.jpg")
	writeImage(t, jpg, 20, 10)
	a, err = Extract(scanner.File{Path: jpg, Name: "sunset_view.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "JPEG", a.Format)

	broken := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0644))
	a, err = Extract(scanner.File{Path: broken, Name: "broken.jpg"})
	assert.Error(t, err)
	assert.Zero(t, a.Width)
	assert.Zero(t, a.Height)
	assert.Empty(t, a.Format)
	assert.Equal(t, "broken.jpg", a.File.Name)
}

func TestBuildEntries(t *testing.T) {
	alloc, err := ident.NewAllocator("20250715", 9)
	require.NoError(t, err)

	assets := []Asset{
		{File: scanner.File{Name: "dragon_mountain.jpg", Size: 2048}, Width: 1920, Height: 1080, Format: "JPEG"},
		{File: scanner.File{Name: "o'brien.png", Size: 3 * 1024 * 1024}, Width: 10, Height: 10, Format: "PNG"},
	}

	entries, err := BuildEntries(assets, "003", alloc, EntryOptions{UserID: 1, FilePathPrefix: "static/wallpapers"}, testNow)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	e := entries[0]
	assert.Equal(t, int64(202507159), e.ID)
	assert.Equal(t, int64(1), e.UserID)
	assert.Equal(t, "dragon_mountain", e.Title)
	assert.Equal(t, "static/wallpapers/003/dragon_mountain.jpg", e.FilePath)
	assert.Equal(t, "2.0 KB", e.FileSize)
	assert.Equal(t, "幻想", e.Category)
	assert.Empty(t, e.Tags)
	assert.Empty(t, e.Description)
	assert.Zero(t, e.Views)
	assert.Zero(t, e.Likes)
	assert.Equal(t, "2025-07-15 10:30:00", e.CreatedAt)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)

	assert.Equal(t, int64(2025071510), entries[1].ID)
	assert.Equal(t, "3.00 MB", entries[1].FileSize)
}

func TestArtifact_Render(t *testing.T) {
	a := Artifact{
		Period:      "003",
		Catalog:     "wallpaper_db",
		RunID:       "run-1",
		GeneratedAt: testNow,
		Entries: []catalog.Entry{
			{ID: 202507151, UserID: 1, Title: "o'brien", FilePath: "static/wallpapers/003/o'brien.png",
				FileSize: "1.0 KB", Width: 10, Height: 20, Category: "其他", Format: "PNG",
				CreatedAt: "2025-07-15 10:30:00", UpdatedAt: "2025-07-15 10:30:00"},
			{ID: 202507152, UserID: 1, Title: "b", FilePath: "static/wallpapers/003/b.jpg",
				FileSize: "2.0 KB", Category: "其他", Format: "JPEG",
				CreatedAt: "2025-07-15 10:30:00", UpdatedAt: "2025-07-15 10:30:00"},
		},
	}

	out := a.Render()

	assert.Contains(t, out, "-- Новые обои для импорта (период: 003)\n")
	assert.Contains(t, out, "-- Сгенерировано: 2025-07-15 10:30:00\n")
	assert.Contains(t, out, "-- Каталог: wallpaper_db\n")
	assert.Contains(t, out, "-- Запуск: run-1\n")
	assert.Contains(t, out, "-- Новых записей: 2\n")
	assert.Contains(t, out, "INSERT INTO wallpapers (id, user_id, title, description, file_path, file_size, width, height, category, tags, format, views, likes, created_at, updated_at) VALUES\n")
	assert.Contains(t, out, "  (202507151, 1, 'o''brien', '', 'static/wallpapers/003/o''brien.png', '1.0 KB', 10, 20, '其他', '', 'PNG', 0, 0, '2025-07-15 10:30:00', '2025-07-15 10:30:00'),\n")
	assert.True(t, strings.HasSuffix(out, "'2025-07-15 10:30:00');\n"))
	assert.Equal(t, 1, strings.Count(out, "INSERT INTO"))
}

func TestEmitter_CommitFailureKeepsArtifact(t *testing.T) {
	dir := t.TempDir()
	fc := &fakeCatalog{insertErr: errors.New("disk full")}
	em := NewEmitter(fc.opener(), func(p string) string {
		return filepath.Join(dir, "wallpapers_import_"+p+".sql")
	}, "fake_db", "run")

	batch := Batch{
		Period:      "003",
		Reservation: catalog.Reservation{Date: "20250715", First: 1},
		Entries:     []catalog.Entry{{ID: 202507151, Title: "a"}},
	}

	res, err := em.Emit(context.Background(), batch, true)
	require.Error(t, err)
	assert.False(t, res.Committed)
	assert.FileExists(t, res.ArtifactPath)
	assert.Equal(t, 1, fc.closed)
}

func TestEmitter_NoEntries(t *testing.T) {
	fc := &fakeCatalog{}
	em := NewEmitter(fc.opener(), func(string) string { return filepath.Join(t.TempDir(), "x.sql") }, "fake_db", "")

	res, err := em.Emit(context.Background(), Batch{Period: "003"}, true)
	require.NoError(t, err)
	assert.Empty(t, res.ArtifactPath)
	assert.Zero(t, fc.opened)
}

func TestPipeline_EndToEnd(t *testing.T) {
	cfg := newTestConfig(t)
	periodDir := filepath.Join(cfg.WallpapersRoot, "003")
	writeImage(t, filepath.Join(periodDir, "sunset_view.jpg"), 2000, 1000)
	writeImage(t, filepath.Join(periodDir, "city_tech.png"), 500, 300)
	writeImage(t, filepath.Join(cfg.WallpapersRoot, "002", "old.jpg"), 10, 10)

	p := newTestPipeline(cfg)
	report, err := p.Run(context.Background(), Options{Upload: true})
	require.NoError(t, err)

	assert.Equal(t, "003", report.Period)
	assert.Equal(t, 0, report.Known)
	assert.Equal(t, 2, report.Listed)
	assert.Equal(t, 2, report.New)
	assert.True(t, report.Committed)
	assert.Equal(t, int64(202507151), report.FirstID)
	assert.Equal(t, int64(202507152), report.LastID)
	assert.True(t, report.HasTotal)
	assert.Equal(t, int64(2), report.Total)
	assert.Equal(t, filepath.Join(cfg.ArtifactDir, "wallpapers_import_003.sql"), report.Artifact)

	data, err := os.ReadFile(report.Artifact)
	require.NoError(t, err)
	artifact := string(data)
	assert.Contains(t, artifact, "(202507151, 1, 'city_tech', '', 'static/wallpapers/003/city_tech.png', ")
	assert.Contains(t, artifact, ", 500, 300, '科技', '', 'PNG', 0, 0, ")
	assert.Contains(t, artifact, "(202507152, 1, 'sunset_view', '', 'static/wallpapers/003/sunset_view.jpg', ")
	assert.Contains(t, artifact, ", 2000, 1000, '风景', '', 'JPEG', 0, 0, ")

	s, err := catalog.Open(context.Background(), cfg.Catalog.Driver, cfg.Catalog.ConnString(), cfg.Catalog.Name())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	counts, err := s.CategoryCounts(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []catalog.CategoryCount{{Category: "科技", Count: 1}, {Category: "风景", Count: 1}}, counts)

	// Повторный запуск: каталог и директория не изменились, новых файлов нет.
	again, err := newTestPipeline(cfg).Run(context.Background(), Options{Period: "003", Upload: true})
	require.NoError(t, err)
	assert.Equal(t, 0, again.New)
	assert.Empty(t, again.Artifact)
	assert.Equal(t, int64(2), again.Total)
}

func TestPipeline_ArtifactOnlyThenUpload(t *testing.T) {
	cfg := newTestConfig(t)
	writeImage(t, filepath.Join(cfg.WallpapersRoot, "001", "a.jpg"), 8, 8)

	report, err := newTestPipeline(cfg).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, report.Committed)
	assert.FileExists(t, report.Artifact)
	assert.Equal(t, int64(0), report.Total)

	// Без upload каталог не меняется, и повторный запуск снова видит файл новым.
	report, err = newTestPipeline(cfg).Run(context.Background(), Options{Upload: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.New)
	assert.True(t, report.Committed)
	assert.Equal(t, int64(202507151), report.FirstID)
}

func TestPipeline_CrossPeriodExclusion(t *testing.T) {
	cfg := newTestConfig(t)
	writeImage(t, filepath.Join(cfg.WallpapersRoot, "001", "sunset_view.jpg"), 8, 8)

	_, err := newTestPipeline(cfg).Run(context.Background(), Options{Period: "001", Upload: true})
	require.NoError(t, err)

	// Тот же файл переложен в новый период вместе с новым.
	writeImage(t, filepath.Join(cfg.WallpapersRoot, "002", "sunset_view.jpg"), 8, 8)
	writeImage(t, filepath.Join(cfg.WallpapersRoot, "002", "fresh.png"), 8, 8)

	report, err := newTestPipeline(cfg).Run(context.Background(), Options{Upload: true})
	require.NoError(t, err)
	assert.Equal(t, "002", report.Period)
	assert.Equal(t, 1, report.Known)
	assert.Equal(t, 2, report.Listed)
	assert.Equal(t, 1, report.New)
	// Последовательность продолжается с максимума за день.
	assert.Equal(t, int64(202507152), report.FirstID)
	assert.Equal(t, int64(2), report.Total)
}

func TestPipeline_MetadataFailureStillIngested(t *testing.T) {
	cfg := newTestConfig(t)
	dir := filepath.Join(cfg.WallpapersRoot, "004")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.webp"), []byte("not webp"), 0644))

	report, err := newTestPipeline(cfg).Run(context.Background(), Options{Upload: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Warnings)
	assert.True(t, report.Committed)

	data, err := os.ReadFile(report.Artifact)
	require.NoError(t, err)
	assert.Contains(t, string(data), ", 0, 0, '其他', '', '', 0, 0, ")
}

func TestPipeline_Errors(t *testing.T) {
	cfg := newTestConfig(t)

	_, err := newTestPipeline(cfg).Run(context.Background(), Options{Period: "9"})
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = newTestPipeline(cfg).Run(context.Background(), Options{Period: "007"})
	assert.ErrorIs(t, err, ErrPeriodNotFound)

	// Нет ни одного периода: используется 001, которого тоже нет.
	report, err := newTestPipeline(cfg).Run(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrPeriodNotFound)
	require.NotNil(t, report)
	assert.Equal(t, DefaultPeriod, report.Period)
}

func TestPipeline_SequenceReadFailureIsFatal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.WallpapersRoot = t.TempDir()
	cfg.ArtifactDir = t.TempDir()
	writeImage(t, filepath.Join(cfg.WallpapersRoot, "001", "a.jpg"), 8, 8)

	calls := 0
	fc := &fakeCatalog{}
	open := func(ctx context.Context) (Catalog, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("connection reset")
		}
		return fc, nil
	}

	p := NewPipeline(cfg, open, zerolog.Nop())
	p.SetClock(func() time.Time { return testNow })

	report, err := p.Run(context.Background(), Options{Upload: true})
	assert.ErrorIs(t, err, ErrCatalogRead)
	assert.Empty(t, report.Artifact)
	assert.Empty(t, fc.inserted)
}
