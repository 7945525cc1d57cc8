package worker

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/artemshloyda/wallpaperctl/internal/config"
	"github.com/artemshloyda/wallpaperctl/internal/converter"
	"github.com/artemshloyda/wallpaperctl/internal/progress"
	"github.com/artemshloyda/wallpaperctl/internal/scanner"
)

// fakeTranscoder возвращает заранее заданный исход по имени файла.
type fakeTranscoder struct {
	outcomes map[string]converter.Outcome
	calls    int
}

func (f *fakeTranscoder) Transcode(_ context.Context, src string, p config.Profile, _ string, _ bool) *converter.Result {
	f.calls++
	res := &converter.Result{Profile: p.Name, SrcPath: src, Outcome: f.outcomes[filepath.Base(src)]}
	switch res.Outcome {
	case converter.OutcomeConverted:
		res.BytesBefore, res.BytesAfter = 1000, 250
	case converter.OutcomeFailed:
		res.Err = errors.New("decode failed")
	}
	return res
}

type countingObserver struct {
	outcomes map[string]int
}

func (o *countingObserver) ObserveTranscode(_, outcome string, _, _ int64) {
	o.outcomes[outcome]++
}

func files(names ...string) []scanner.File {
	out := make([]scanner.File, 0, len(names))
	for _, n := range names {
		out = append(out, scanner.File{Path: filepath.Join("/w/003", n), Name: n})
	}
	return out
}

func TestStats(t *testing.T) {
	var s Stats
	s.Record(&converter.Result{Outcome: converter.OutcomeConverted, BytesBefore: 1000, BytesAfter: 400})
	s.Record(&converter.Result{Outcome: converter.OutcomeSkipped, BytesBefore: 999})
	s.Record(&converter.Result{Outcome: converter.OutcomeFailed})

	if s.Attempted != 3 || s.Converted != 1 || s.Skipped != 1 || s.Failed != 1 {
		t.Errorf("Stats = %+v", s)
	}
	if s.InputBytes != 1000 || s.OutputBytes != 400 {
		t.Errorf("bytes = %d -> %d, want 1000 -> 400", s.InputBytes, s.OutputBytes)
	}
	if s.SavedBytes() != 600 {
		t.Errorf("SavedBytes() = %d, want 600", s.SavedBytes())
	}
	if s.SavedPercent() != 60 {
		t.Errorf("SavedPercent() = %v, want 60", s.SavedPercent())
	}

	var empty Stats
	if empty.SavedPercent() != 0 {
		t.Errorf("empty SavedPercent() = %v, want 0", empty.SavedPercent())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{-2048, "-2.0 KB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunner_ContinuesAfterFailure(t *testing.T) {
	conv := &fakeTranscoder{outcomes: map[string]converter.Outcome{
		"a.jpg": converter.OutcomeConverted,
		"b.jpg": converter.OutcomeFailed,
		"c.jpg": converter.OutcomeSkipped,
	}}
	profiles := []config.Profile{{Name: "thumbnail"}, {Name: "preview"}}
	obs := &countingObserver{outcomes: map[string]int{}}
	bar := progress.New(progress.Options{Total: 6, Disabled: true})

	r := New(conv, profiles, zerolog.Nop())
	r.SetObserver(obs)
	r.SetProgressBar(bar)

	var stats Stats
	if err := r.Run(context.Background(), files("a.jpg", "b.jpg", "c.jpg"), "003", &stats); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if conv.calls != 6 {
		t.Errorf("calls = %d, want 6", conv.calls)
	}
	if stats.Files != 3 || stats.Attempted != 6 || stats.Converted != 2 || stats.Failed != 2 || stats.Skipped != 2 {
		t.Errorf("Stats = %+v", stats)
	}
	if obs.outcomes["failed"] != 2 || obs.outcomes["converted"] != 2 {
		t.Errorf("observer = %v", obs.outcomes)
	}
	if done, skipped, failed := bar.Counts(); done != 2 || skipped != 2 || failed != 2 {
		t.Errorf("bar counts = %d, %d, %d", done, skipped, failed)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	conv := &fakeTranscoder{outcomes: map[string]converter.Outcome{}}
	r := New(conv, []config.Profile{{Name: "preview"}}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stats Stats
	if err := r.Run(ctx, files("a.jpg"), "003", &stats); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if conv.calls != 0 {
		t.Errorf("calls = %d, want 0", conv.calls)
	}
}

func TestRunner_Idempotent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputRoot = t.TempDir()
	dir := filepath.Join(t.TempDir(), "003")

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"sunset_view.png", "city_tech.jpg"} {
		if err := imaging.Save(imaging.New(1600, 1200, color.NRGBA{G: 200, A: 255}), filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}

	list, err := scanner.New(cfg.CompressExtensions).List(dir)
	if err != nil {
		t.Fatal(err)
	}

	profiles, err := cfg.SelectProfiles([]string{"thumbnail", "preview"})
	if err != nil {
		t.Fatal(err)
	}
	r := New(converter.New(converter.NewNative(), cfg), profiles, zerolog.Nop())

	var first Stats
	if err := r.Run(context.Background(), list, "003", &first); err != nil {
		t.Fatal(err)
	}
	if first.Converted != 4 || first.Failed != 0 {
		t.Fatalf("first run = %+v, want 4 converted", first)
	}

	var second Stats
	if err := r.Run(context.Background(), list, "003", &second); err != nil {
		t.Fatal(err)
	}
	if second.Skipped != 4 || second.Converted != 0 {
		t.Errorf("second run = %+v, want 4 skipped", second)
	}

	r.SetForce(true)
	var forced Stats
	if err := r.Run(context.Background(), list, "003", &forced); err != nil {
		t.Fatal(err)
	}
	if forced.Converted != 4 {
		t.Errorf("forced run = %+v, want 4 converted", forced)
	}
}
