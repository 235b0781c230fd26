package videoprocessor

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ZacxDev/slide-narrator/internal/config"
	"github.com/ZacxDev/slide-narrator/internal/processor"
	"github.com/ZacxDev/slide-narrator/pkg/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(root, "input")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.StagingDir = filepath.Join(root, "temp")
	cfg.Paths.PublishedDir = filepath.Join(root, "output")
	cfg.Paths.TempDir = filepath.Join(root, "tmp")
	cfg.Paths.HistoryDB = filepath.Join(root, "output", "history.db")
	return &cfg
}

func TestGenerateVideoRejectsUnknownQuality(t *testing.T) {
	_, err := GenerateVideo(context.Background(), GenerateOptions{
		Config:   testConfig(t),
		Quality:  "4k",
		Segments: []types.ScriptSegment{{Text: "hi", Duration: 5, Slide: "slide_001.png"}},
	})
	if err == nil {
		t.Fatal("expected error for unsupported quality")
	}
}

func TestGenerateVideoRejectsEmptyScript(t *testing.T) {
	_, err := GenerateVideo(context.Background(), GenerateOptions{Config: testConfig(t)})
	if !errors.Is(err, processor.ErrEmptyScript) {
		t.Fatalf("expected ErrEmptyScript, got %v", err)
	}
}

func TestGenerateVideoRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audio.Provider = "polly"
	_, err := GenerateVideo(context.Background(), GenerateOptions{
		Config:   cfg,
		Segments: []types.ScriptSegment{{Text: "hi", Duration: 5, Slide: "slide_001.png"}},
	})
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	result := &types.VideoResult{
		VideoID:         "lecture",
		OutputPath:      "/tmp/lecture/video/final_video.mp4",
		TrueDuration:    12.5,
		NominalDuration: 20,
		Segments:        make([]types.SegmentReport, 2),
	}
	if err := recordHistory(ctx, cfg, result, "720p", "gtts"); err != nil {
		t.Fatalf("recordHistory: %v", err)
	}

	entries, err := ListHistory(ctx, cfg, 10)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.VideoID != "lecture" || e.Segments != 2 || e.TrueDuration != 12.5 || e.NominalDuration != 20 {
		t.Errorf("entry = %+v", e)
	}
}

func TestHistoryDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.HistoryDB = ""
	if err := recordHistory(context.Background(), cfg, &types.VideoResult{}, "720p", "gtts"); err != nil {
		t.Errorf("recordHistory should be a no-op, got %v", err)
	}
	if _, err := ListHistory(context.Background(), cfg, 0); err == nil {
		t.Error("expected error listing without a database")
	}
}

func TestSupportedValues(t *testing.T) {
	qualities := GetSupportedQualities()
	for _, q := range []string{"720p", "1080p"} {
		if !slices.Contains(qualities, q) {
			t.Errorf("qualities %v missing %s", qualities, q)
		}
	}
	if !slices.Contains(GetSubtitlePresets(), "default") {
		t.Errorf("presets = %v", GetSubtitlePresets())
	}
}
