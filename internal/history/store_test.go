package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndList(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		err := store.Record(ctx, Entry{
			VideoID:         id,
			OutputPath:      "/out/" + id + "/video/final_video.mp4",
			Quality:         "720p",
			Provider:        "gtts",
			Segments:        i + 1,
			TrueDuration:    1.5 * float64(i+1),
			NominalDuration: 5 * (i + 1),
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record(%s): %v", id, err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].VideoID != "c" || all[2].VideoID != "a" {
		t.Fatalf("unexpected order: %+v", all)
	}
	if !all[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("created_at = %v", all[0].CreatedAt)
	}
	if all[1].TrueDuration != 3 || all[1].NominalDuration != 10 {
		t.Errorf("durations = %v / %d", all[1].TrueDuration, all[1].NominalDuration)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit ignored: %d entries", len(limited))
	}
}

func TestRecordDuplicateVideoID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	e := Entry{VideoID: "dup", OutputPath: "/x", Quality: "720p", Provider: "gtts", Segments: 1}
	if err := store.Record(ctx, e); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, e); err == nil {
		t.Fatal("expected unique constraint error")
	}
}
