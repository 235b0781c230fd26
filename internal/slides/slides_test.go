package slides

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

type fixture struct {
	staging   string
	published string
	resolver  *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		staging:   filepath.Join(root, "temp"),
		published: filepath.Join(root, "output"),
	}
	for _, d := range []string{f.staging, f.published} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	f.resolver = NewResolver(f.staging, f.published)
	return f
}

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveOrder(t *testing.T) {
	f := newFixture(t)
	local := touch(t, filepath.Join(t.TempDir(), "local.png"))
	stagedOnly := touch(t, filepath.Join(f.staging, "abc_slide_001.png"))
	touch(t, filepath.Join(f.published, "abc_slide_001.png"))
	publishedOnly := touch(t, filepath.Join(f.published, "abc_slide_002.png"))
	both := touch(t, filepath.Join(f.staging, "shared.png"))
	touch(t, filepath.Join(f.published, "shared.png"))

	known := []string{"abc_slide_001.png", "abc_slide_002.png"}

	tests := []struct {
		name    string
		ref     string
		wantP   string
		wantURL string
	}{
		{"existing path as-is", local, local, ""},
		{"staging beats published", "shared.png", both, ""},
		{"generic maps to staged file", "slide_1.png", stagedOnly, ""},
		{"generic padded index", "slide_002.png", publishedOnly, ""},
		{"published fallback", "abc_slide_002.png", publishedOnly, ""},
		{"url", "https://cdn.example.com/s1.png", "", "https://cdn.example.com/s1.png"},
		{"padded generic prefers staging", "slide_001.png", stagedOnly, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.resolver.Resolve(tt.ref, known)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.ref, err)
			}
			if res.Path != tt.wantP || res.URL != tt.wantURL {
				t.Errorf("Resolve(%q) = %+v, want path %q url %q", tt.ref, res, tt.wantP, tt.wantURL)
			}
		})
	}
}

func TestResolveGenericOutOfRangeFallsThrough(t *testing.T) {
	f := newFixture(t)
	staged := touch(t, filepath.Join(f.staging, "x_slide_005.png"))

	res, err := f.resolver.Resolve("slide_005.png", []string{"x_slide_005.png"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Path != staged {
		t.Errorf("path = %q, want suffix match %q", res.Path, staged)
	}
}

func TestResolveSuffixMatchNotStaged(t *testing.T) {
	f := newFixture(t)
	upload := touch(t, filepath.Join(t.TempDir(), "deck_slide_009.png"))
	res, err := f.resolver.Resolve("deck_slide_009.png", []string{upload})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Path != upload || res.Remote() {
		t.Errorf("resource = %+v, want local %q", res, upload)
	}
}

func TestResolveSuffixMatchURL(t *testing.T) {
	f := newFixture(t)
	remote := "https://cdn.example.com/x/deck1.png"
	res, err := f.resolver.Resolve("deck1.png", []string{remote})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Remote() || res.URL != remote || res.Path != "" {
		t.Errorf("resource = %+v, want url %q", res, remote)
	}
}

func TestResolveSuffixMatchMissingFile(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.Resolve("missing.png", []string{"/nowhere/missing.png"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for a known entry absent from disk, got %v", err)
	}
}

func TestResolveNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.Resolve("missing.png", []string{"other.png"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Ref != "missing.png" {
		t.Errorf("ref = %q", nf.Ref)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	touch(t, filepath.Join(f.staging, "abc_slide_001.png"))
	known := []string{"abc_slide_001.png"}

	first, err := f.resolver.Resolve("slide_001.png", known)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.resolver.Resolve("slide_001.png", known)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("resolution changed: %+v then %+v", first, second)
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slide.jpg":
			w.Write([]byte("jpeg-bytes"))
		case "/empty.png":
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(dir, srv.Client(), nil)
	ctx := context.Background()

	p, err := f.Fetch(ctx, Resource{Ref: "r", URL: srv.URL + "/slide.jpg"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Dir(p) != dir || !strings.HasSuffix(p, ".jpg") {
		t.Errorf("unexpected path %q", p)
	}
	if data, _ := os.ReadFile(p); string(data) != "jpeg-bytes" {
		t.Errorf("content = %q", data)
	}

	if _, err := f.Fetch(ctx, Resource{URL: srv.URL + "/missing.png"}); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := f.Fetch(ctx, Resource{URL: srv.URL + "/empty.png"}); err == nil {
		t.Error("expected error for empty body")
	}

	local, err := f.Fetch(ctx, Resource{Path: "/already/here.png"})
	if err != nil || local != "/already/here.png" {
		t.Errorf("local passthrough = %q, %v", local, err)
	}
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.png")
	blank := filepath.Join(dir, "blank.png")
	good := filepath.Join(dir, "good.png")
	writePNG(t, small, 40, 30, color.Black)
	writePNG(t, blank, 800, 600, color.White)
	writePNG(t, good, 800, 600, color.RGBA{R: 20, G: 60, B: 120, A: 255})

	info, err := Inspect(small)
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Warnings) != 1 || !strings.Contains(info.Warnings[0], "low resolution") {
		t.Errorf("small warnings = %q", info.Warnings)
	}

	info, err = Inspect(blank)
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Warnings) != 1 || !strings.Contains(info.Warnings[0], "blank") {
		t.Errorf("blank warnings = %q", info.Warnings)
	}

	info, err = Inspect(good)
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Warnings) != 0 || info.Format != "png" || info.Width != 800 {
		t.Errorf("good info = %+v", info)
	}
}

func TestProbeRejectsNonImage(t *testing.T) {
	p := touch(t, filepath.Join(t.TempDir(), "fake.png"))
	if _, err := Probe(p); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestProbeAcceptsOtherFormats(t *testing.T) {
	dir := t.TempDir()
	img := image.NewPaletted(image.Rect(0, 0, 64, 48), color.Palette{color.Black, color.White})

	encoders := []struct {
		format string
		encode func(*os.File) error
	}{
		{"gif", func(f *os.File) error { return gif.Encode(f, img, nil) }},
		{"bmp", func(f *os.File) error { return bmp.Encode(f, img) }},
	}
	for _, enc := range encoders {
		t.Run(enc.format, func(t *testing.T) {
			path := filepath.Join(dir, "slide."+enc.format)
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := enc.encode(f); err != nil {
				t.Fatal(err)
			}
			f.Close()

			info, err := Probe(path)
			if err != nil {
				t.Fatalf("Probe: %v", err)
			}
			if info.Format != enc.format || info.Width != 64 || info.Height != 48 {
				t.Errorf("info = %+v", info)
			}
		})
	}
}
