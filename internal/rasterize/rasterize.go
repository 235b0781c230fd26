package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ZacxDev/slide-narrator/internal/logging"
)

const (
	// DefaultDPI balances legibility and file size for 720p output
	DefaultDPI = 75

	lockName   = ".rasterize.lock"
	pagePrefix = "page"
)

var (
	commandContext = exec.CommandContext
	pageNumber     = regexp.MustCompile(`-(\d+)\.png$`)
)

// Result lists the staged slide files for one PDF, in page order.
type Result struct {
	PDFID  string
	Slides []string
}

// Rasterizer converts PDF pages into PNG slides in the staging directory.
type Rasterizer struct {
	binary     string
	stagingDir string
	dpi        int
	logger     *slog.Logger
}

// New returns a rasterizer that runs binary (default "pdftoppm").
func New(binary, stagingDir string, dpi int, logger *slog.Logger) *Rasterizer {
	if binary == "" {
		binary = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Rasterizer{
		binary:     binary,
		stagingDir: stagingDir,
		dpi:        dpi,
		logger:     logging.OrNop(logger),
	}
}

// SlideName is the staged file name of a page.
func SlideName(pdfID string, page int) string {
	return fmt.Sprintf("%s_slide_%03d.png", pdfID, page)
}

// Rasterize renders every page of pdfPath. Writers to the staging directory
// are serialized with a file lock.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string) (*Result, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, errors.Wrap(err, "pdf")
	}
	if err := os.MkdirAll(r.stagingDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create staging directory")
	}

	lock := flock.New(filepath.Join(r.stagingDir, lockName))
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, errors.Wrap(err, "acquire staging lock")
	}
	if !locked {
		return nil, errors.New("staging directory is locked")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release staging lock", slog.String("error", err.Error()))
		}
	}()

	work, err := os.MkdirTemp(r.stagingDir, ".raster-")
	if err != nil {
		return nil, errors.Wrap(err, "create work directory")
	}
	defer os.RemoveAll(work)

	var stderr bytes.Buffer
	cmd := commandContext(ctx, r.binary,
		"-r", strconv.Itoa(r.dpi),
		"-png",
		pdfPath,
		filepath.Join(work, pagePrefix),
	)
	cmd.Stderr = &stderr
	r.logger.Debug("running pdftoppm", slog.String("pdf", pdfPath), slog.Int("dpi", r.dpi))
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "pdftoppm: %s", strings.TrimSpace(stderr.String()))
	}

	pages, err := collectPages(work)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, errors.Errorf("no pages rendered from %s", filepath.Base(pdfPath))
	}

	res := &Result{PDFID: uuid.NewString()}
	for i, page := range pages {
		name := SlideName(res.PDFID, i+1)
		if err := os.Rename(page, filepath.Join(r.stagingDir, name)); err != nil {
			return nil, errors.Wrapf(err, "stage page %d", i+1)
		}
		res.Slides = append(res.Slides, name)
	}

	r.logger.Info("rasterized pdf",
		slog.String("pdf", filepath.Base(pdfPath)),
		slog.String("pdf_id", res.PDFID),
		slog.Int("pages", len(res.Slides)))
	return res, nil
}

// collectPages returns pdftoppm output files ordered by page number. The
// tool zero-pads numbers to the width of the page count.
func collectPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	type page struct {
		path string
		n    int
	}
	var pages []page
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), pagePrefix) {
			continue
		}
		m := pageNumber.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, page{path: filepath.Join(dir, e.Name()), n: n})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].n < pages[j].n })

	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.path
	}
	return out, nil
}
