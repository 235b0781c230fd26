package slides

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/ZacxDev/slide-narrator/internal/logging"
)

// DefaultFetchTimeout bounds a single slide download.
const DefaultFetchTimeout = 30 * time.Second

// Fetcher downloads remote slides into a local directory.
type Fetcher struct {
	client *http.Client
	dir    string
	logger *slog.Logger
}

// NewFetcher returns a fetcher writing into dir. A nil client gets a default
// one with DefaultFetchTimeout.
func NewFetcher(dir string, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &Fetcher{
		client: client,
		dir:    dir,
		logger: logging.OrNop(logger),
	}
}

// Fetch materializes res on disk. Local resources are returned unchanged.
func (f *Fetcher) Fetch(ctx context.Context, res Resource) (string, error) {
	if !res.Remote() {
		return res.Path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return "", errors.Wrapf(err, "build request for %s", res.URL)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "download %s", res.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("download %s: unexpected status %s", res.URL, resp.Status)
	}

	out, err := os.CreateTemp(f.dir, "remote_slide_*"+remoteExt(res.URL))
	if err != nil {
		return "", errors.Wrap(err, "create download file")
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out.Name())
		return "", errors.Wrapf(err, "save %s", res.URL)
	}
	if n == 0 {
		os.Remove(out.Name())
		return "", errors.Errorf("download %s: empty body", res.URL)
	}

	f.logger.Info("downloaded remote slide",
		slog.String("url", res.URL),
		slog.String("path", out.Name()),
		slog.String("size", humanize.Bytes(uint64(n))))
	return out.Name(), nil
}

func remoteExt(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ".png"
	}
	switch ext := path.Ext(u.Path); ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return ext
	default:
		return ".png"
	}
}
