package speech

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	// DefaultGTTSURL is the Google Translate speech endpoint
	DefaultGTTSURL = "https://translate.google.com/translate_tts"

	// gttsMaxChars is the per-request text limit of the endpoint
	gttsMaxChars = 100
)

// GTTS synthesizes MP3 speech through the Google Translate endpoint.
type GTTS struct {
	endpoint string
	language string
	client   *http.Client
}

// NewGTTS returns a GTTS provider. Empty values fall back to defaults.
func NewGTTS(endpoint, language string, client *http.Client) *GTTS {
	if endpoint == "" {
		endpoint = DefaultGTTSURL
	}
	if language == "" {
		language = "en"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GTTS{endpoint: endpoint, language: language, client: client}
}

func (g *GTTS) GetName() string   { return "gtts" }
func (g *GTTS) Extension() string { return ".mp3" }

// Synthesize requests each text chunk in order and appends the MP3 frames to
// outPath. The voice tag is not used by this endpoint.
func (g *GTTS) Synthesize(ctx context.Context, text, _ string, outPath string) error {
	chunks := chunkText(text, gttsMaxChars)
	if len(chunks) == 0 {
		return errors.New("no text to synthesize")
	}

	out, err := os.Create(outPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer out.Close()

	for i, chunk := range chunks {
		if err := g.fetchChunk(ctx, out, chunk, i, len(chunks)); err != nil {
			return errors.Wrapf(err, "chunk %d/%d", i+1, len(chunks))
		}
	}
	return errors.WithStack(out.Close())
}

func (g *GTTS) fetchChunk(ctx context.Context, w io.Writer, chunk string, idx, total int) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", g.language)
	q.Set("client", "tw-ob")
	q.Set("ttsspeed", "1")
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("tts request failed: %s", resp.Status)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return errors.Wrap(err, "read tts response")
	}
	return nil
}

// chunkText splits text on whitespace into pieces of at most limit runes.
// Words longer than limit are split hard.
func chunkText(text string, limit int) []string {
	var (
		chunks  []string
		current []string
		size    int
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current, size = nil, 0
		}
	}
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > limit {
			flush()
			r := []rune(word)
			chunks = append(chunks, string(r[:limit]))
			word = string(r[limit:])
		}
		n := utf8.RuneCountInString(word)
		if size > 0 && size+1+n > limit {
			flush()
		}
		if size > 0 {
			size++
		}
		current = append(current, word)
		size += n
	}
	flush()
	return chunks
}
