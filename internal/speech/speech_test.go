package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

type fakeProvider struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeProvider) GetName() string   { return "fake" }
func (f *fakeProvider) Extension() string { return ".mp3" }

func (f *fakeProvider) Synthesize(_ context.Context, _, _, outPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, f.payload, 0o644)
}

type fakeMedia struct {
	duration     float64
	transcodeErr error
	probeErr     error
	writeEmpty   bool
}

func (m *fakeMedia) TranscodeToWAV(_ context.Context, in, out string, rate int) error {
	if m.transcodeErr != nil {
		os.WriteFile(out, []byte("partial"), 0o644)
		return m.transcodeErr
	}
	if _, err := os.Stat(in); err != nil {
		return err
	}
	if m.writeEmpty {
		return os.WriteFile(out, nil, 0o644)
	}
	return os.WriteFile(out, []byte("RIFF....WAVE"), 0o644)
}

func (m *fakeMedia) ProbeDuration(context.Context, string) (float64, error) {
	return m.duration, m.probeErr
}

func TestSynthesizeSuccess(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "audio", "audio_001.wav")
	s := NewSynthesizer(&fakeProvider{payload: []byte("ID3")}, &fakeMedia{duration: 1.8}, Options{})

	a, err := s.Synthesize(context.Background(), "Hello there", dest)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if a.Path != dest || a.Duration != 1.8 {
		t.Errorf("audio = %+v", a)
	}
	if _, err := os.Stat(filepath.Join(dir, "audio", "audio_001.mp3")); !os.IsNotExist(err) {
		t.Errorf("intermediate should be removed, stat err = %v", err)
	}
}

func TestSynthesizeFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		text     string
		provider *fakeProvider
		media    *fakeMedia
		wantStep string
	}{
		{"empty text", "  ", &fakeProvider{payload: []byte("x")}, &fakeMedia{duration: 1}, StepProvider},
		{"provider error", "hi", &fakeProvider{err: boom}, &fakeMedia{duration: 1}, StepProvider},
		{"empty intermediate", "hi", &fakeProvider{payload: nil}, &fakeMedia{duration: 1}, StepVerify},
		{"transcode error", "hi", &fakeProvider{payload: []byte("x")}, &fakeMedia{transcodeErr: boom}, StepTranscode},
		{"empty decoded", "hi", &fakeProvider{payload: []byte("x")}, &fakeMedia{writeEmpty: true}, StepDecoded},
		{"probe error", "hi", &fakeProvider{payload: []byte("x")}, &fakeMedia{probeErr: boom}, StepProbe},
		{"zero duration", "hi", &fakeProvider{payload: []byte("x")}, &fakeMedia{duration: 0}, StepProbe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			dest := filepath.Join(dir, "audio_002.wav")
			s := NewSynthesizer(tt.provider, tt.media, Options{})

			a, err := s.Synthesize(context.Background(), tt.text, dest)
			if a != nil {
				t.Errorf("expected nil audio, got %+v", a)
			}
			var se *SynthesisError
			if !errors.As(err, &se) {
				t.Fatalf("expected SynthesisError, got %v", err)
			}
			if se.Step != tt.wantStep {
				t.Errorf("step = %q, want %q", se.Step, tt.wantStep)
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("leftover files: %v", entries)
			}
		})
	}
}

func TestSynthesizeSettleHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSynthesizer(&fakeProvider{payload: []byte("x")}, &fakeMedia{duration: 1}, Options{SettleDelay: 1 << 40})

	_, err := s.Synthesize(ctx, "hi", filepath.Join(t.TempDir(), "a.wav"))
	var se *SynthesisError
	if !errors.As(err, &se) || se.Step != StepSettle {
		t.Fatalf("expected settle failure, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestChunkText(t *testing.T) {
	text := strings.Repeat("word ", 60)
	chunks := chunkText(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for _, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 100 {
			t.Errorf("chunk too long: %d", n)
		}
	}
	if got := strings.Join(chunks, " "); got != strings.TrimSpace(text) {
		t.Error("chunks do not reassemble to the input")
	}

	long := chunkText(strings.Repeat("x", 250), 100)
	if len(long) != 3 || len(long[2]) != 50 {
		t.Errorf("hard split = %d chunks", len(long))
	}
	if chunkText("   ", 100) != nil {
		t.Error("expected no chunks for blank text")
	}
}

func TestGTTSSynthesize(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "tw-ob" || q.Get("tl") != "en" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		seen = append(seen, q.Get("idx"))
		w.Write([]byte("frame" + q.Get("idx")))
	}))
	defer srv.Close()

	g := NewGTTS(srv.URL, "en", srv.Client())
	out := filepath.Join(t.TempDir(), "a.mp3")
	text := strings.Repeat("narration ", 15)

	if err := g.Synthesize(context.Background(), text, "female", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "frame0frame1" {
		t.Errorf("output = %q", data)
	}
	if strings.Join(seen, ",") != "0,1" {
		t.Errorf("chunk order = %v", seen)
	}
}

func TestGTTSHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGTTS(srv.URL, "en", srv.Client())
	if err := g.Synthesize(context.Background(), "hello", "", filepath.Join(t.TempDir(), "a.mp3")); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"gtts", "espeak", "GTTS"} {
		p, err := NewProvider(name, ProviderOptions{})
		if err != nil {
			t.Fatalf("NewProvider(%s): %v", name, err)
		}
		if p.GetName() != strings.ToLower(name) {
			t.Errorf("name = %q", p.GetName())
		}
	}
	if _, err := NewProvider("polly", ProviderOptions{}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestEspeakVoiceName(t *testing.T) {
	e := NewEspeak("", "en")
	tests := map[string]string{
		"":         "en+f3",
		"female":   "en+f3",
		"Male":     "en+m3",
		"de+klatt": "de+klatt",
	}
	for in, want := range tests {
		if got := e.voiceName(in); got != want {
			t.Errorf("voiceName(%q) = %q, want %q", in, got, want)
		}
	}
}

func fakeEspeak(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		out := ""
		for i, a := range args {
			if a == "-w" && i+1 < len(args) {
				out = args[i+1]
			}
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"ESPEAK_HELPER_MODE="+mode,
			"ESPEAK_OUT="+out,
		)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestEspeakSynthesize(t *testing.T) {
	args := fakeEspeak(t, "success")
	out := filepath.Join(t.TempDir(), "audio_001.espeak.wav")

	if err := NewEspeak("", "en").Synthesize(context.Background(), "hello", "male", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if data, err := os.ReadFile(out); err != nil || string(data) != "RIFF" {
		t.Errorf("output = %q, %v", data, err)
	}
	if got := strings.Join(*args, " "); got != "-v en+m3 -w "+out+" -- hello" {
		t.Errorf("args = %q", got)
	}
}

func TestEspeakFailure(t *testing.T) {
	fakeEspeak(t, "failure")
	err := NewEspeak("", "en").Synthesize(context.Background(), "hello", "", filepath.Join(t.TempDir(), "a.wav"))
	if err == nil || !strings.Contains(err.Error(), "voice not found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("ESPEAK_HELPER_MODE") {
	case "success":
		if err := os.WriteFile(os.Getenv("ESPEAK_OUT"), []byte("RIFF"), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "voice not found")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
