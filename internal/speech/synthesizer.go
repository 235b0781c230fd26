package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/ZacxDev/slide-narrator/internal/logging"
)

// Synthesis steps reported in SynthesisError.
const (
	StepProvider  = "provider"
	StepSettle    = "settle"
	StepVerify    = "verify-intermediate"
	StepTranscode = "transcode"
	StepDecoded   = "verify-decoded"
	StepProbe     = "probe"
)

// MediaTool is the subset of the ffmpeg processor the synthesizer needs.
type MediaTool interface {
	TranscodeToWAV(ctx context.Context, inputPath, outputPath string, sampleRate int) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Audio is a decoded narration file and its measured length in seconds.
type Audio struct {
	Path     string
	Duration float64
}

// SynthesisError reports which step of narration generation failed.
type SynthesisError struct {
	Step   string
	Output string
	Err    error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("audio synthesis failed at %s for %s: %v", e.Step, filepath.Base(e.Output), e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Options configures a Synthesizer.
type Options struct {
	Voice       string
	SampleRate  int
	SettleDelay time.Duration
	Logger      *slog.Logger
}

// Synthesizer produces decoded WAV narration for one segment at a time.
// Intermediate files are written beside the destination, so calls for the
// same destination must not overlap.
type Synthesizer struct {
	provider Provider
	media    MediaTool
	opts     Options
	logger   *slog.Logger
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(provider Provider, media MediaTool, opts Options) *Synthesizer {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 22050
	}
	return &Synthesizer{
		provider: provider,
		media:    media,
		opts:     opts,
		logger:   logging.OrNop(opts.Logger),
	}
}

// Synthesize writes narration for text to dest as 16-bit PCM WAV and returns
// its probed duration. On failure neither the intermediate nor dest is left
// behind.
func (s *Synthesizer) Synthesize(ctx context.Context, text, dest string) (*Audio, error) {
	intermediate := strings.TrimSuffix(dest, filepath.Ext(dest)) + s.provider.Extension()

	fail := func(step string, err error) (*Audio, error) {
		for _, p := range []string{intermediate, dest} {
			if rerr := os.Remove(p); rerr != nil && !os.IsNotExist(rerr) {
				s.logger.Warn("could not remove partial audio",
					slog.String("path", p),
					slog.String("error", rerr.Error()))
			}
		}
		return nil, &SynthesisError{Step: step, Output: dest, Err: err}
	}

	if strings.TrimSpace(text) == "" {
		return fail(StepProvider, errors.New("empty narration text"))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fail(StepProvider, errors.WithStack(err))
	}

	if err := s.provider.Synthesize(ctx, text, s.opts.Voice, intermediate); err != nil {
		return fail(StepProvider, errors.Wrap(err, s.provider.GetName()))
	}

	if s.opts.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return fail(StepSettle, ctx.Err())
		case <-time.After(s.opts.SettleDelay):
		}
	}

	if _, err := nonEmpty(intermediate); err != nil {
		return fail(StepVerify, err)
	}

	if err := s.media.TranscodeToWAV(ctx, intermediate, dest, s.opts.SampleRate); err != nil {
		return fail(StepTranscode, err)
	}

	size, err := nonEmpty(dest)
	if err != nil {
		return fail(StepDecoded, err)
	}

	if err := os.Remove(intermediate); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("could not remove intermediate audio",
			slog.String("path", intermediate),
			slog.String("error", err.Error()))
	}

	duration, err := s.media.ProbeDuration(ctx, dest)
	if err != nil {
		return fail(StepProbe, err)
	}
	if duration <= 0 {
		return fail(StepProbe, errors.Errorf("non-positive duration %.3f", duration))
	}

	s.logger.Info("audio generated",
		slog.String("file", filepath.Base(dest)),
		slog.String("size", humanize.Bytes(uint64(size))),
		slog.Float64("duration", duration))

	return &Audio{Path: dest, Duration: duration}, nil
}

func nonEmpty(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if info.Size() == 0 {
		return 0, errors.Errorf("%s is empty", filepath.Base(path))
	}
	return info.Size(), nil
}
