package ffmpeg

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ZacxDev/slide-narrator/internal/logging"
)

// DefaultSampleRate is used when a Processor is built without one
const DefaultSampleRate = 22050

// Processor wraps FFmpeg functionality
type Processor struct {
	ffmpegPath string
	sampleRate int
	logger     *slog.Logger
}

// NewProcessor creates a new FFmpeg processor
func NewProcessor(ffmpegPath string, sampleRate int, logger *slog.Logger) *Processor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Processor{
		ffmpegPath: ffmpegPath,
		sampleRate: sampleRate,
		logger:     logging.OrNop(logger),
	}
}

// TranscodeToWAV decodes any audio input to mono 16-bit PCM at the given rate.
func (p *Processor) TranscodeToWAV(ctx context.Context, inputPath, outputPath string, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = p.sampleRate
	}
	stream := ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"acodec": "pcm_s16le",
			"ar":     sampleRate,
			"ac":     1,
		})
	if err := p.run(ctx, stream); err != nil {
		return errors.Wrapf(err, "transcode %s", inputPath)
	}
	return nil
}

func (p *Processor) run(ctx context.Context, stream *ffmpeg.Stream) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	var stderr bytes.Buffer
	stream = stream.
		OverWriteOutput().
		WithErrorOutput(&stderr).
		SetFfmpegPath(p.ffmpegPath)

	p.logger.Debug("running ffmpeg", "args", strings.Join(stream.GetArgs(), " "))

	done := make(chan error, 1)
	go func() {
		done <- stream.Run()
	}()

	// A cancelled caller stops waiting; the subprocess is left to finish on its own.
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "ffmpeg abandoned")
	case err := <-done:
		if err != nil {
			return errors.Wrapf(err, "ffmpeg failed: %s", lastLines(stderr.String(), 5))
		}
	}
	return nil
}

// GetOptimalThreadCount uses 75% of available cores to prevent overload
func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	return int(math.Max(1, float64(cpuCount)*0.75))
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
