package processor

import (
	"context"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/ZacxDev/slide-narrator/internal/ffmpeg"
	"github.com/ZacxDev/slide-narrator/internal/logging"
	"github.com/ZacxDev/slide-narrator/internal/profile"
)

// Encoder writes an ordered list of clips to a single file.
type Encoder interface {
	Encode(ctx context.Context, clips []ffmpeg.Clip, outputPath string, prof profile.Profile) error
}

// Timeline summarizes an assembled video.
type Timeline struct {
	OutputPath      string
	Clips           int
	TrueDuration    float64
	NominalDuration int
}

// Assembler concatenates clips in the order given.
type Assembler struct {
	encoder Encoder
	profile profile.Profile
	logger  *slog.Logger
}

// NewAssembler creates an assembler encoding with prof.
func NewAssembler(encoder Encoder, prof profile.Profile, logger *slog.Logger) *Assembler {
	return &Assembler{
		encoder: encoder,
		profile: prof,
		logger:  logging.OrNop(logger),
	}
}

// Assemble encodes clips into outputPath. All clips are closed before it
// returns; on failure any partial output is removed.
func (a *Assembler) Assemble(ctx context.Context, clips []*SegmentClip, outputPath string) (*Timeline, error) {
	defer closeClips(clips, a.logger)

	if len(clips) == 0 {
		return nil, ErrEmptyScript
	}

	tl := &Timeline{OutputPath: outputPath, Clips: len(clips)}
	encoderClips := make([]ffmpeg.Clip, 0, len(clips))
	for _, c := range clips {
		tl.TrueDuration += c.Duration
		tl.NominalDuration += c.Nominal
		encoderClips = append(encoderClips, c.encoderClip())
	}

	if err := a.encoder.Encode(ctx, encoderClips, outputPath, a.profile); err != nil {
		if rerr := os.Remove(outputPath); rerr != nil && !os.IsNotExist(rerr) {
			a.logger.Warn("could not remove partial output",
				slog.String("path", outputPath),
				slog.String("error", rerr.Error()))
		}
		return nil, &AssemblyError{Output: outputPath, Err: err}
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, &AssemblyError{Output: outputPath, Err: errors.Wrap(err, "encoder produced no output")}
	}

	a.logger.Info("video assembled",
		slog.String("output", outputPath),
		slog.Int("clips", tl.Clips),
		slog.Float64("true_duration", tl.TrueDuration),
		slog.Int("nominal_duration", tl.NominalDuration),
		slog.String("size", humanize.Bytes(uint64(info.Size()))))
	return tl, nil
}

func closeClips(clips []*SegmentClip, logger *slog.Logger) {
	for _, c := range clips {
		if err := c.Close(); err != nil {
			logger.Warn("failed to release clip",
				slog.Int("segment", c.Index),
				slog.String("error", err.Error()))
		}
	}
}
