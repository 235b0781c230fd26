package processor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ZacxDev/slide-narrator/internal/ffmpeg"
	"github.com/ZacxDev/slide-narrator/internal/logging"
	"github.com/ZacxDev/slide-narrator/internal/slides"
	"github.com/ZacxDev/slide-narrator/internal/speech"
	"github.com/ZacxDev/slide-narrator/internal/subtitle"
)

// SubtitleRenderer renders an overlay, or nil when subtitles are unavailable.
type SubtitleRenderer interface {
	Render(text string, duration float64, style subtitle.Style) *subtitle.Overlay
}

// Segment is one resolved script entry ready for composition.
type Segment struct {
	Index   int // 1-based
	Ref     string
	Slide   string
	Audio   *speech.Audio // nil when synthesis failed
	Nominal int
	Text    string
}

// SegmentClip is a composed still image with its narration and overlay.
// Duration is the audio's measured length when narration is attached, the
// nominal script duration otherwise.
type SegmentClip struct {
	Index    int
	Ref      string
	Slide    string
	Audio    *speech.Audio
	Duration float64
	Nominal  int
	Overlay  *subtitle.Overlay

	closed bool
}

// Narrated reports whether the clip carries synthesized audio.
func (c *SegmentClip) Narrated() bool {
	return c.Audio != nil
}

// Close releases the clip's temporary files. It is safe to call twice.
func (c *SegmentClip) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	return c.Overlay.Close()
}

func (c *SegmentClip) encoderClip() ffmpeg.Clip {
	clip := ffmpeg.Clip{
		Image:    c.Slide,
		Duration: c.Duration,
	}
	if c.Audio != nil {
		clip.Audio = c.Audio.Path
	}
	if c.Overlay != nil {
		clip.DrawText = c.Overlay.DrawText
	}
	return clip
}

// Compositor turns resolved segments into clips.
type Compositor struct {
	subtitles SubtitleRenderer
	style     subtitle.Style
	logger    *slog.Logger
}

// NewCompositor creates a compositor. A nil renderer disables subtitles.
func NewCompositor(subtitles SubtitleRenderer, style subtitle.Style, logger *slog.Logger) *Compositor {
	return &Compositor{
		subtitles: subtitles,
		style:     style,
		logger:    logging.OrNop(logger),
	}
}

// Compose validates the slide, settles the clip duration and attaches
// subtitles. Audio problems degrade to a silent clip of nominal length; an
// unusable slide fails with CompositionError.
func (c *Compositor) Compose(ctx context.Context, seg Segment) (*SegmentClip, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CompositionError{Segment: seg.Index, Slide: seg.Ref, Err: err}
	}

	info, err := slides.Inspect(seg.Slide)
	if err != nil {
		return nil, &CompositionError{Segment: seg.Index, Slide: seg.Ref, Err: err}
	}
	for _, w := range info.Warnings {
		c.logger.Warn("slide quality",
			slog.Int("segment", seg.Index),
			slog.String("slide", filepath.Base(seg.Slide)),
			slog.String("warning", w))
	}

	clip := &SegmentClip{
		Index:   seg.Index,
		Ref:     seg.Ref,
		Slide:   seg.Slide,
		Nominal: seg.Nominal,
	}

	if err := validateAudio(seg.Audio); err != nil {
		if seg.Audio != nil {
			c.logger.Warn("narration unusable, using nominal duration",
				slog.Int("segment", seg.Index),
				slog.String("error", err.Error()))
		}
		if seg.Nominal <= 0 {
			return nil, &CompositionError{
				Segment: seg.Index,
				Slide:   seg.Ref,
				Err:     errors.Errorf("no narration and non-positive nominal duration %d", seg.Nominal),
			}
		}
		clip.Duration = float64(seg.Nominal)
	} else {
		clip.Audio = seg.Audio
		clip.Duration = seg.Audio.Duration
	}

	if c.subtitles != nil && strings.TrimSpace(seg.Text) != "" {
		clip.Overlay = c.subtitles.Render(seg.Text, clip.Duration, c.style)
		if clip.Overlay == nil {
			c.logger.Warn("continuing without subtitles", slog.Int("segment", seg.Index))
		}
	}

	c.logger.Info("segment composed",
		slog.Int("segment", seg.Index),
		slog.String("slide", filepath.Base(seg.Slide)),
		slog.Float64("duration", clip.Duration),
		slog.Int("nominal", seg.Nominal),
		slog.Bool("narrated", clip.Narrated()),
		slog.Bool("subtitled", clip.Overlay != nil))
	return clip, nil
}

func validateAudio(a *speech.Audio) error {
	if a == nil {
		return errors.New("no audio")
	}
	if !strings.EqualFold(filepath.Ext(a.Path), ".wav") {
		return errors.Errorf("unexpected audio format %q", filepath.Ext(a.Path))
	}
	info, err := os.Stat(a.Path)
	if err != nil {
		return errors.WithStack(err)
	}
	if info.Size() == 0 {
		return errors.New("audio file is empty")
	}
	if a.Duration <= 0 {
		return errors.Errorf("non-positive audio duration %.3f", a.Duration)
	}
	return nil
}
