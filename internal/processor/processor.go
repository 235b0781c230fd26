package processor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ZacxDev/slide-narrator/internal/logging"
	"github.com/ZacxDev/slide-narrator/internal/profile"
	"github.com/ZacxDev/slide-narrator/internal/project"
	"github.com/ZacxDev/slide-narrator/internal/slides"
	"github.com/ZacxDev/slide-narrator/internal/speech"
	"github.com/ZacxDev/slide-narrator/internal/subtitle"
	"github.com/ZacxDev/slide-narrator/pkg/types"
)

// TempDirPrefix names the per-run scratch directory.
const TempDirPrefix = "slide_narrator_"

// Synthesizer produces decoded narration for one segment.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, dest string) (*speech.Audio, error)
}

// Options configures a Builder.
type Options struct {
	OutputDir    string
	TempDir      string
	StagingDir   string
	PublishedDir string
	Profile      profile.Profile
	Provider     string
	HTTPClient   *http.Client
	Logger       *slog.Logger
	Progress     ProgressReporter
}

// Request describes one video to generate.
type Request struct {
	Segments   []types.ScriptSegment
	Slides     []string
	ScriptPath string
	Subtitles  bool
	Style      subtitle.Style
	VideoID    string // generated when empty
}

// Builder runs the generation pipeline: scaffold, then per segment resolve,
// synthesize and compose, then assemble.
type Builder struct {
	opts     Options
	synth    Synthesizer
	encoder  Encoder
	resolver *slides.Resolver
	logger   *slog.Logger
	progress ProgressReporter
}

// NewBuilder creates a new pipeline builder
func NewBuilder(synth Synthesizer, encoder Encoder, opts Options) *Builder {
	progress := opts.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	return &Builder{
		opts:     opts,
		synth:    synth,
		encoder:  encoder,
		resolver: slides.NewResolver(opts.StagingDir, opts.PublishedDir),
		logger:   logging.OrNop(opts.Logger),
		progress: progress,
	}
}

// Generate produces one video. It returns either a complete result or a
// *StageError; there is no partial success.
func (b *Builder) Generate(ctx context.Context, req Request) (*types.VideoResult, error) {
	if len(req.Segments) == 0 {
		return nil, &StageError{Stage: StageInput, Err: ErrEmptyScript}
	}
	for i, seg := range req.Segments {
		if seg.Duration <= 0 {
			return nil, &StageError{
				Stage:   StageInput,
				Segment: i + 1,
				Err:     errors.Errorf("non-positive duration %d for slide %s", seg.Duration, seg.Slide),
			}
		}
	}
	if b.opts.Profile == nil {
		return nil, &StageError{Stage: StageInput, Err: errors.New("no quality profile")}
	}

	videoID := sanitizeID(req.VideoID)
	if videoID == "" {
		videoID = uuid.NewString()
	}
	logger := b.logger.With(slog.String("video_id", videoID))

	proj, err := project.Scaffold(b.opts.OutputDir, videoID)
	if err != nil {
		return nil, &StageError{Stage: StageScaffold, Err: err}
	}
	if _, err := proj.CopyScript(req.ScriptPath); err != nil {
		logger.Warn("could not copy script into project", slog.String("error", err.Error()))
	}

	if b.opts.TempDir != "" {
		if err := os.MkdirAll(b.opts.TempDir, 0o755); err != nil {
			return nil, &StageError{Stage: StageScaffold, Err: errors.WithStack(err)}
		}
	}
	workDir, err := os.MkdirTemp(b.opts.TempDir, TempDirPrefix)
	if err != nil {
		return nil, &StageError{Stage: StageScaffold, Err: errors.WithStack(err)}
	}
	defer os.RemoveAll(workDir)

	var renderer SubtitleRenderer
	if req.Subtitles {
		renderer = subtitle.NewRenderer(workDir, logger)
	}
	compositor := NewCompositor(renderer, req.Style, logger)
	fetcher := slides.NewFetcher(workDir, b.opts.HTTPClient, logger)

	logger.Info("starting video generation",
		slog.Int("segments", len(req.Segments)),
		slog.String("quality", b.opts.Profile.GetName()),
		slog.Bool("subtitles", req.Subtitles))

	clips := make([]*SegmentClip, 0, len(req.Segments))
	fail := func(stage Stage, segment int, err error) (*types.VideoResult, error) {
		closeClips(clips, logger)
		return nil, &StageError{Stage: stage, Segment: segment, Err: err}
	}

	for i, seg := range req.Segments {
		index := i + 1
		b.progress.Describe(fmt.Sprintf("Processing: %s", seg.Slide))

		if err := ctx.Err(); err != nil {
			return fail(StageCompose, index, err)
		}

		res, err := b.resolver.Resolve(seg.Slide, req.Slides)
		if err != nil {
			return fail(StageResolve, index, err)
		}
		slidePath, err := fetcher.Fetch(ctx, res)
		if err != nil {
			return fail(StageFetch, index, err)
		}

		projectSlide, err := proj.CopySlide(slidePath)
		if err != nil {
			logger.Warn("could not copy slide into project",
				slog.Int("segment", index),
				slog.String("error", err.Error()))
		}

		audio, err := b.synth.Synthesize(ctx, seg.Text, proj.AudioPath(seg.Slide))
		if err != nil {
			logger.Warn("narration failed, segment will be silent",
				slog.Int("segment", index),
				slog.String("error", err.Error()))
			audio = nil
		}

		clip, err := compositor.Compose(ctx, Segment{
			Index:   index,
			Ref:     seg.Slide,
			Slide:   projectSlide,
			Audio:   audio,
			Nominal: seg.Duration,
			Text:    seg.Text,
		})
		if err != nil {
			return fail(StageCompose, index, err)
		}
		clips = append(clips, clip)
		_ = b.progress.Add(1)
	}

	result := &types.VideoResult{
		VideoID:  videoID,
		Segments: make([]types.SegmentReport, 0, len(clips)),
	}
	for _, c := range clips {
		report := types.SegmentReport{
			Index:           c.Index,
			Slide:           c.Slide,
			NominalDuration: c.Nominal,
			Duration:        c.Duration,
			Narrated:        c.Narrated(),
			Subtitled:       c.Overlay != nil,
		}
		if c.Audio != nil {
			report.Audio = c.Audio.Path
		}
		result.Segments = append(result.Segments, report)
	}

	b.progress.Describe("Final assembly")
	tl, err := NewAssembler(b.encoder, b.opts.Profile, logger).Assemble(ctx, clips, proj.VideoPath())
	if err != nil {
		return nil, &StageError{Stage: StageAssemble, Err: err}
	}
	_ = b.progress.Finish()

	result.OutputPath = tl.OutputPath
	result.TrueDuration = tl.TrueDuration
	result.NominalDuration = tl.NominalDuration

	if _, err := proj.WriteManifest(project.Manifest{
		CreatedAt:   time.Now().UTC(),
		Quality:     b.opts.Profile.GetName(),
		Provider:    b.opts.Provider,
		Subtitles:   req.Subtitles,
		Script:      req.ScriptPath,
		VideoResult: *result,
	}); err != nil {
		logger.Warn("could not write manifest", slog.String("error", err.Error()))
	}

	logger.Info("video generation complete",
		slog.String("output", result.OutputPath),
		slog.Float64("true_duration", result.TrueDuration),
		slog.Int("nominal_duration", result.NominalDuration))
	return result, nil
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)
	repeatedSep = regexp.MustCompile(`_+`)
)

// sanitizeID makes a caller-supplied video id safe to use as a directory name
func sanitizeID(id string) string {
	sanitized := unsafeChars.ReplaceAllString(strings.TrimSpace(id), "_")
	sanitized = repeatedSep.ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "_.")
	return sanitized
}
