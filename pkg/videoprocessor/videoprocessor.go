package videoprocessor

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/ZacxDev/slide-narrator/internal/config"
	"github.com/ZacxDev/slide-narrator/internal/ffmpeg"
	"github.com/ZacxDev/slide-narrator/internal/history"
	"github.com/ZacxDev/slide-narrator/internal/logging"
	"github.com/ZacxDev/slide-narrator/internal/processor"
	"github.com/ZacxDev/slide-narrator/internal/profile"
	"github.com/ZacxDev/slide-narrator/internal/rasterize"
	"github.com/ZacxDev/slide-narrator/internal/script"
	"github.com/ZacxDev/slide-narrator/internal/speech"
	"github.com/ZacxDev/slide-narrator/internal/subtitle"
	"github.com/ZacxDev/slide-narrator/pkg/types"
)

// GenerateOptions defines options for generating a narrated video
type GenerateOptions struct {
	Config     *config.Config // loaded from the default location when nil
	ScriptPath string
	Segments   []types.ScriptSegment // parsed from ScriptPath when empty
	PDFPath    string                // rasterized into staging; overrides Slides
	Slides     []string
	Quality    string
	Subtitles  bool
	Style      *subtitle.Style // config style when nil
	Voice      string
	VideoID    string
	Logger     *slog.Logger
	Progress   processor.ProgressReporter
}

// GenerateVideo runs the full pipeline for one script: optional PDF
// rasterization, narration, composition and final assembly. Successful
// generations are recorded in the history database when one is configured.
func GenerateVideo(ctx context.Context, opts GenerateOptions) (*types.VideoResult, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	logger := logging.OrNop(opts.Logger)

	quality := opts.Quality
	if quality == "" {
		quality = cfg.Video.Quality
	}
	prof, err := profile.Get(quality)
	if err != nil {
		return nil, err
	}

	segments := opts.Segments
	if len(segments) == 0 && opts.ScriptPath != "" {
		segments, err = script.Load(opts.ScriptPath)
		if err != nil {
			return nil, errors.Wrap(err, "load script")
		}
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	slides := opts.Slides
	if opts.PDFPath != "" {
		res, err := RasterizePDF(ctx, cfg, opts.PDFPath, logger)
		if err != nil {
			return nil, err
		}
		slides = res.Slides
	}

	style := cfg.SubtitleStyle()
	if opts.Style != nil {
		style = *opts.Style
	}
	voice := opts.Voice
	if voice == "" {
		voice = cfg.Audio.Voice
	}

	client := &http.Client{Timeout: time.Duration(cfg.Audio.RequestTimeout) * time.Second}
	provider, err := speech.NewProvider(cfg.Audio.Provider, speech.ProviderOptions{
		Language:   cfg.Audio.Language,
		EspeakPath: cfg.Audio.EspeakPath,
		GTTSURL:    cfg.Audio.GTTSBaseURL,
		Client:     client,
	})
	if err != nil {
		return nil, err
	}

	media := ffmpeg.NewProcessor(cfg.Video.FFmpegPath, cfg.Audio.SampleRate, logger)
	synth := speech.NewSynthesizer(provider, media, speech.Options{
		Voice:       voice,
		SampleRate:  cfg.Audio.SampleRate,
		SettleDelay: time.Duration(cfg.Audio.SettleDelayMS) * time.Millisecond,
		Logger:      logger,
	})

	builder := processor.NewBuilder(synth, media, processor.Options{
		OutputDir:    cfg.Paths.OutputDir,
		TempDir:      cfg.Paths.TempDir,
		StagingDir:   cfg.Paths.StagingDir,
		PublishedDir: cfg.Paths.PublishedDir,
		Profile:      prof,
		Provider:     provider.GetName(),
		HTTPClient:   client,
		Logger:       logger,
		Progress:     opts.Progress,
	})

	result, err := builder.Generate(ctx, processor.Request{
		Segments:   segments,
		Slides:     slides,
		ScriptPath: opts.ScriptPath,
		Subtitles:  opts.Subtitles || cfg.Subtitles.Enabled,
		Style:      style,
		VideoID:    opts.VideoID,
	})
	if err != nil {
		return nil, err
	}

	if err := recordHistory(ctx, cfg, result, prof.GetName(), provider.GetName()); err != nil {
		logger.Warn("could not record generation history", slog.String("error", err.Error()))
	}
	return result, nil
}

func recordHistory(ctx context.Context, cfg *config.Config, result *types.VideoResult, quality, provider string) error {
	if cfg.Paths.HistoryDB == "" {
		return nil
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Record(ctx, history.Entry{
		VideoID:         result.VideoID,
		OutputPath:      result.OutputPath,
		Quality:         quality,
		Provider:        provider,
		Segments:        len(result.Segments),
		TrueDuration:    result.TrueDuration,
		NominalDuration: result.NominalDuration,
	})
}

// RasterizePDF renders every page of a PDF into the staging directory.
func RasterizePDF(ctx context.Context, cfg *config.Config, pdfPath string, logger *slog.Logger) (*rasterize.Result, error) {
	r := rasterize.New(cfg.Rasterize.PdftoppmPath, cfg.Paths.StagingDir, cfg.Rasterize.DPI, logger)
	res, err := r.Rasterize(ctx, pdfPath)
	if err != nil {
		return nil, errors.Wrap(err, "rasterize pdf")
	}
	return res, nil
}

// LoadScript parses a marker script or JSON segment file.
func LoadScript(path string) ([]types.ScriptSegment, error) {
	return script.Load(path)
}

// ListHistory returns the most recent generations first.
func ListHistory(ctx context.Context, cfg *config.Config, limit int) ([]history.Entry, error) {
	if cfg.Paths.HistoryDB == "" {
		return nil, errors.New("no history database configured")
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(ctx, limit)
}

// GetSupportedQualities returns a list of supported output qualities
func GetSupportedQualities() []string {
	return profile.GetSupportedQualities()
}

// GetSubtitlePresets returns the names of the built-in subtitle styles
func GetSubtitlePresets() []string {
	return subtitle.PresetNames()
}
