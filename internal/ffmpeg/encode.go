package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ZacxDev/slide-narrator/internal/profile"
)

// Clip is one still-image segment of the final timeline.
type Clip struct {
	Image    string
	Audio    string // empty for a silent segment
	Duration float64
	DrawText map[string]any
}

// Encode renders clips, in order, into a single file using the profile's
// dimensions, frame rate and codecs.
func (p *Processor) Encode(ctx context.Context, clips []Clip, outputPath string, prof profile.Profile) error {
	if len(clips) == 0 {
		return errors.New("no clips to encode")
	}
	for i, c := range clips {
		if c.Duration <= 0 {
			return errors.Errorf("clip %d has non-positive duration %.3f", i, c.Duration)
		}
	}

	p.logger.Info("encoding timeline",
		slog.Int("clips", len(clips)),
		slog.String("profile", prof.GetName()),
		slog.String("output", outputPath))

	if err := p.run(ctx, p.buildTimeline(clips, outputPath, prof)); err != nil {
		return errors.Wrapf(err, "encode %s", outputPath)
	}
	return nil
}

func (p *Processor) buildTimeline(clips []Clip, outputPath string, prof profile.Profile) *ffmpeg.Stream {
	width, height := prof.GetDimensions()
	fps := prof.GetFrameRate()

	videos := make([]*ffmpeg.Stream, 0, len(clips))
	audios := make([]*ffmpeg.Stream, 0, len(clips))

	for _, c := range clips {
		dur := formatSeconds(c.Duration)

		v := ffmpeg.Input(c.Image, ffmpeg.KwArgs{
			"loop":      1,
			"t":         dur,
			"framerate": fps,
		}).Video().
			Filter("scale", ffmpeg.Args{}, ffmpeg.KwArgs{
				"w": width,
				"h": height,
			}).
			Filter("setsar", ffmpeg.Args{"1"})

		if c.DrawText != nil {
			v = v.Filter("drawtext", ffmpeg.Args{}, ffmpeg.KwArgs(c.DrawText))
		}
		videos = append(videos, v)

		var a *ffmpeg.Stream
		if c.Audio != "" {
			a = ffmpeg.Input(c.Audio).Audio()
		} else {
			a = ffmpeg.Input(fmt.Sprintf("anullsrc=r=%d:cl=mono", p.sampleRate), ffmpeg.KwArgs{
				"f": "lavfi",
				"t": dur,
			}).Audio()
		}
		a = a.
			Filter("aformat", ffmpeg.Args{}, ffmpeg.KwArgs{
				"sample_rates":    p.sampleRate,
				"channel_layouts": "mono",
			}).
			Filter("apad", ffmpeg.Args{}).
			Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": dur})
		audios = append(audios, a)
	}

	video := ffmpeg.Filter(videos, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{
		"n": len(videos),
		"v": 1,
		"a": 0,
	})
	audio := ffmpeg.Filter(audios, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{
		"n": len(audios),
		"v": 0,
		"a": 1,
	})

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outputPath, ffmpeg.KwArgs{
		"c:v":      prof.GetVideoCodec(),
		"c:a":      prof.GetAudioCodec(),
		"b:a":      prof.GetAudioBitrate(),
		"preset":   prof.GetPreset(),
		"crf":      prof.GetCRF(),
		"r":        fps,
		"ar":       p.sampleRate,
		"pix_fmt":  "yuv420p",
		"threads":  GetOptimalThreadCount(),
		"movflags": "+faststart",
	})
}

func formatSeconds(d float64) string {
	return fmt.Sprintf("%.3f", d)
}
