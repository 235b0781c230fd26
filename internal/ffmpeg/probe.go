package ffmpeg

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MediaMetadata contains metadata about an audio or video file
type MediaMetadata struct {
	Duration   float64
	Width      int
	Height     int
	Codec      string
	SampleRate int
	Channels   int
	HasVideo   bool
	HasAudio   bool
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
	NbFrames   string `json:"nb_frames"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// GetMediaMetadata retrieves metadata about a media file
func (p *Processor) GetMediaMetadata(ctx context.Context, inputPath string) (*MediaMetadata, error) {
	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := ffmpeg.Probe(inputPath)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "ffprobe abandoned")
	case r := <-done:
		if r.err != nil {
			return nil, errors.Wrapf(r.err, "error probing %s", inputPath)
		}
		return parseProbe(r.out)
	}
}

// ProbeDuration returns the duration of a media file in seconds
func (p *Processor) ProbeDuration(ctx context.Context, inputPath string) (float64, error) {
	md, err := p.GetMediaMetadata(ctx, inputPath)
	if err != nil {
		return 0, err
	}
	return md.Duration, nil
}

func parseProbe(probe string) (*MediaMetadata, error) {
	var data probeOutput
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(data.Streams) == 0 {
		return nil, errors.New("no streams found in media")
	}

	md := &MediaMetadata{}
	var primary *probeStream
	for i := range data.Streams {
		s := &data.Streams[i]
		switch s.CodecType {
		case "video":
			md.HasVideo = true
			md.Width, md.Height = s.Width, s.Height
			if primary == nil || primary.CodecType != "video" {
				primary = s
			}
		case "audio":
			md.HasAudio = true
			md.Channels = s.Channels
			md.SampleRate, _ = strconv.Atoi(s.SampleRate)
			if primary == nil {
				primary = s
			}
		}
	}
	if primary == nil {
		return nil, errors.New("no audio or video stream found")
	}
	md.Codec = primary.CodecName

	// First try stream duration
	md.Duration = parseSeconds(primary.Duration)

	// If stream duration is not available, try format duration
	if md.Duration == 0 {
		md.Duration = parseSeconds(data.Format.Duration)
	}

	// If still no duration found, try calculating from frames and frame rate
	if md.Duration == 0 && primary.NbFrames != "" {
		frames := parseSeconds(primary.NbFrames)
		if rate := parseRate(primary.RFrameRate); rate > 0 {
			md.Duration = frames / rate
		}
	}

	if md.Duration <= 0 {
		return nil, errors.New("could not determine media duration")
	}
	return md, nil
}

func parseSeconds(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return d
}

func parseRate(s string) float64 {
	nums := strings.Split(s, "/")
	if len(nums) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
