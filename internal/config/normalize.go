package config

import "strings"

func (c *Config) normalize() error {
	for _, p := range []*string{
		&c.Paths.InputDir,
		&c.Paths.OutputDir,
		&c.Paths.StagingDir,
		&c.Paths.PublishedDir,
		&c.Paths.TempDir,
		&c.Paths.HistoryDB,
	} {
		expanded, err := expandPath(strings.TrimSpace(*p))
		if err != nil {
			return err
		}
		*p = expanded
	}

	c.Video.Quality = strings.ToLower(strings.TrimSpace(c.Video.Quality))
	c.Audio.Provider = strings.ToLower(strings.TrimSpace(c.Audio.Provider))
	c.Audio.Voice = strings.ToLower(strings.TrimSpace(c.Audio.Voice))
	c.Subtitles.Position = strings.ToLower(strings.TrimSpace(c.Subtitles.Position))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = DefaultSampleRate
	}
	if c.Audio.RequestTimeout == 0 {
		c.Audio.RequestTimeout = DefaultRequestTimeout
	}
	if c.Rasterize.DPI == 0 {
		c.Rasterize.DPI = DefaultDPI
	}
	if strings.TrimSpace(c.Video.FFmpegPath) == "" {
		c.Video.FFmpegPath = "ffmpeg"
	}
	return nil
}
