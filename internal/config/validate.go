package config

import (
	"errors"
	"fmt"

	"github.com/ZacxDev/slide-narrator/internal/profile"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if _, err := profile.Get(c.Video.Quality); err != nil {
		return fmt.Errorf("video.quality: %w", err)
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.SubtitleStyle().Validate(); err != nil {
		return fmt.Errorf("subtitles: %w", err)
	}
	if c.Rasterize.DPI < 10 || c.Rasterize.DPI > 600 {
		return errors.New("rasterize.dpi must be between 10 and 600")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.TempDir == "" {
		return errors.New("paths.temp_dir must be set")
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.Provider {
	case "gtts", "espeak":
	default:
		return fmt.Errorf("audio.provider: unsupported value %q (supported: gtts, espeak)", c.Audio.Provider)
	}
	if c.Audio.SampleRate < 8000 {
		return errors.New("audio.sample_rate must be at least 8000")
	}
	if c.Audio.SettleDelayMS < 0 {
		return errors.New("audio.settle_delay_ms must be >= 0")
	}
	if c.Audio.RequestTimeout < 0 {
		return errors.New("audio.request_timeout must be >= 0")
	}
	return nil
}
