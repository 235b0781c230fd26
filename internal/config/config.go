package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ZacxDev/slide-narrator/internal/subtitle"
)

//go:embed sample_config.toml
var sampleConfig string

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "slide-narrator.toml"

// Paths contains the directories the pipeline reads from and writes to.
// Nothing is created implicitly; see EnsureDirectories.
type Paths struct {
	InputDir     string `toml:"input_dir"`
	OutputDir    string `toml:"output_dir"`
	StagingDir   string `toml:"staging_dir"`
	PublishedDir string `toml:"published_dir"`
	TempDir      string `toml:"temp_dir"`
	HistoryDB    string `toml:"history_db"`
}

// Video contains output encoding selection.
type Video struct {
	Quality    string `toml:"quality"`
	FFmpegPath string `toml:"ffmpeg_path"`
}

// Audio contains speech synthesis settings.
type Audio struct {
	Provider       string `toml:"provider"`
	Voice          string `toml:"voice"`
	Language       string `toml:"language"`
	SampleRate     int    `toml:"sample_rate"`
	SettleDelayMS  int    `toml:"settle_delay_ms"`
	EspeakPath     string `toml:"espeak_path"`
	GTTSBaseURL    string `toml:"gtts_base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Subtitles contains burned-in subtitle settings.
type Subtitles struct {
	Enabled           bool    `toml:"enabled"`
	Position          string  `toml:"position"`
	FontSize          int     `toml:"font_size"`
	FontColor         string  `toml:"font_color"`
	StrokeColor       string  `toml:"stroke_color"`
	StrokeWidth       int     `toml:"stroke_width"`
	BackgroundColor   string  `toml:"background_color"`
	BackgroundOpacity float64 `toml:"background_opacity"`
	MaxWidth          float64 `toml:"max_width"`
	FontFile          string  `toml:"font_file"`
}

// Rasterize contains PDF to image conversion settings.
type Rasterize struct {
	DPI          int    `toml:"dpi"`
	PdftoppmPath string `toml:"pdftoppm_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for slide-narrator.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Video     Video     `toml:"video"`
	Audio     Audio     `toml:"audio"`
	Subtitles Subtitles `toml:"subtitles"`
	Rasterize Rasterize `toml:"rasterize"`
	Logging   Logging   `toml:"logging"`
}

// Load locates, parses, normalizes and validates a configuration file. A
// missing file is not an error: defaults plus environment overrides are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigFile
	}
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnsureDirectories creates the input, output, staging and temp roots.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.InputDir,
		c.Paths.OutputDir,
		c.Paths.StagingDir,
		c.Paths.TempDir,
	} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Paths.HistoryDB != "" {
		if err := os.MkdirAll(filepath.Dir(c.Paths.HistoryDB), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// SubtitleStyle converts the subtitle section into a render style.
func (c *Config) SubtitleStyle() subtitle.Style {
	return subtitle.Style{
		Position:          subtitle.Position(c.Subtitles.Position),
		FontSize:          c.Subtitles.FontSize,
		FontColor:         c.Subtitles.FontColor,
		StrokeColor:       c.Subtitles.StrokeColor,
		StrokeWidth:       c.Subtitles.StrokeWidth,
		BackgroundColor:   c.Subtitles.BackgroundColor,
		BackgroundOpacity: c.Subtitles.BackgroundOpacity,
		MaxWidth:          c.Subtitles.MaxWidth,
		FontFile:          c.Subtitles.FontFile,
	}
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("SLIDE_NARRATOR_TTS_PROVIDER")); v != "" {
		c.Audio.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("SLIDE_NARRATOR_OUTPUT_DIR")); v != "" {
		c.Paths.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv("SLIDE_NARRATOR_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
