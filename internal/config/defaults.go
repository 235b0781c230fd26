package config

const (
	// DefaultSampleRate is the decoded narration sample rate in Hz
	DefaultSampleRate = 22050

	// DefaultSettleDelayMS is the pause between provider output and transcoding
	DefaultSettleDelayMS = 300

	// DefaultDPI is the rasterization resolution for PDF pages
	DefaultDPI = 75

	// DefaultRequestTimeout is the per-request timeout for network providers, in seconds
	DefaultRequestTimeout = 30
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:     "input",
			OutputDir:    "output",
			StagingDir:   "temp",
			PublishedDir: "output",
			TempDir:      "tmp",
			HistoryDB:    "output/history.db",
		},
		Video: Video{
			Quality:    "720p",
			FFmpegPath: "ffmpeg",
		},
		Audio: Audio{
			Provider:       "gtts",
			Voice:          "female",
			Language:       "en",
			SampleRate:     DefaultSampleRate,
			SettleDelayMS:  DefaultSettleDelayMS,
			EspeakPath:     "espeak-ng",
			RequestTimeout: DefaultRequestTimeout,
		},
		Subtitles: Subtitles{
			Enabled:           false,
			Position:          "bottom",
			FontSize:          36,
			FontColor:         "white",
			StrokeColor:       "black",
			StrokeWidth:       2,
			BackgroundOpacity: 0.7,
			MaxWidth:          0.8,
		},
		Rasterize: Rasterize{
			DPI:          DefaultDPI,
			PdftoppmPath: "pdftoppm",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
