package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ZacxDev/slide-narrator/internal/config"
	"github.com/ZacxDev/slide-narrator/internal/logging"
	"github.com/ZacxDev/slide-narrator/internal/processor"
	"github.com/ZacxDev/slide-narrator/internal/script"
	"github.com/ZacxDev/slide-narrator/internal/subtitle"
	"github.com/ZacxDev/slide-narrator/pkg/types"
	"github.com/ZacxDev/slide-narrator/pkg/videoprocessor"
)

var (
	rootCmd = &cobra.Command{
		Use:   "slide-narrator",
		Short: "Turn slides and a narration script into a narrated video",
		Long: `slide-narrator is a command-line tool for producing narrated slide videos.
It synthesizes speech for each script segment, pairs it with a slide image,
optionally burns in subtitles and concatenates everything into one MP4.

Examples:
  # Generate a video from a marker script and a PDF deck
  slide-narrator generate --script lecture.txt --pdf deck.pdf

  # Preview how a script will be split into segments
  slide-narrator parse-script lecture.txt`,
		SilenceUsage: true,
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a narrated video",
		Long: fmt.Sprintf(`Generate a narrated video from a script and slides.

Supported qualities:
%s
Subtitle presets:
%s
Example:
  slide-narrator generate --script lecture.txt --pdf deck.pdf --quality 1080p --subtitles`,
			formatList(videoprocessor.GetSupportedQualities()),
			formatList(videoprocessor.GetSubtitlePresets())),
		RunE: runGenerate,
	}

	parseScriptCmd = &cobra.Command{
		Use:   "parse-script FILE",
		Short: "Show the segments parsed from a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segments, err := videoprocessor.LoadScript(args[0])
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return printJSON(segments)
			}
			printSegments(segments)
			return nil
		},
	}

	rasterizeCmd = &cobra.Command{
		Use:   "rasterize FILE",
		Short: "Render PDF pages into the slide staging directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dpi") {
				cfg.Rasterize.DPI, _ = cmd.Flags().GetInt("dpi")
			}
			res, err := videoprocessor.RasterizePDF(cmd.Context(), cfg, args[0], logger)
			if err != nil {
				return err
			}
			fmt.Printf("PDF ID: %s\n", res.PDFID)
			for _, name := range res.Slides {
				fmt.Println(name)
			}
			return nil
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List previously generated videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			entries, err := videoprocessor.ListHistory(cmd.Context(), cfg, limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Video", "Quality", "Provider", "Segments", "Duration", "Created", "Output"})
			for _, e := range entries {
				t.AppendRow(table.Row{
					e.ID,
					e.VideoID,
					e.Quality,
					e.Provider,
					e.Segments,
					fmt.Sprintf("%.1fs / %ds", e.TrueDuration, e.NominalDuration),
					e.CreatedAt.Local().Format(time.DateTime),
					e.OutputPath,
				})
			}
			t.Render()
			return nil
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	configInitCmd = &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Printf("Wrote sample configuration to %s\n", path)
			return nil
		},
	}
)

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	scriptPath, _ := cmd.Flags().GetString("script")
	pdfPath, _ := cmd.Flags().GetString("pdf")
	slideList, _ := cmd.Flags().GetStringSlice("slides")
	quality, _ := cmd.Flags().GetString("quality")
	withSubtitles, _ := cmd.Flags().GetBool("subtitles")
	position, _ := cmd.Flags().GetString("subtitle-position")
	preset, _ := cmd.Flags().GetString("subtitle-preset")
	voice, _ := cmd.Flags().GetString("voice")
	videoID, _ := cmd.Flags().GetString("id")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if pdfPath != "" && len(slideList) > 0 {
		return fmt.Errorf("--pdf and --slides are mutually exclusive")
	}

	segments, err := videoprocessor.LoadScript(scriptPath)
	if err != nil {
		return err
	}

	style := cfg.SubtitleStyle()
	if preset != "" {
		if style, err = subtitle.Preset(preset); err != nil {
			return err
		}
	}
	if position != "" {
		style.Position = subtitle.Position(position)
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := videoprocessor.GenerateVideo(ctx, videoprocessor.GenerateOptions{
		Config:     cfg,
		ScriptPath: scriptPath,
		Segments:   segments,
		PDFPath:    pdfPath,
		Slides:     slideList,
		Quality:    quality,
		Subtitles:  withSubtitles,
		Style:      &style,
		Voice:      voice,
		VideoID:    videoID,
		Logger:     logger,
		Progress:   newProgress(len(segments)),
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nVideo: %s\n", result.OutputPath)
	fmt.Printf("Duration: %.2fs (script: %ds)\n", result.TrueDuration, result.NominalDuration)
	printReport(result.Segments)
	return nil
}

// setup loads configuration and builds the logger shared by all commands.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: os.Stderr,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newProgress(segments int) processor.ProgressReporter {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return progressbar.NewOptions(segments,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Processing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func printSegments(segments []types.ScriptSegment) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Slide", "Duration", "Text"})
	for i, s := range segments {
		t.AppendRow(table.Row{i + 1, s.Slide, fmt.Sprintf("%ds", s.Duration), truncate(s.Text, 60)})
	}
	t.AppendFooter(table.Row{"", "Total", fmt.Sprintf("%ds", script.TotalDuration(segments)), ""})
	t.Render()
}

func printReport(reports []types.SegmentReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Slide", "Script", "Actual", "Narrated", "Subtitled"})
	for _, r := range reports {
		t.AppendRow(table.Row{
			r.Index,
			r.Slide,
			fmt.Sprintf("%ds", r.NominalDuration),
			fmt.Sprintf("%.2fs", r.Duration),
			r.Narrated,
			r.Subtitled,
		})
	}
	t.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatList(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("- %s\n", item))
	}
	return sb.String()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default "+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Generate command flags
	generateCmd.Flags().StringP("script", "s", "", "Script file ([MM:SS] markers or JSON segments)")
	generateCmd.Flags().String("pdf", "", "PDF deck to rasterize into slides")
	generateCmd.Flags().StringSlice("slides", nil, "Ordered slide files or URLs")
	generateCmd.Flags().StringP("quality", "q", "",
		fmt.Sprintf("Output quality (%s)", strings.Join(videoprocessor.GetSupportedQualities(), ", ")))
	generateCmd.Flags().Bool("subtitles", false, "Burn narration subtitles into the video")
	generateCmd.Flags().String("subtitle-position", "", "Subtitle position (top, center, bottom)")
	generateCmd.Flags().String("subtitle-preset", "",
		fmt.Sprintf("Subtitle preset (%s)", strings.Join(videoprocessor.GetSubtitlePresets(), ", ")))
	generateCmd.Flags().String("voice", "", "Voice tag passed to the speech provider")
	generateCmd.Flags().String("id", "", "Video id (generated when empty)")
	generateCmd.Flags().Duration("timeout", time.Hour, "Maximum time for the whole generation")

	generateCmd.MarkFlagRequired("script")

	parseScriptCmd.Flags().Bool("json", false, "Print segments as JSON")

	rasterizeCmd.Flags().Int("dpi", config.DefaultDPI, "Rasterization resolution")

	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show (0 for all)")

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(parseScriptCmd)
	rootCmd.AddCommand(rasterizeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
