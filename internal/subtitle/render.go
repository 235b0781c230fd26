package subtitle

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/ZacxDev/slide-narrator/internal/logging"
)

// Placeholder is drawn by the minimal tier in place of the real text.
const Placeholder = "subtitle unavailable"

// Overlay is a rendered subtitle ready to be drawn over one segment.
type Overlay struct {
	Tier     string
	Lines    []string
	TextFile string
	Duration float64
	// DrawText holds the ffmpeg drawtext options.
	DrawText map[string]any
}

// Close removes the overlay's text file.
func (o *Overlay) Close() error {
	if o == nil || o.TextFile == "" {
		return nil
	}
	if err := os.Remove(o.TextFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type tier struct {
	name   string
	render func(r *Renderer, text string, duration float64, style Style) (*Overlay, error)
}

// Renderer builds overlays, falling through progressively simpler tiers.
type Renderer struct {
	workDir string
	logger  *slog.Logger
	tiers   []tier
}

// NewRenderer returns a renderer that writes text files into workDir.
func NewRenderer(workDir string, logger *slog.Logger) *Renderer {
	return &Renderer{
		workDir: workDir,
		logger:  logging.OrNop(logger),
		tiers: []tier{
			{name: "full", render: (*Renderer).renderFull},
			{name: "reduced", render: (*Renderer).renderReduced},
			{name: "minimal", render: (*Renderer).renderMinimal},
		},
	}
}

// Render returns an overlay lasting duration seconds, or nil when every tier
// failed. A nil result means the segment has no subtitles.
func (r *Renderer) Render(text string, duration float64, style Style) *Overlay {
	for _, t := range r.tiers {
		ov, err := t.render(r, text, duration, style)
		if err == nil {
			ov.Tier = t.name
			return ov
		}
		r.logger.Warn("subtitle tier failed",
			slog.String("tier", t.name),
			slog.String("error", err.Error()))
	}
	r.logger.Warn("subtitles unavailable for segment")
	return nil
}

func (r *Renderer) renderFull(text string, duration float64, style Style) (*Overlay, error) {
	if err := style.Validate(); err != nil {
		return nil, errors.Wrap(err, "style")
	}
	if style.FontFile != "" {
		if _, err := os.Stat(style.FontFile); err != nil {
			return nil, errors.Wrap(err, "font file")
		}
	}
	lines := Wrap(text, LineBudget(style.MaxWidth))
	ov, err := r.newOverlay(lines, duration, style.Position, style.FontSize, style.FontColor)
	if err != nil {
		return nil, err
	}
	if style.FontFile != "" {
		ov.DrawText["fontfile"] = style.FontFile
	}
	if style.StrokeColor != "" && style.StrokeWidth > 0 {
		ov.DrawText["bordercolor"] = style.StrokeColor
		ov.DrawText["borderw"] = style.StrokeWidth
	}
	if style.BackgroundColor != "" {
		ov.DrawText["box"] = 1
		ov.DrawText["boxcolor"] = fmt.Sprintf("%s@%.2f", style.BackgroundColor, style.BackgroundOpacity)
		ov.DrawText["boxborderw"] = 10
	}
	return ov, nil
}

func (r *Renderer) renderReduced(text string, duration float64, style Style) (*Overlay, error) {
	fontSize := style.FontSize
	if fontSize <= 0 {
		fontSize = DefaultStyle().FontSize
	}
	color := style.FontColor
	if !colorPattern.MatchString(color) {
		color = DefaultStyle().FontColor
	}
	maxWidth := style.MaxWidth
	if maxWidth <= 0 || maxWidth > 1 {
		maxWidth = DefaultStyle().MaxWidth
	}
	return r.newOverlay(Wrap(text, LineBudget(maxWidth)), duration, style.Position, fontSize, color)
}

func (r *Renderer) renderMinimal(_ string, duration float64, _ Style) (*Overlay, error) {
	return r.newOverlay([]string{Placeholder}, duration, PositionBottom, 24, "white")
}

func (r *Renderer) newOverlay(lines []string, duration float64, pos Position, fontSize int, color string) (*Overlay, error) {
	if len(lines) == 0 {
		return nil, errors.New("no subtitle text")
	}
	if duration <= 0 {
		return nil, errors.Errorf("invalid overlay duration %.3f", duration)
	}

	f, err := os.CreateTemp(r.workDir, "subtitle_*.txt")
	if err != nil {
		return nil, errors.Wrap(err, "create subtitle text file")
	}
	_, werr := f.WriteString(strings.Join(lines, "\n"))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(f.Name())
		if werr == nil {
			werr = cerr
		}
		return nil, errors.Wrap(werr, "write subtitle text file")
	}

	x, y := pos.placement()
	return &Overlay{
		Lines:    lines,
		TextFile: f.Name(),
		Duration: duration,
		DrawText: map[string]any{
			"textfile":     f.Name(),
			"expansion":    "none",
			"fontsize":     fontSize,
			"fontcolor":    color,
			"line_spacing": 8,
			"x":            x,
			"y":            y,
			"enable":       fmt.Sprintf("between(t,0,%.3f)", duration),
		},
	}, nil
}
