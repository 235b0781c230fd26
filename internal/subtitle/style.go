package subtitle

import (
	"fmt"
	"regexp"
	"sort"
)

// Position selects where the overlay is placed vertically.
type Position string

const (
	PositionTop    Position = "top"
	PositionCenter Position = "center"
	PositionBottom Position = "bottom"
)

// Style is the full set of overlay options. Unknown positions are accepted
// and placed at the bottom.
type Style struct {
	Position          Position
	FontSize          int
	FontColor         string
	StrokeColor       string
	StrokeWidth       int
	BackgroundColor   string // empty disables the box
	BackgroundOpacity float64
	MaxWidth          float64 // fraction of the frame width, 0..1
	FontFile          string  // empty uses the ffmpeg default font
}

// DefaultStyle returns white text with a black stroke at the bottom.
func DefaultStyle() Style {
	return Style{
		Position:          PositionBottom,
		FontSize:          36,
		FontColor:         "white",
		StrokeColor:       "black",
		StrokeWidth:       2,
		BackgroundOpacity: 0.7,
		MaxWidth:          0.8,
	}
}

var presets = map[string]Style{
	"default": DefaultStyle(),
	"top_position": {
		Position:          PositionTop,
		FontSize:          32,
		FontColor:         "white",
		StrokeColor:       "black",
		StrokeWidth:       2,
		BackgroundColor:   "black",
		BackgroundOpacity: 0.8,
		MaxWidth:          0.9,
	},
	"center_position": {
		Position:          PositionCenter,
		FontSize:          40,
		FontColor:         "yellow",
		StrokeColor:       "black",
		StrokeWidth:       3,
		BackgroundColor:   "black",
		BackgroundOpacity: 0.6,
		MaxWidth:          0.7,
	},
}

// Preset returns a named style.
func Preset(name string) (Style, error) {
	s, ok := presets[name]
	if !ok {
		return Style{}, fmt.Errorf("unknown subtitle preset: %s", name)
	}
	return s, nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var colorPattern = regexp.MustCompile(`^([A-Za-z]+|(#|0x)[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?)$`)

// Validate checks numeric ranges and color syntax.
func (s Style) Validate() error {
	if s.FontSize <= 0 {
		return fmt.Errorf("font size must be positive, got %d", s.FontSize)
	}
	if s.StrokeWidth < 0 {
		return fmt.Errorf("stroke width must be >= 0, got %d", s.StrokeWidth)
	}
	if s.MaxWidth <= 0 || s.MaxWidth > 1 {
		return fmt.Errorf("max width must be in (0, 1], got %v", s.MaxWidth)
	}
	if s.BackgroundOpacity < 0 || s.BackgroundOpacity > 1 {
		return fmt.Errorf("background opacity must be in [0, 1], got %v", s.BackgroundOpacity)
	}
	if !colorPattern.MatchString(s.FontColor) {
		return fmt.Errorf("invalid font color %q", s.FontColor)
	}
	if s.StrokeColor != "" && !colorPattern.MatchString(s.StrokeColor) {
		return fmt.Errorf("invalid stroke color %q", s.StrokeColor)
	}
	if s.BackgroundColor != "" && !colorPattern.MatchString(s.BackgroundColor) {
		return fmt.Errorf("invalid background color %q", s.BackgroundColor)
	}
	return nil
}

// placement returns drawtext x and y expressions. x is always centered.
func (p Position) placement() (x, y string) {
	const margin = "50"
	x = "(w-text_w)/2"
	switch p {
	case PositionTop:
		y = margin
	case PositionCenter:
		y = "(h-text_h)/2"
	default:
		y = "h-text_h-" + margin
	}
	return x, y
}
