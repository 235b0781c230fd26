package slides

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	minWidth    = 800
	minHeight   = 600
	whiteLevel  = 240
	blankRatio  = 0.95
	sampleLimit = 250_000
)

// Info describes a decodable slide image.
type Info struct {
	Width    int
	Height   int
	Format   string
	Warnings []string
}

// Probe checks that path decodes as a supported image and returns its size.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, errors.Errorf("image %s has zero size", path)
	}
	return &Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Inspect probes path and adds quality warnings for low resolution or mostly
// blank slides. Warnings never fail the slide.
func Inspect(path string) (*Info, error) {
	info, err := Probe(path)
	if err != nil {
		return nil, err
	}
	if info.Width < minWidth || info.Height < minHeight {
		info.Warnings = append(info.Warnings,
			fmt.Sprintf("low resolution: %dx%d", info.Width, info.Height))
	}

	f, err := os.Open(path)
	if err != nil {
		return info, nil
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return info, nil
	}
	if whiteFraction(img) > blankRatio {
		info.Warnings = append(info.Warnings, "appears to be mostly blank")
	}
	return info, nil
}

func whiteFraction(img image.Image) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	step := 1
	for total/(step*step) > sampleLimit {
		step++
	}

	var white, seen int
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			// ITU-R 601 luma on 8-bit values
			l := (299*(r>>8) + 587*(g>>8) + 114*(bl>>8)) / 1000
			if l > whiteLevel {
				white++
			}
			seen++
		}
	}
	return float64(white) / float64(seen)
}
