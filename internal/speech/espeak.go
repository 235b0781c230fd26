package speech

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

var commandContext = exec.CommandContext

// Espeak synthesizes WAV speech with the espeak-ng command line tool.
type Espeak struct {
	binary   string
	language string
}

// NewEspeak returns an espeak provider using binary (default "espeak-ng").
func NewEspeak(binary, language string) *Espeak {
	if binary == "" {
		binary = "espeak-ng"
	}
	if language == "" {
		language = "en"
	}
	return &Espeak{binary: binary, language: language}
}

func (e *Espeak) GetName() string { return "espeak" }

// Extension differs from the decoded ".wav" so the native output never
// collides with the final narration file.
func (e *Espeak) Extension() string { return ".espeak.wav" }

func (e *Espeak) Synthesize(ctx context.Context, text, voice, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("no text to synthesize")
	}
	var stderr bytes.Buffer
	cmd := commandContext(ctx, e.binary, "-v", e.voiceName(voice), "-w", outPath, "--", text)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "espeak-ng: %s", strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (e *Espeak) voiceName(voice string) string {
	switch strings.ToLower(voice) {
	case "", "female":
		return e.language + "+f3"
	case "male":
		return e.language + "+m3"
	default:
		return voice
	}
}
