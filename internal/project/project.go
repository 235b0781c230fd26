package project

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/ZacxDev/slide-narrator/pkg/types"
)

const (
	SlidesDirName  = "slides"
	AudioDirName   = "audio"
	VideoDirName   = "video"
	VideoFileName  = "final_video.mp4"
	ManifestName   = "manifest.json"
	audioNameFmt   = "audio_%03d"
	audioExtension = ".wav"
)

var (
	slidePattern = regexp.MustCompile(`slide_(\d+)`)
	digitsRun    = regexp.MustCompile(`\d{3}`)
)

// Project is the on-disk layout for one generated video:
//
//	<output>/<id>/slides/
//	<output>/<id>/audio/audio_NNN.wav
//	<output>/<id>/video/final_video.mp4
type Project struct {
	ID        string
	Root      string
	SlidesDir string
	AudioDir  string
	VideoDir  string

	audioNames map[string]int
}

// Scaffold creates the project directories. Any failure is fatal for the
// generation that requested it.
func Scaffold(outputRoot, id string) (*Project, error) {
	if id == "" {
		return nil, errors.New("empty project id")
	}
	root := filepath.Join(outputRoot, id)
	p := &Project{
		ID:         id,
		Root:       root,
		SlidesDir:  filepath.Join(root, SlidesDirName),
		AudioDir:   filepath.Join(root, AudioDirName),
		VideoDir:   filepath.Join(root, VideoDirName),
		audioNames: make(map[string]int),
	}
	for _, dir := range []string{p.SlidesDir, p.AudioDir, p.VideoDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", dir)
		}
	}
	return p, nil
}

// CopyScript copies the script source into the project root. A missing or
// empty path is skipped without error.
func (p *Project) CopyScript(scriptPath string) (string, error) {
	if scriptPath == "" {
		return "", nil
	}
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		return "", nil
	}
	dst := filepath.Join(p.Root, filepath.Base(scriptPath))
	if err := copyFile(scriptPath, dst); err != nil {
		return "", errors.Wrap(err, "copy script")
	}
	return dst, nil
}

// CopySlide copies a slide into slides/ unless a file with the same name is
// already there. On failure the original path is returned with the error so
// the caller can keep using it.
func (p *Project) CopySlide(slidePath string) (string, error) {
	dst := filepath.Join(p.SlidesDir, filepath.Base(slidePath))
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}
	if err := copyFile(slidePath, dst); err != nil {
		return slidePath, errors.Wrap(err, "copy slide")
	}
	return dst, nil
}

// AudioPath returns the narration path for a slide reference, numbered by
// SlideNumber. A reference seen earlier in the same project gets a
// "_<n>" suffix so narration for repeated slides is not overwritten.
func (p *Project) AudioPath(slideRef string) string {
	base := fmt.Sprintf(audioNameFmt, SlideNumber(slideRef))
	p.audioNames[base]++
	if n := p.audioNames[base]; n > 1 {
		base = fmt.Sprintf("%s_%d", base, n)
	}
	return filepath.Join(p.AudioDir, base+audioExtension)
}

// VideoPath returns the final video location.
func (p *Project) VideoPath() string {
	return filepath.Join(p.VideoDir, VideoFileName)
}

// SlideNumber extracts the slide index from names like "slide_001.png",
// "<uuid>_slide_012.png" or "007.png". It returns 1 when no number is found.
func SlideNumber(ref string) int {
	name := filepath.Base(ref)
	if m := slidePattern.FindStringSubmatch(name); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := digitsRun.FindString(name); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 1
}

// Manifest records how a project's video was produced.
type Manifest struct {
	CreatedAt time.Time `json:"created_at"`
	Quality   string    `json:"quality"`
	Provider  string    `json:"provider"`
	Subtitles bool      `json:"subtitles"`
	Script    string    `json:"script,omitempty"`
	types.VideoResult
}

// WriteManifest writes manifest.json into the project root.
func (p *Project) WriteManifest(m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}
	path := filepath.Join(p.Root, ManifestName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", errors.Wrap(err, "write manifest")
	}
	return path, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
