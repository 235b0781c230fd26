package profile

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Profile defines the fixed encoding parameters for one output quality
type Profile interface {
	// GetName returns the quality tag, e.g. "720p"
	GetName() string

	// GetDimensions returns the exact output frame size
	GetDimensions() (width, height int)

	// GetFrameRate returns the output frame rate
	GetFrameRate() int

	// GetVideoCodec returns the video encoder name
	GetVideoCodec() string

	// GetAudioCodec returns the audio encoder name
	GetAudioCodec() string

	// GetAudioBitrate returns the audio bitrate
	GetAudioBitrate() string

	// GetPreset returns the encoder speed preset
	GetPreset() string

	// GetCRF returns the constant rate factor for the video encoder
	GetCRF() int
}

// DefaultName is the quality used when none is requested.
const DefaultName = "720p"

var profiles = make(map[string]Profile)

// Register adds a profile to the registry
func Register(p Profile) {
	profiles[p.GetName()] = p
}

// Get returns a profile by quality tag. An empty tag selects DefaultName.
func Get(name string) (Profile, error) {
	if name == "" {
		name = DefaultName
	}
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unsupported video quality: %s", name)
	}
	return p, nil
}

// GetSupportedQualities returns the registered quality tags in sorted order
func GetSupportedQualities() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
