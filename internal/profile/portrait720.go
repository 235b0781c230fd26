package profile

type Portrait720 struct{}

func init() {
	Register(&Portrait720{})
}

func (p *Portrait720) GetName() string {
	return "720p"
}

// Slides come from portrait PDF pages, so the frame is vertical.
func (p *Portrait720) GetDimensions() (width, height int) {
	return 720, 1280
}

func (p *Portrait720) GetFrameRate() int {
	return 24
}

func (p *Portrait720) GetVideoCodec() string {
	return "libx264"
}

func (p *Portrait720) GetAudioCodec() string {
	return "aac"
}

func (p *Portrait720) GetAudioBitrate() string {
	return "128k"
}

func (p *Portrait720) GetPreset() string {
	return "medium"
}

func (p *Portrait720) GetCRF() int {
	return 23
}
