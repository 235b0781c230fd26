package profile

type Portrait1080 struct{}

func init() {
	Register(&Portrait1080{})
}

func (p *Portrait1080) GetName() string {
	return "1080p"
}

func (p *Portrait1080) GetDimensions() (width, height int) {
	return 1080, 1920
}

func (p *Portrait1080) GetFrameRate() int {
	return 24
}

func (p *Portrait1080) GetVideoCodec() string {
	return "libx264"
}

func (p *Portrait1080) GetAudioCodec() string {
	return "aac"
}

func (p *Portrait1080) GetAudioBitrate() string {
	return "192k"
}

func (p *Portrait1080) GetPreset() string {
	return "medium"
}

func (p *Portrait1080) GetCRF() int {
	return 20
}
