package types

// ScriptSegment is one narrated unit of a script. Duration is the nominal
// (script-declared) length in whole seconds.
type ScriptSegment struct {
	Text     string `json:"text"`
	Duration int    `json:"duration"`
	Slide    string `json:"slide"`
}

// SegmentReport describes how one segment ended up in the final video.
type SegmentReport struct {
	Index           int     `json:"index"`
	Slide           string  `json:"slide"`
	Audio           string  `json:"audio,omitempty"`
	NominalDuration int     `json:"nominal_duration"`
	Duration        float64 `json:"duration"`
	Narrated        bool    `json:"narrated"`
	Subtitled       bool    `json:"subtitled"`
}

// VideoResult is the outcome of one generation. TrueDuration is the sum of
// the measured segment durations and is the authoritative length;
// NominalDuration is what the script asked for.
type VideoResult struct {
	VideoID         string          `json:"video_id"`
	OutputPath      string          `json:"output_path"`
	TrueDuration    float64         `json:"true_duration"`
	NominalDuration int             `json:"nominal_duration"`
	Segments        []SegmentReport `json:"segments"`
}
