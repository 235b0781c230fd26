package script

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/ZacxDev/slide-narrator/pkg/types"
)

const (
	// MinDuration is the shortest nominal duration derived from markers
	MinDuration = 5

	// LastDuration is the nominal duration of the final marked segment
	LastDuration = 20
)

var marker = regexp.MustCompile(`\[(\d{2}):(\d{2})\]`)

// SlideName returns the generic slide reference for a 1-based position.
func SlideName(n int) string {
	return fmt.Sprintf("slide_%03d.png", n)
}

// Parse splits text on [MM:SS] markers. Each non-empty section becomes a
// segment lasting until the next marker (at least MinDuration seconds); the
// last one lasts LastDuration seconds. Slides are numbered by segment order.
// Text before the first marker is ignored.
func Parse(text string) []types.ScriptSegment {
	text = norm.NFC.String(text)
	locs := marker.FindAllStringSubmatchIndex(text, -1)

	var segments []types.ScriptSegment
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[1]:end])
		if body == "" {
			continue
		}

		duration := LastDuration
		if i+1 < len(locs) {
			next := locs[i+1]
			duration = max(seconds(text, next)-seconds(text, loc), MinDuration)
		}

		segments = append(segments, types.ScriptSegment{
			Text:     body,
			Duration: duration,
			Slide:    SlideName(len(segments) + 1),
		})
	}
	return segments
}

func seconds(text string, loc []int) int {
	m, _ := strconv.Atoi(text[loc[2]:loc[3]])
	s, _ := strconv.Atoi(text[loc[4]:loc[5]])
	return m*60 + s
}

// LoadJSON decodes a list of {"text","duration","slide"} objects. Missing
// slide names default to the generic name for the segment's position.
func LoadJSON(r io.Reader) ([]types.ScriptSegment, error) {
	var segments []types.ScriptSegment
	if err := json.NewDecoder(r).Decode(&segments); err != nil {
		return nil, errors.Wrap(err, "decode script json")
	}
	for i := range segments {
		seg := &segments[i]
		seg.Text = norm.NFC.String(strings.TrimSpace(seg.Text))
		if seg.Duration <= 0 {
			return nil, errors.Errorf("segment %d: duration must be positive, got %d", i+1, seg.Duration)
		}
		if seg.Slide == "" {
			seg.Slide = SlideName(i + 1)
		}
	}
	return segments, nil
}

// Load reads a script file, choosing the JSON loader for .json files and the
// marker parser otherwise.
func Load(path string) ([]types.ScriptSegment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(f)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return Parse(string(data)), nil
}

// TotalDuration sums the nominal durations.
func TotalDuration(segments []types.ScriptSegment) int {
	total := 0
	for _, s := range segments {
		total += s.Duration
	}
	return total
}
