package pipeline

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/pkg/ai"
)

// FormatTranscript renders segments as "[MM:SS] text" lines.
// Segments with blank text are dropped; without segments the plain text is used.
func FormatTranscript(t *ai.Transcription) string {
	if len(t.Segments) == 0 {
		return strings.TrimSpace(t.Text)
	}
	lines := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", formatTimestamp(seg.Start), text))
	}
	return strings.Join(lines, "\n")
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// DurationMinutes is the floor of the last segment end in minutes,
// falling back to the provider-reported duration.
func DurationMinutes(t *ai.Transcription) int {
	if n := len(t.Segments); n > 0 {
		return int(t.Segments[n-1].End / 60)
	}
	return int(t.DurationSeconds / 60)
}

func toEntitySegments(segs []ai.Segment) []entities.TranscriptSegment {
	out := make([]entities.TranscriptSegment, 0, len(segs))
	for _, s := range segs {
		out = append(out, entities.TranscriptSegment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return out
}
