// Package transcript holds the pure text side of the pipeline: timestamp
// formatting, transcript assembly, cursor-based timestamp insertion and
// artifact naming. Nothing here touches the filesystem or the network.
package transcript

import (
	"fmt"
	"math"
	"strings"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
)

// FormatTimestamp renders whole seconds as zero-padded "mm:ss".
// 65 -> "01:05", 0 -> "00:00".
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FromTimedText converts the model's raw pairs into display entries,
// preserving order.
func FromTimedText(raw []entity.TimedText) []entity.Transcription {
	entries := make([]entity.Transcription, 0, len(raw))
	for _, tt := range raw {
		entries = append(entries, entity.Transcription{
			Timestamp: FormatTimestamp(tt.TimestampSeconds),
			Text:      tt.Text,
		})
	}
	return entries
}

// Format concatenates "timestamp text" lines followed by a trailing
// "clip length mm:ss" line. An empty entry list yields only the clip-length
// line. Pure and idempotent.
func Format(entries []entity.Transcription, durationSecs float64) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Timestamp)
		b.WriteString(" ")
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
	b.WriteString("clip length ")
	b.WriteString(FormatTimestamp(int(math.Floor(durationSecs))))
	return b.String()
}
