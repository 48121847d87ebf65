package transcript

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// BaseName strips the directory and extension from a video key and
// sanitizes the remainder for use in artifact names.
func BaseName(videoKey string) string {
	base := filepath.Base(videoKey)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return sanitizeName(base, 80)
}

// TranscriptName names the transcript artifact after the video and its
// duration, e.g. "demo_02-10.txt".
func TranscriptName(videoKey string, durationSecs float64) string {
	return fmt.Sprintf("%s_%s.txt", BaseName(videoKey), dashed(int(durationSecs)))
}

// CaptureName names a frame capture after the video and the capture offset.
func CaptureName(videoKey string, atSecond int) string {
	return fmt.Sprintf("%s_%s.png", BaseName(videoKey), dashed(atSecond))
}

// EditedName names an AI-edited frame after the video and the capture offset.
func EditedName(videoKey string, atSecond int) string {
	return fmt.Sprintf("%s_%s_edited.png", BaseName(videoKey), dashed(atSecond))
}

// dashed is FormatTimestamp with a dash, since colons make poor object keys.
func dashed(seconds int) string {
	return strings.ReplaceAll(FormatTimestamp(seconds), ":", "-")
}

func sanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		cleaned = "clip"
	}
	runes := []rune(cleaned)
	if maxLen > 0 && len(runes) > maxLen {
		cleaned = string(runes[:maxLen])
	}
	return cleaned
}
