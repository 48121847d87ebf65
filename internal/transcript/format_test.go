package transcript

import (
	"fmt"
	"strings"
	"testing"

	"github.com/clipscribe/clipscribe-processing-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{59, "00:59"},
		{60, "01:00"},
		{65, "01:05"},
		{130, "02:10"},
		{3599, "59:59"},
		{-3, "00:00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatTimestamp(tc.seconds), "seconds=%d", tc.seconds)
	}
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	for s := 0; s <= 3599; s += 7 {
		got := FormatTimestamp(s)
		var mm, ss int
		_, err := fmt.Sscanf(got, "%02d:%02d", &mm, &ss)
		require.NoError(t, err, "parse %q", got)
		assert.Equal(t, s, mm*60+ss, "round trip for %d", s)
	}
}

func TestFormat_EmptyEntries(t *testing.T) {
	got := Format(nil, 130)
	assert.Equal(t, "clip length 02:10", got)
	assert.Equal(t, 1, len(strings.Split(got, "\n")))
}

func TestFormat_Idempotent(t *testing.T) {
	entries := []entity.Transcription{
		{Timestamp: "00:00", Text: "HELLO"},
		{Timestamp: "00:04", Text: "WORLD"},
	}
	first := Format(entries, 130)
	second := Format(entries, 130)
	assert.Equal(t, first, second)
}

func TestFormat_Scenario(t *testing.T) {
	raw := []entity.TimedText{
		{TimestampSeconds: 0, Text: "HELLO"},
		{TimestampSeconds: 4, Text: "WORLD"},
	}
	got := Format(FromTimedText(raw), 130)
	assert.Equal(t, "00:00 HELLO\n00:04 WORLD\nclip length 02:10", got)
}

func TestFromTimedText_PreservesOrder(t *testing.T) {
	raw := []entity.TimedText{
		{TimestampSeconds: 2, Text: "b"},
		{TimestampSeconds: 0, Text: "a"},
	}
	entries := FromTimedText(raw)
	require.Len(t, entries, 2)
	assert.Equal(t, "00:02", entries[0].Timestamp)
	assert.Equal(t, "00:00", entries[1].Timestamp)
}
