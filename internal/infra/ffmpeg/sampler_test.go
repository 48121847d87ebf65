package ffmpeg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplePlan_CountAndBounds(t *testing.T) {
	cases := []struct {
		duration float64
		interval int
		want     int
	}{
		{130, 2, 66},
		{0, 2, 1},
		{1.5, 2, 1},
		{2, 2, 2},
		{3.9, 2, 2},
		{4, 2, 3},
		{10, 5, 3},
	}
	for _, tc := range cases {
		offsets := SamplePlan(tc.duration, tc.interval)
		assert.Len(t, offsets, tc.want, "duration=%.1f interval=%d", tc.duration, tc.interval)
	}
}

func TestSamplePlan_Properties(t *testing.T) {
	for _, duration := range []float64{0, 0.5, 1, 2, 7.3, 59.9, 130, 601.2} {
		for _, interval := range []int{1, 2, 5} {
			offsets := SamplePlan(duration, interval)
			require.NotEmpty(t, offsets, "duration=%.1f interval=%d", duration, interval)

			upper := int(math.Ceil(duration/float64(interval))) + 1
			assert.LessOrEqual(t, len(offsets), upper, "duration=%.1f interval=%d", duration, interval)

			prev := -1
			for _, at := range offsets {
				assert.Greater(t, at, prev, "offsets must strictly increase")
				assert.LessOrEqual(t, float64(at), duration, "offset must not exceed duration")
				prev = at
			}
		}
	}
}

func TestSamplePlan_Invalid(t *testing.T) {
	assert.Nil(t, SamplePlan(10, 0))
	assert.Nil(t, SamplePlan(10, -1))
	assert.Nil(t, SamplePlan(-1, 2))
}

func TestDrawTimestampFilter_EscapesColon(t *testing.T) {
	got := drawTimestampFilter("01:05")
	assert.Contains(t, got, `text='01\:05'`)
	assert.Contains(t, got, "drawtext=")
}
