package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
		srt  string
	}{
		{0, "00:00:00.000", "00:00:00,000"},
		{1500 * time.Millisecond, "00:00:01.500", "00:00:01,500"},
		{time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond, "01:02:03.045", "01:02:03,045"},
		{-time.Second, "00:00:00.000", "00:00:00,000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
		assert.Equal(t, tt.srt, FormatSRTTimestamp(tt.in))
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"45.5", 45500 * time.Millisecond, false},
		{"01:05.250", 65250 * time.Millisecond, false},
		{"00:05:46,345", 346345 * time.Millisecond, false},
		{"01:00:00.001", time.Hour + time.Millisecond, false},
		{"", 0, true},
		{"aa:bb", 0, true},
		{"1:2:3:4", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseTimestampRoundTrip(t *testing.T) {
	d := 2*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond
	got, err := ParseTimestamp(FormatSRTTimestamp(d))
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestParseMillis(t *testing.T) {
	got, err := ParseMillis("14000, 130000,,338000.5")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		14 * time.Second,
		130 * time.Second,
		338000500 * time.Microsecond,
	}, got)

	_, err = ParseMillis("12,abc")
	assert.Error(t, err)
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 29.97, ParseFrameRate("30000/1001"), 0.01)
	assert.Equal(t, 25.0, ParseFrameRate("25/1"))
	assert.Equal(t, 0.0, ParseFrameRate("25"))
	assert.Equal(t, 0.0, ParseFrameRate("25/0"))
}

func TestGetExtension(t *testing.T) {
	assert.Equal(t, "srt", GetExtension("/tmp/Lecture.SRT"))
	assert.Equal(t, "vtt", GetExtension("a.b.vtt"))
	assert.Equal(t, "", GetExtension("noext"))
}
