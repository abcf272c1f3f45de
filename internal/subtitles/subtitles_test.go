package subtitles

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lectureParts = []Part{
	{Start: 0, End: 4 * time.Second, Text: "Welcome to the lecture."},
	{Start: 4 * time.Second, End: 9500 * time.Millisecond, Text: "Today we cover scene detection."},
	{Start: 9500 * time.Millisecond, End: 15 * time.Second, Text: "Questions & answers come last."},
}

func TestParseFixtures(t *testing.T) {
	tests := []struct {
		file   string
		format Format
	}{
		{"lecture.srt", FormatSRT},
		{"lecture.vtt", FormatVTT},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			parts, format, err := ParseFile(filepath.Join("testdata", tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, lectureParts, parts)
			assert.NoError(t, Validate(parts))
		})
	}
}

func TestParseSRTWithoutIndexesSortsCues(t *testing.T) {
	input := "00:00:05,000 --> 00:00:08,000\nsecond\n\n\n00:00:01,000 --> 00:00:05,000\nfirst\nline\n"

	parts, err := ParseSRT(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "first line", parts[0].Text)
	assert.Equal(t, time.Second, parts[0].Start)
	assert.Equal(t, "second", parts[1].Text)
}

func TestParseErrors(t *testing.T) {
	_, err := ParseSRT(strings.NewReader("1\nxx --> 00:00:01,000\nhello\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = ParseSRT(strings.NewReader("1\n00:00:01,000 -->\nhello\n"))
	assert.Error(t, err)

	_, err = ParseVTT(strings.NewReader("00:00.000 --> 00:01.000\nhello\n"))
	assert.ErrorContains(t, err, "WEBVTT")
}

func TestParseEmpty(t *testing.T) {
	parts, err := ParseSRT(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatSRT, Detect("talk.SRT"))
	assert.Equal(t, FormatVTT, Detect("/a/b/talk.vtt"))
	assert.Equal(t, FormatUnknown, Detect("talk.txt"))
}

func TestParseFileSniffsWebVTT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions")
	require.NoError(t, os.WriteFile(path, []byte("WEBVTT\n\n00:01.000 --> 00:02.000\nhi.\n"), 0644))

	parts, format, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatVTT, format)
	require.Len(t, parts, 1)
	assert.Equal(t, 2*time.Second, parts[0].End)
}

func TestValidate(t *testing.T) {
	bad := []Part{
		{Start: 0, End: 2 * time.Second, Text: "a"},
		{Start: time.Second, End: time.Second, Text: "b"},
	}
	err := Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "part 1 ends")
	assert.Contains(t, err.Error(), "before part 0 ends")

	gap := []Part{
		{Start: 0, End: time.Second},
		{Start: 3 * time.Second, End: 4 * time.Second},
	}
	assert.NoError(t, Validate(gap))
	assert.Equal(t, 4*time.Second, TotalDuration(gap))
	assert.Equal(t, time.Duration(0), TotalDuration(nil))
}

func TestWriteSRT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSRT(&buf, lectureParts[:2]))

	want := "1\n00:00:00,000 --> 00:00:04,000\nWelcome to the lecture.\n\n" +
		"2\n00:00:04,000 --> 00:00:09,500\nToday we cover scene detection.\n"
	assert.Equal(t, want, buf.String())

	parsed, err := ParseSRT(&buf)
	require.NoError(t, err)
	assert.Equal(t, lectureParts[:2], parsed)
}

func TestWriteVTT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVTT(&buf, lectureParts[2:]))
	assert.Equal(t, "WEBVTT\n\n00:00:09.500 --> 00:00:15.000\nQuestions & answers come last.\n", buf.String())

	assert.ErrorIs(t, Write(&buf, lectureParts, "ass"), ErrUnsupportedFormat)
}

func TestConvertSRTToVTT(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "lecture.vtt")

	n, err := ConvertSRTToVTT(filepath.Join("testdata", "lecture.srt"), out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	parts, format, err := ParseFile(out)
	require.NoError(t, err)
	assert.Equal(t, FormatVTT, format)
	assert.Equal(t, lectureParts, parts)

	_, err = ConvertSRTToVTT(filepath.Join("testdata", "lecture.srt"), filepath.Join(t.TempDir(), "out.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ConvertSRTToVTT(filepath.Join("testdata", "lecture.vtt"), out)
	assert.Error(t, err)
}

func TestPartDurationDrivesValidate(t *testing.T) {
	p := Part{Start: 2 * time.Second, End: 3500 * time.Millisecond, Text: "Hi."}
	assert.Equal(t, 1500*time.Millisecond, p.Duration())

	zero := Part{Start: 2 * time.Second, End: 2 * time.Second, Text: "Hi."}
	assert.Equal(t, time.Duration(0), zero.Duration())
	assert.ErrorContains(t, Validate([]Part{zero}), "not after its start")
}
