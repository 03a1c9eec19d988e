package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"
)

var errTestGenerate = errors.New("test generate error")

// pngHeader is enough for content sniffing to report image/png.
//
//nolint:gochecknoglobals // Test fixture.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// fakeGenerator answers with a fixed response.
type fakeGenerator struct {
	text  string
	err   error
	parts []genai.Part
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts

	if f.err != nil {
		return nil, f.err
	}

	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(f.text)}}},
		},
	}, nil
}

// TestFake_Threshold verifies the threshold bounds of the fake classifier.
func TestFake_Threshold(t *testing.T) {
	t.Parallel()

	f := NewFake(42)

	for range 100 {
		always, err := f.ContainsCat(context.Background(), nil, 0)
		require.NoError(t, err)
		require.True(t, always)

		never, err := f.ContainsCat(context.Background(), nil, 100)
		require.NoError(t, err)
		require.False(t, never)
	}
}

// TestFake_Seeded verifies equal seeds give equal verdict sequences.
func TestFake_Seeded(t *testing.T) {
	t.Parallel()

	a, b := NewFake(7), NewFake(7)

	for range 20 {
		x, err := a.ContainsCat(context.Background(), nil, 50)
		require.NoError(t, err)

		y, err := b.ContainsCat(context.Background(), nil, 50)
		require.NoError(t, err)
		require.Equal(t, x, y)
	}
}

// TestParseConfidence covers number extraction and clamping.
func TestParseConfidence(t *testing.T) {
	t.Parallel()

	cases := map[string]float32{
		"87":                  87,
		"  12.5%\n":           12.5,
		"Confidence: 100":     100,
		"I'd say 250 percent": 100,
	}
	for text, want := range cases {
		got, err := parseConfidence(text)
		require.NoError(t, err, text)
		require.InDelta(t, want, got, 0.001, text)
	}

	_, err := parseConfidence(" ")
	require.ErrorIs(t, err, errEmptyResponse)

	_, err = parseConfidence("no idea")
	require.ErrorIs(t, err, errNoConfidence)
}

// TestImageFormat verifies sniffing of supported and unsupported frames.
func TestImageFormat(t *testing.T) {
	t.Parallel()

	format, err := imageFormat(pngHeader)
	require.NoError(t, err)
	require.Equal(t, "png", format)

	format, err = imageFormat([]byte("\xff\xd8\xff\xe0\x00\x10JFIF"))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)

	_, err = imageFormat([]byte("plain text"))
	require.ErrorIs(t, err, errUnsupportedImage)
}

// TestGemini_ContainsCat verifies the verdict against the threshold.
func TestGemini_ContainsCat(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "73"}
	g := &Gemini{model: gen}

	cat, err := g.ContainsCat(context.Background(), pngHeader, 50)
	require.NoError(t, err)
	require.True(t, cat)
	require.Len(t, gen.parts, 2)

	blob, ok := gen.parts[0].(genai.Blob)
	require.True(t, ok)
	require.Equal(t, "image/png", blob.MIMEType)

	gen.text = "12"
	cat, err = g.ContainsCat(context.Background(), pngHeader, 50)
	require.NoError(t, err)
	require.False(t, cat)

	gen.err = errTestGenerate
	_, err = g.ContainsCat(context.Background(), pngHeader, 50)
	require.ErrorIs(t, err, errTestGenerate)

	require.NoError(t, g.Close())

	_, err = NewGemini(context.Background(), "", "model")
	require.ErrorIs(t, err, errAPIKeyRequired)
}
