package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// catPrompt asks for a bare confidence so the answer can be parsed.
const catPrompt = "Does this image show a cat? " +
	"Reply with a single number from 0 to 100: your confidence, in percent, that a cat is visible."

var (
	// errAPIKeyRequired is returned when no Gemini API key is configured.
	errAPIKeyRequired = errors.New("gemini api key must be provided")
	// errEmptyResponse is returned when the model answers without text.
	errEmptyResponse = errors.New("empty response from gemini")
	// errNoConfidence is returned when the answer holds no number.
	errNoConfidence = errors.New("no confidence in gemini response")
	// errUnsupportedImage is returned for frames that are neither JPEG, PNG, WebP nor GIF.
	errUnsupportedImage = errors.New("unsupported image format")
)

//nolint:gochecknoglobals // Compiled once.
var confidencePattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// contentGenerator is the part of *genai.GenerativeModel the classifier uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini classifies frames with a Google Gemini multimodal model.
type Gemini struct {
	// client owns the API connection, nil when built around a bare generator.
	client *genai.Client
	// model answers the prompt.
	model contentGenerator
}

// NewGemini connects to the Gemini API with the provided key and model name.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// Close releases the API connection.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}

	return g.client.Close()
}

// ContainsCat asks the model for its confidence and compares it to the threshold.
func (g *Gemini) ContainsCat(ctx context.Context, image []byte, confidenceThreshold float32) (bool, error) {
	format, err := imageFormat(image)
	if err != nil {
		return false, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.ImageData(format, image), genai.Text(catPrompt))
	if err != nil {
		return false, fmt.Errorf("gemini generation: %w", err)
	}

	confidence, err := parseConfidence(responseText(resp))
	if err != nil {
		return false, err
	}

	return confidence >= confidenceThreshold, nil
}

// imageFormat sniffs the frame and returns the genai image format name.
func imageFormat(image []byte) (string, error) {
	contentType := http.DetectContentType(image)

	format, ok := strings.CutPrefix(contentType, "image/")
	if !ok {
		return "", fmt.Errorf("%w: %s", errUnsupportedImage, contentType)
	}

	switch format {
	case "jpeg", "png", "webp", "gif":
		return format, nil
	default:
		return "", fmt.Errorf("%w: %s", errUnsupportedImage, contentType)
	}
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder

	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return sb.String()
}

// parseConfidence extracts the first number of the answer, clamped to [0, 100].
func parseConfidence(text string) (float32, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errEmptyResponse
	}

	match := confidencePattern.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("%w: %q", errNoConfidence, text)
	}

	value, err := strconv.ParseFloat(match, 32)
	if err != nil {
		return 0, fmt.Errorf("parse confidence %q: %w", match, err)
	}

	return float32(min(max(value, 0), 100)), nil
}
