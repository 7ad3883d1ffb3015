package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lunamoss/readmaster/config"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// SpeechAnalysis is the structured output of one analysis call: the raw
// transcript plus a metrics document (fluency, accuracy, pace, mispronounced
// words) stored as-is in the assessment result.
type SpeechAnalysis struct {
	Transcript string
	Metrics    map[string]interface{}
}

// SpeechAnalyzer is the boundary to the external speech/AI capability: one
// synchronous call taking an audio location and returning transcript plus
// metrics, or an error.
type SpeechAnalyzer interface {
	AnalyzeAudio(ctx context.Context, audioURL, language string) (*SpeechAnalysis, error)
}

type geminiSpeechService struct {
	client *genai.GenerativeModel
	cfg    *config.Config
}

func NewSpeechAnalyzer(cfg *config.Config) (SpeechAnalyzer, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. SpeechAnalyzer will be non-functional.")
		return &geminiSpeechService{cfg: cfg, client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel("gemini-1.5-flash")
	return &geminiSpeechService{client: model, cfg: cfg}, nil
}

func fetchAudioData(audioURL string) ([]byte, string, error) {
	if audioURL == "" {
		return nil, "", fmt.Errorf("audio URL is empty")
	}
	resp, err := http.Get(audioURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch audio from URL %s: %w", audioURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch audio (status %d) from URL %s", resp.StatusCode, audioURL)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio data from URL %s: %w", audioURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	var mimeType string
	if contentType != "" {
		parsedMime, _, parseErr := mime.ParseMediaType(contentType)
		if parseErr == nil && strings.HasPrefix(parsedMime, "audio/") {
			mimeType = parsedMime
		}
	}
	if mimeType == "" {
		// Presigned URLs carry the object key before the query string.
		ext := filepath.Ext(strings.SplitN(audioURL, "?", 2)[0])
		mimeType = mime.TypeByExtension(ext)
		if mimeType == "" || !strings.HasPrefix(mimeType, "audio/") {
			log.Warn().Str("url", audioURL).Str("ext", ext).Msg("Could not determine valid audio MIME type, defaulting to audio/wav")
			mimeType = "audio/wav"
		}
	}
	return audioData, mimeType, nil
}

// parseTranscriptAndMetrics splits the model output into a transcript section
// and a JSON metrics document.
func parseTranscriptAndMetrics(rawResponse string) (string, map[string]interface{}, error) {
	transcriptPrefix := "Transcript:"
	metricsPrefix := "Metrics:"

	transcriptIndex := strings.Index(rawResponse, transcriptPrefix)
	metricsIndex := strings.Index(rawResponse, metricsPrefix)

	if transcriptIndex == -1 || metricsIndex == -1 || metricsIndex < transcriptIndex {
		return "", nil, fmt.Errorf("response missing 'Transcript:' or 'Metrics:' section. Raw: %s", rawResponse)
	}

	transcript := strings.TrimSpace(rawResponse[transcriptIndex+len(transcriptPrefix) : metricsIndex])

	metricsRaw := strings.TrimSpace(rawResponse[metricsIndex+len(metricsPrefix):])
	// The model sometimes fences the JSON block.
	metricsRaw = strings.TrimPrefix(metricsRaw, "```json")
	metricsRaw = strings.TrimPrefix(metricsRaw, "```")
	metricsRaw = strings.TrimSuffix(strings.TrimSpace(metricsRaw), "```")

	var metrics map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(metricsRaw)), &metrics); err != nil {
		return transcript, nil, fmt.Errorf("failed to parse metrics JSON: %w. Raw: %s", err, metricsRaw)
	}
	return transcript, metrics, nil
}

func (s *geminiSpeechService) AnalyzeAudio(ctx context.Context, audioURL, language string) (*SpeechAnalysis, error) {
	if s.client == nil {
		return nil, fmt.Errorf("gemini client not initialized: %w", ErrUpstreamAnalysis)
	}

	audioData, mimeType, err := fetchAudioData(audioURL)
	if err != nil {
		return nil, fmt.Errorf("audio fetch failed: %v: %w", err, ErrUpstreamAnalysis)
	}

	var promptBuilder strings.Builder
	promptBuilder.WriteString("You are an expert reading fluency assessor for young readers.\n")
	promptBuilder.WriteString(fmt.Sprintf("The attached audio is a student reading a text aloud in language '%s'.\n\n", language))
	promptBuilder.WriteString("First transcribe the speech exactly as spoken, including hesitations and repeated words.\n")
	promptBuilder.WriteString("Then evaluate the reading and produce the following metrics:\n")
	promptBuilder.WriteString("- fluency_score: 0.0 to 1.0, smoothness and expression of the reading.\n")
	promptBuilder.WriteString("- accuracy_score: 0.0 to 1.0, proportion of words read correctly.\n")
	promptBuilder.WriteString("- words_per_minute: integer reading pace.\n")
	promptBuilder.WriteString("- mispronounced_words: array of words that were mispronounced.\n\n")
	promptBuilder.WriteString("Format your response strictly as:\n")
	promptBuilder.WriteString("Transcript:\n[verbatim transcript here]\n")
	promptBuilder.WriteString("Metrics:\n{\"fluency_score\": ..., \"accuracy_score\": ..., \"words_per_minute\": ..., \"mispronounced_words\": [...]}\n")

	parts := []genai.Part{
		genai.Blob{MIMEType: mimeType, Data: audioData},
		genai.Text(promptBuilder.String()),
	}

	resp, err := s.client.GenerateContent(ctx, parts...)
	if err != nil {
		log.Error().Err(err).Str("audioURL", audioURL).Msg("Gemini API error during speech analysis")
		return nil, fmt.Errorf("gemini API error: %v: %w", err, ErrUpstreamAnalysis)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Warn().Msg("Gemini returned no candidates or parts in response.")
		return nil, fmt.Errorf("gemini returned no content: %w", ErrUpstreamAnalysis)
	}

	fullResponseText := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullResponseText += string(txt)
		}
	}
	if fullResponseText == "" {
		return nil, fmt.Errorf("gemini returned no text content: %w", ErrUpstreamAnalysis)
	}

	transcript, metrics, parseErr := parseTranscriptAndMetrics(fullResponseText)
	if parseErr != nil {
		log.Warn().Err(parseErr).Str("rawResponse", fullResponseText).Msg("Failed to parse transcript and metrics from Gemini response")
		return nil, fmt.Errorf("malformed analysis output: %v: %w", parseErr, ErrUpstreamAnalysis)
	}

	return &SpeechAnalysis{Transcript: transcript, Metrics: metrics}, nil
}
