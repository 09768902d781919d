package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

// hostedAudioExtensions are the formats accepted by hosted Whisper endpoints
var hostedAudioExtensions = map[string]bool{
	".flac": true, ".m4a": true, ".mp3": true, ".mp4": true, ".mpeg": true,
	".mpga": true, ".oga": true, ".ogg": true, ".wav": true, ".webm": true,
}

// WhisperAPITranscriber calls an OpenAI-compatible /audio/transcriptions endpoint
type WhisperAPITranscriber struct {
	name     string
	apiKey   string
	baseURL  string
	model    string
	maxBytes int64
	client   *http.Client
}

// NewGroqTranscriber creates a transcriber for Groq's hosted Whisper
func NewGroqTranscriber(cfg *config.GroqConfig, maxBytes int64) *WhisperAPITranscriber {
	return newWhisperAPITranscriber("groq", cfg.APIKey, cfg.BaseURL, cfg.TranscriptionModel, maxBytes)
}

// NewOpenAITranscriber creates a transcriber for OpenAI's hosted Whisper
func NewOpenAITranscriber(cfg *config.OpenAIConfig, maxBytes int64) *WhisperAPITranscriber {
	return newWhisperAPITranscriber("openai", cfg.APIKey, cfg.BaseURL, cfg.TranscriptionModel, maxBytes)
}

func newWhisperAPITranscriber(name, apiKey, baseURL, model string, maxBytes int64) *WhisperAPITranscriber {
	return &WhisperAPITranscriber{
		name:     name,
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    model,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: 10 * time.Minute},
	}
}

func (w *WhisperAPITranscriber) Name() string {
	return w.name + "-whisper"
}

func (w *WhisperAPITranscriber) Ready() error {
	if w.apiKey == "" {
		return fmt.Errorf("%w: %s api key is empty", ErrNotConfigured, w.name)
	}
	return nil
}

type verboseTranscription struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Transcribe uploads the audio file and returns timed segments.
// The size ceiling is enforced before any request is made.
func (w *WhisperAPITranscriber) Transcribe(ctx context.Context, audioPath string) (*Transcription, error) {
	if err := w.Ready(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(audioPath))
	if !hostedAudioExtensions[ext] {
		return nil, fmt.Errorf("%w: %s does not accept %q", ErrUnsupportedInput, w.name, ext)
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio: %w", err)
	}
	if w.maxBytes > 0 && info.Size() > w.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes > %d bytes (%s)", ErrInputTooLarge, info.Size(), w.maxBytes, w.name)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeTranscriptionForm(mw, f, filepath.Base(audioPath), w.model))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/audio/transcriptions", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		pr.Close()
		return nil, &ProviderError{Provider: w.name, Message: "transcription request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return nil, fmt.Errorf("%w: rejected by %s", ErrInputTooLarge, w.name)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ProviderError{Provider: w.name, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var vt verboseTranscription
	if err := json.NewDecoder(resp.Body).Decode(&vt); err != nil {
		return nil, &ProviderError{Provider: w.name, StatusCode: resp.StatusCode, Message: "invalid transcription response", Err: err}
	}

	return &Transcription{
		Provider:        w.Name(),
		Text:            strings.TrimSpace(vt.Text),
		Segments:        vt.Segments,
		DurationSeconds: vt.Duration,
		Language:        vt.Language,
	}, nil
}

func writeTranscriptionForm(mw *multipart.Writer, audio io.Reader, filename, model string) error {
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return err
	}
	fields := map[string]string{
		"model":           model,
		"response_format": "verbose_json",
		"temperature":     "0",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	return mw.Close()
}
