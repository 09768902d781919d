package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

// AssemblyAITranscriber transcribes audio with the official AssemblyAI SDK.
// The file is uploaded first, then transcribed synchronously (no webhook).
type AssemblyAITranscriber struct {
	client        *aai.Client
	apiKey        string
	languageCode  string
	speakerLabels bool
	maxBytes      int64
}

// NewAssemblyAITranscriber creates an AssemblyAI transcriber
func NewAssemblyAITranscriber(cfg *config.AssemblyAIConfig) *AssemblyAITranscriber {
	return &AssemblyAITranscriber{
		client:        aai.NewClient(cfg.APIKey),
		apiKey:        cfg.APIKey,
		languageCode:  cfg.LanguageCode,
		speakerLabels: cfg.SpeakerLabels,
		maxBytes:      cfg.MaxBytes,
	}
}

func (a *AssemblyAITranscriber) Name() string {
	return "assemblyai"
}

func (a *AssemblyAITranscriber) Ready() error {
	if a.apiKey == "" {
		return fmt.Errorf("%w: assemblyai api key is empty", ErrNotConfigured)
	}
	return nil
}

func (a *AssemblyAITranscriber) Transcribe(ctx context.Context, audioPath string) (*Transcription, error) {
	if err := a.Ready(); err != nil {
		return nil, err
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio: %w", err)
	}
	if a.maxBytes > 0 && info.Size() > a.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes > %d bytes (assemblyai)", ErrInputTooLarge, info.Size(), a.maxBytes)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	uploadURL, err := a.client.Upload(ctx, f)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: "upload failed", Err: err}
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(a.speakerLabels),
	}
	if a.languageCode != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(a.languageCode)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	transcript, err := a.client.Transcripts.TranscribeFromURL(ctx, uploadURL, params)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: "transcription failed", Err: err}
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := "transcript status error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		if strings.Contains(strings.ToLower(msg), "file does not appear to contain audio") {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, msg)
		}
		return nil, &ProviderError{Provider: a.Name(), Message: msg}
	}

	return transcriptionFromAssemblyAI(transcript), nil
}

// transcriptionFromAssemblyAI maps utterances (milliseconds) to segments (seconds)
func transcriptionFromAssemblyAI(t aai.Transcript) *Transcription {
	out := &Transcription{
		Provider: "assemblyai",
		Language: string(t.LanguageCode),
	}
	if t.Text != nil {
		out.Text = strings.TrimSpace(*t.Text)
	}
	if t.AudioDuration != nil {
		out.DurationSeconds = *t.AudioDuration
	}

	for _, utt := range t.Utterances {
		seg := Segment{}
		if utt.Text != nil {
			seg.Text = *utt.Text
		}
		if utt.Start != nil {
			seg.Start = float64(*utt.Start) / 1000.0
		}
		if utt.End != nil {
			seg.End = float64(*utt.End) / 1000.0
		}
		out.Segments = append(out.Segments, seg)
	}
	return out
}
