package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured means no credentials or model are available for a provider
	ErrNotConfigured = errors.New("provider not configured")
	// ErrInputTooLarge means the audio exceeds the provider's input ceiling
	ErrInputTooLarge = errors.New("input exceeds provider size limit")
	// ErrUnsupportedInput means the provider cannot read the audio
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrMalformedOutput means the provider answered with unparsable structured output
	ErrMalformedOutput = errors.New("malformed provider output")
)

// Segment is one timed span of speech, in seconds from the start of the audio
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcription is the provider-neutral transcription result
type Transcription struct {
	Provider        string
	Text            string
	Segments        []Segment
	DurationSeconds float64
	Language        string
}

// ActionItemCandidate is an action item proposed by the summarization provider
type ActionItemCandidate struct {
	Description string  `json:"description"`
	Assignee    *string `json:"assignee"`
	Deadline    *string `json:"deadline"`
	Confidence  float64 `json:"confidence"`
}

// Transcriber turns an audio file into a transcript
type Transcriber interface {
	Name() string
	// Ready reports configuration problems without calling the provider.
	Ready() error
	Transcribe(ctx context.Context, audioPath string) (*Transcription, error)
}

// Summarizer summarizes transcripts and extracts action items from summaries
type Summarizer interface {
	Name() string
	Ready() error
	Summarize(ctx context.Context, transcript, title string) (string, error)
	ExtractActionItems(ctx context.Context, summary string) ([]ActionItemCandidate, error)
}

// ProviderError is a runtime failure reported by a remote or local provider
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when the request never got a response
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %s: %v", e.Provider, e.StatusCode, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same request later may succeed
func (e *ProviderError) Temporary() bool {
	if e.StatusCode == 0 {
		return e.Err != nil
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Unconfigured stands in for a provider slot when nothing usable is configured
type Unconfigured struct {
	Kind string
}

func (u Unconfigured) Name() string { return "unconfigured-" + u.Kind }

func (u Unconfigured) Ready() error {
	return fmt.Errorf("%w: no %s provider has credentials", ErrNotConfigured, u.Kind)
}

func (u Unconfigured) Transcribe(ctx context.Context, audioPath string) (*Transcription, error) {
	return nil, u.Ready()
}

func (u Unconfigured) Summarize(ctx context.Context, transcript, title string) (string, error) {
	return "", u.Ready()
}

func (u Unconfigured) ExtractActionItems(ctx context.Context, summary string) ([]ActionItemCandidate, error) {
	return nil, u.Ready()
}
