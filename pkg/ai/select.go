package ai

import (
	"strings"

	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

// NewTranscriber returns the first provider in cfg.Providers that is ready.
// When none is, the first known provider is returned so its Ready error
// surfaces at run time; with no known provider the result is Unconfigured.
func NewTranscriber(cfg *config.TranscriptionConfig) Transcriber {
	var first Transcriber
	for _, name := range cfg.Providers {
		var t Transcriber
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "groq":
			t = NewGroqTranscriber(&cfg.Groq, cfg.HostedMaxBytes)
		case "openai":
			t = NewOpenAITranscriber(&cfg.OpenAI, cfg.HostedMaxBytes)
		case "assemblyai":
			t = NewAssemblyAITranscriber(&cfg.AssemblyAI)
		case "local", "whisper":
			t = NewLocalWhisperTranscriber(&cfg.Whisper)
		default:
			continue
		}
		if t.Ready() == nil {
			return t
		}
		if first == nil {
			first = t
		}
	}
	if first != nil {
		return first
	}
	return Unconfigured{Kind: "transcription"}
}

// NewSummarizer returns the first chat provider in cfg.Providers that is ready
func NewSummarizer(cfg *config.SummarizationConfig, groq *config.GroqConfig, openai *config.OpenAIConfig) Summarizer {
	var first Summarizer
	for _, name := range cfg.Providers {
		var s Summarizer
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "groq":
			s = NewGroqChatClient(groq, cfg)
		case "openai":
			s = NewOpenAIChatClient(openai, cfg)
		default:
			continue
		}
		if s.Ready() == nil {
			return s
		}
		if first == nil {
			first = s
		}
	}
	if first != nil {
		return first
	}
	return Unconfigured{Kind: "summarization"}
}
