package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

func writeAudio(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func TestWhisperAPITranscriber_Transcribe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "call.mp3", hdr.Filename)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"text":     " hello there ",
			"language": "en",
			"duration": 65.5,
			"segments": []map[string]interface{}{
				{"start": 0.0, "end": 2.5, "text": "hello"},
				{"start": 62.0, "end": 65.5, "text": "there"},
			},
		})
	}))
	defer ts.Close()

	tr := NewOpenAITranscriber(&config.OpenAIConfig{
		APIKey:             "k",
		BaseURL:            ts.URL,
		TranscriptionModel: "whisper-1",
	}, 1024)

	res, err := tr.Transcribe(context.Background(), writeAudio(t, "call.mp3", 100))
	require.NoError(t, err)
	assert.Equal(t, "openai-whisper", res.Provider)
	assert.Equal(t, "hello there", res.Text)
	assert.Equal(t, 65.5, res.DurationSeconds)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, 62.0, res.Segments[1].Start)
}

func TestWhisperAPITranscriber_RejectsBeforeRequest(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	tr := NewGroqTranscriber(&config.GroqConfig{APIKey: "k", BaseURL: ts.URL, TranscriptionModel: "m"}, 10)

	_, err := tr.Transcribe(context.Background(), writeAudio(t, "big.wav", 11))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = tr.Transcribe(context.Background(), writeAudio(t, "notes.txt", 1))
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWhisperAPITranscriber_413(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer ts.Close()

	tr := NewGroqTranscriber(&config.GroqConfig{APIKey: "k", BaseURL: ts.URL, TranscriptionModel: "m"}, 0)
	_, err := tr.Transcribe(context.Background(), writeAudio(t, "a.m4a", 5))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestWhisperAPITranscriber_NotConfigured(t *testing.T) {
	tr := NewGroqTranscriber(&config.GroqConfig{}, 0)
	_, err := tr.Transcribe(context.Background(), "/does/not/matter.mp3")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseWhisperCppJSON(t *testing.T) {
	raw := []byte(`{
		"result": {"language": "en"},
		"transcription": [
			{"offsets": {"from": 0, "to": 1500}, "text": " Hello"},
			{"offsets": {"from": 1500, "to": 61000}, "text": " world "}
		]
	}`)

	res, err := parseWhisperCppJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, 61.0, res.DurationSeconds)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, 1.5, res.Segments[1].Start)

	_, err = parseWhisperCppJSON([]byte("not json"))
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestLocalWhisperTranscriber_Ready(t *testing.T) {
	tr := NewLocalWhisperTranscriber(&config.WhisperConfig{ModelSize: "huge", ModelDir: t.TempDir()})
	assert.ErrorIs(t, tr.Ready(), ErrNotConfigured)

	tr = NewLocalWhisperTranscriber(&config.WhisperConfig{
		Binary:    "definitely-not-a-whisper-binary",
		ModelSize: "base",
		ModelDir:  t.TempDir(),
	})
	assert.ErrorIs(t, tr.Ready(), ErrNotConfigured)
	assert.Equal(t, "ggml-base.bin", filepath.Base(tr.ModelPath()))
}

func TestTranscriptionFromAssemblyAI(t *testing.T) {
	text := " full text "
	u1, u2 := "first", "second"
	s1, e1, s2, e2 := int64(0), int64(2000), int64(60000), int64(75500)
	dur := float64(76)

	tr := aai.Transcript{
		Text:          &text,
		AudioDuration: &dur,
		LanguageCode:  aai.TranscriptLanguageCode("en"),
		Utterances: []aai.TranscriptUtterance{
			{Text: &u1, Start: &s1, End: &e1},
			{Text: &u2, Start: &s2, End: &e2},
		},
	}

	res := transcriptionFromAssemblyAI(tr)
	assert.Equal(t, "full text", res.Text)
	assert.Equal(t, 76.0, res.DurationSeconds)
	assert.Equal(t, "en", res.Language)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, 60.0, res.Segments[1].Start)
	assert.Equal(t, 75.5, res.Segments[1].End)
}

func TestAssemblyAITranscriber_Guards(t *testing.T) {
	tr := NewAssemblyAITranscriber(&config.AssemblyAIConfig{})
	assert.ErrorIs(t, tr.Ready(), ErrNotConfigured)

	tr = NewAssemblyAITranscriber(&config.AssemblyAIConfig{APIKey: "k", MaxBytes: 4})
	_, err := tr.Transcribe(context.Background(), writeAudio(t, "a.wav", 5))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestNewTranscriber_Selection(t *testing.T) {
	cfg := &config.TranscriptionConfig{
		Providers:      []string{"groq", "openai", "assemblyai"},
		HostedMaxBytes: 100,
		OpenAI:         config.OpenAIConfig{APIKey: "k", TranscriptionModel: "whisper-1"},
	}
	assert.Equal(t, "openai-whisper", NewTranscriber(cfg).Name())

	cfg.OpenAI.APIKey = ""
	tr := NewTranscriber(cfg)
	assert.Equal(t, "groq-whisper", tr.Name())
	assert.ErrorIs(t, tr.Ready(), ErrNotConfigured)

	tr = NewTranscriber(&config.TranscriptionConfig{Providers: []string{"unknown"}})
	assert.ErrorIs(t, tr.Ready(), ErrNotConfigured)
}

func TestNewSummarizer_Selection(t *testing.T) {
	sum := &config.SummarizationConfig{Providers: []string{"groq", "openai"}}
	s := NewSummarizer(sum, &config.GroqConfig{ChatModel: "m"}, &config.OpenAIConfig{APIKey: "k", ChatModel: "gpt-4"})
	assert.Equal(t, "openai", s.Name())

	s = NewSummarizer(&config.SummarizationConfig{}, &config.GroqConfig{}, &config.OpenAIConfig{})
	assert.ErrorIs(t, s.Ready(), ErrNotConfigured)
}
