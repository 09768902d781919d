package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

const defaultWhisperBinary = "whisper-cli"

var whisperModelSizes = map[string]bool{
	"tiny": true, "base": true, "small": true, "medium": true, "large": true,
}

// whisper.cpp decodes these natively
var localAudioExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".flac": true, ".ogg": true,
}

// LocalWhisperTranscriber runs a whisper.cpp binary against a ggml model on disk
type LocalWhisperTranscriber struct {
	binary    string
	modelDir  string
	modelSize string
	useGPU    bool
	threads   int
	language  string
}

// NewLocalWhisperTranscriber creates a transcriber for the local whisper.cpp model
func NewLocalWhisperTranscriber(cfg *config.WhisperConfig) *LocalWhisperTranscriber {
	binary := cfg.Binary
	if binary == "" {
		binary = defaultWhisperBinary
	}
	return &LocalWhisperTranscriber{
		binary:    binary,
		modelDir:  cfg.ModelDir,
		modelSize: strings.ToLower(cfg.ModelSize),
		useGPU:    cfg.UseGPU,
		threads:   cfg.Threads,
		language:  cfg.Language,
	}
}

func (l *LocalWhisperTranscriber) Name() string {
	return "local-whisper"
}

// ModelPath returns the ggml model file for the configured size
func (l *LocalWhisperTranscriber) ModelPath() string {
	return filepath.Join(l.modelDir, "ggml-"+l.modelSize+".bin")
}

func (l *LocalWhisperTranscriber) Ready() error {
	if !whisperModelSizes[l.modelSize] {
		return fmt.Errorf("%w: unknown whisper model size %q", ErrNotConfigured, l.modelSize)
	}
	if _, err := exec.LookPath(l.binary); err != nil {
		return fmt.Errorf("%w: whisper binary %q not found", ErrNotConfigured, l.binary)
	}
	if _, err := os.Stat(l.ModelPath()); err != nil {
		return fmt.Errorf("%w: whisper model %s not found", ErrNotConfigured, l.ModelPath())
	}
	return nil
}

func (l *LocalWhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*Transcription, error) {
	if err := l.Ready(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(audioPath))
	if !localAudioExtensions[ext] {
		return nil, fmt.Errorf("%w: local whisper does not accept %q", ErrUnsupportedInput, ext)
	}

	outPrefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".whisper"
	args := []string{
		"-m", l.ModelPath(),
		"-f", audioPath,
		"-oj",
		"-of", outPrefix,
	}
	if l.threads > 0 {
		args = append(args, "-t", strconv.Itoa(l.threads))
	}
	if l.language != "" {
		args = append(args, "-l", l.language)
	}
	if !l.useGPU {
		args = append(args, "--no-gpu")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, l.binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{Provider: l.Name(), Message: lastLine(stderr.String()), Err: err}
	}

	outPath := outPrefix + ".json"
	defer os.Remove(outPath)

	raw, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &ProviderError{Provider: l.Name(), Message: "missing whisper output", Err: err}
	}
	return parseWhisperCppJSON(raw)
}

type whisperCppOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperCppJSON converts whisper.cpp -oj output (millisecond offsets)
func parseWhisperCppJSON(raw []byte) (*Transcription, error) {
	var out whisperCppOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: whisper json: %v", ErrMalformedOutput, err)
	}

	t := &Transcription{
		Provider: "local-whisper",
		Language: out.Result.Language,
	}
	texts := make([]string, 0, len(out.Transcription))
	for _, s := range out.Transcription {
		seg := Segment{
			Start: float64(s.Offsets.From) / 1000.0,
			End:   float64(s.Offsets.To) / 1000.0,
			Text:  strings.TrimSpace(s.Text),
		}
		t.Segments = append(t.Segments, seg)
		if seg.Text != "" {
			texts = append(texts, seg.Text)
		}
		if seg.End > t.DurationSeconds {
			t.DurationSeconds = seg.End
		}
	}
	t.Text = strings.Join(texts, " ")
	return t, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		return s[idx+1:]
	}
	if s == "" {
		return "whisper exited with error"
	}
	return s
}
