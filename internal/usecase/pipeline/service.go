package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/repositories"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/events"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-pipeline/pkg/ai"
	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

// Processor runs the pipeline for one meeting. Dispatchers depend on this.
type Processor interface {
	Process(ctx context.Context, meetingID uuid.UUID) (*Result, error)
}

// Downloader fetches a recording to a local path
type Downloader interface {
	Download(ctx context.Context, ref entities.StorageRef, destPath string) error
}

// Result is the outcome of one Process call
type Result struct {
	Status             entities.MeetingStatus `json:"status"`
	TranscriptLen      *int                   `json:"transcript_len,omitempty"`
	SummaryLen         *int                   `json:"summary_len,omitempty"`
	ActionItemsCreated int                    `json:"action_items_created"`
	ActionItemsSkipped int                    `json:"action_items_skipped"`
	// Skipped is set when the run changed nothing: the meeting was already
	// terminal, or another run advanced it first.
	Skipped bool `json:"skipped"`
}

// Service drives a meeting from its recording to a summary and action items
type Service struct {
	meetings    repositories.MeetingRepository
	downloader  Downloader
	transcriber ai.Transcriber
	summarizer  ai.Summarizer
	publisher   events.Publisher
	logger      *zap.Logger

	minConfidence       float64
	tempDir             string
	statusUpdateTimeout time.Duration
}

// NewService creates a pipeline service
func NewService(
	meetings repositories.MeetingRepository,
	downloader Downloader,
	transcriber ai.Transcriber,
	summarizer ai.Summarizer,
	publisher events.Publisher,
	cfg *config.PipelineConfig,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{
		meetings:            meetings,
		downloader:          downloader,
		transcriber:         transcriber,
		summarizer:          summarizer,
		publisher:           publisher,
		logger:              logger,
		minConfidence:       DefaultMinConfidence,
		statusUpdateTimeout: 10 * time.Second,
	}
	if cfg != nil {
		s.minConfidence = cfg.MinConfidence
		s.tempDir = cfg.TempDir
		if cfg.StatusUpdateTimeout > 0 {
			s.statusUpdateTimeout = cfg.StatusUpdateTimeout
		}
	}
	return s
}

// Process runs every stage still pending for the meeting.
// A terminal meeting is a no-op. A transcribed meeting resumes at summarization.
// Expected failures leave the meeting failed and are returned as *StageError.
func (s *Service) Process(ctx context.Context, meetingID uuid.UUID) (*Result, error) {
	log := s.logger.With(zap.String("meeting_id", meetingID.String()))

	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return nil, stageErr(StageLoad, err)
	}

	if meeting.Status.IsTerminal() {
		log.Info("⏭️ Meeting already processed", zap.String("status", string(meeting.Status)))
		return &Result{Status: meeting.Status, Skipped: true}, nil
	}

	if meeting.Status == entities.MeetingStatusScheduled {
		if !meeting.HasRecording() {
			return &Result{Status: meeting.Status, Skipped: true}, entities.ErrNoRecording
		}
		ok, err := s.meetings.MarkProcessing(ctx, meetingID)
		if err != nil {
			return nil, stageErr(StageLoad, err)
		}
		if !ok {
			return s.stale(log, meeting.Status), nil
		}
		meeting.Status = entities.MeetingStatusProcessing
	}

	result := &Result{Status: meeting.Status}

	if meeting.Status == entities.MeetingStatusProcessing {
		if !meeting.HasRecording() {
			return s.fail(ctx, log, meeting, stageErr(StageAcquire, entities.ErrNoRecording))
		}
		if err := s.ready(true); err != nil {
			return s.fail(ctx, log, meeting, err)
		}

		transcription, serr := s.transcribe(ctx, log, meeting)
		if serr != nil {
			return s.fail(ctx, log, meeting, serr)
		}

		transcript := FormatTranscript(transcription)
		update := repositories.TranscriptUpdate{
			Transcript:      transcript,
			Segments:        toEntitySegments(transcription.Segments),
			DurationMinutes: DurationMinutes(transcription),
		}
		ok, err := s.meetings.MarkTranscribed(ctx, meetingID, update)
		if err != nil {
			return s.fail(ctx, log, meeting, stageErr(StagePersist, err))
		}
		if !ok {
			return s.stale(log, meeting.Status), nil
		}

		log.Info("✅ Transcript saved",
			zap.String("provider", transcription.Provider),
			zap.Int("transcript_len", len(transcript)),
			zap.Int("duration_minutes", update.DurationMinutes),
		)
		meeting.Status = entities.MeetingStatusTranscribed
		meeting.Transcript = &transcript
		n := len(transcript)
		result.TranscriptLen = &n
	} else if meeting.Status == entities.MeetingStatusTranscribed {
		if err := s.ready(false); err != nil {
			return s.fail(ctx, log, meeting, err)
		}
		if meeting.Transcript != nil {
			n := len(*meeting.Transcript)
			result.TranscriptLen = &n
		}
		log.Info("🔄 Resuming at summarization")
	}

	transcript := ""
	if meeting.Transcript != nil {
		transcript = *meeting.Transcript
	}

	log.Info("📝 Summarizing transcript", zap.String("provider", s.summarizer.Name()))
	summary, err := s.summarizer.Summarize(ctx, transcript, meeting.Title)
	if err != nil {
		return s.fail(ctx, log, meeting, stageErr(StageSummarize, err))
	}

	candidates, err := s.summarizer.ExtractActionItems(ctx, summary)
	if err != nil {
		log.Warn("⚠️ Action item extraction failed, continuing without items", zap.Error(err))
		candidates = nil
	}
	items, skipped := Gate(meetingID, candidates, s.minConfidence)

	ok, err := s.meetings.Complete(ctx, meetingID, summary, items)
	if err != nil {
		return s.fail(ctx, log, meeting, stageErr(StagePersist, err))
	}
	if !ok {
		return s.stale(log, meeting.Status), nil
	}

	sl := len(summary)
	result.Status = entities.MeetingStatusCompleted
	result.SummaryLen = &sl
	result.ActionItemsCreated = len(items)
	result.ActionItemsSkipped = skipped

	log.Info("✅ Meeting processed",
		zap.Int("summary_len", sl),
		zap.Int("action_items_created", result.ActionItemsCreated),
		zap.Int("action_items_skipped", result.ActionItemsSkipped),
	)

	s.publish(ctx, log, events.MeetingProcessed{
		MeetingID:          meetingID,
		TeamID:             meeting.TeamID,
		Status:             string(entities.MeetingStatusCompleted),
		ActionItemsCreated: result.ActionItemsCreated,
		ActionItemsSkipped: result.ActionItemsSkipped,
		OccurredAt:         time.Now().UTC(),
	})

	return result, nil
}

// ready checks provider configuration before any audio is fetched
func (s *Service) ready(needTranscriber bool) *StageError {
	if needTranscriber {
		if err := s.transcriber.Ready(); err != nil {
			return &StageError{Stage: StageConfigure, Kind: KindConfiguration, Err: err}
		}
	}
	if err := s.summarizer.Ready(); err != nil {
		return &StageError{Stage: StageConfigure, Kind: KindConfiguration, Err: err}
	}
	return nil
}

// transcribe downloads the recording into a private temp dir and transcribes it.
// The temp dir is removed on every path.
func (s *Service) transcribe(ctx context.Context, log *zap.Logger, meeting *entities.Meeting) (*ai.Transcription, *StageError) {
	ref, ok := storage.ResolveRef(meeting)
	if !ok {
		return nil, stageErr(StageAcquire, entities.ErrNoRecording)
	}

	dir, err := os.MkdirTemp(s.tempDir, "meeting-"+meeting.ID.String()+"-")
	if err != nil {
		return nil, stageErr(StageAcquire, fmt.Errorf("create temp dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("failed to remove temp dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	audioPath := filepath.Join(dir, "recording"+ref.Ext())
	log.Info("📥 Downloading recording", zap.String("ref", ref.String()))
	if err := s.downloader.Download(ctx, ref, audioPath); err != nil {
		return nil, stageErr(StageAcquire, err)
	}

	log.Info("🎙️ Starting transcription", zap.String("provider", s.transcriber.Name()))
	transcription, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, stageErr(StageTranscribe, err)
	}
	return transcription, nil
}

// fail records the failure on the meeting and returns the stage error.
// The status update outlives the run's context so a job that hit its deadline
// still lands in failed. A cancelled run (dispatcher shutdown) leaves the
// status alone and reports a retryable interruption instead.
func (s *Service) fail(ctx context.Context, log *zap.Logger, meeting *entities.Meeting, serr *StageError) (*Result, error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		log.Warn("⏸️ Pipeline run interrupted, leaving status unchanged",
			zap.String("stage", string(serr.Stage)),
			zap.String("status", string(meeting.Status)),
			zap.Error(serr.Err),
		)
		return &Result{Status: meeting.Status}, &StageError{Stage: serr.Stage, Kind: KindInterrupted, Err: serr.Err}
	}

	log.Warn("❌ Pipeline stage failed",
		zap.String("stage", string(serr.Stage)),
		zap.String("kind", string(serr.Kind)),
		zap.Error(serr.Err),
	)

	updCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.statusUpdateTimeout)
	defer cancel()

	reason := failureReason(serr)
	ok, err := s.meetings.MarkFailed(updCtx, meeting.ID, meeting.Status, reason)
	switch {
	case err != nil:
		log.Error("❌ Failed to mark meeting failed", zap.Error(err), zap.NamedError("stage_error", serr))
		return &Result{Status: meeting.Status}, serr
	case !ok:
		log.Warn("meeting left its observed status before the failure was recorded", zap.NamedError("stage_error", serr))
		return s.stale(log, meeting.Status), nil
	}

	s.publish(updCtx, log, events.MeetingProcessed{
		MeetingID:     meeting.ID,
		TeamID:        meeting.TeamID,
		Status:        string(entities.MeetingStatusFailed),
		FailureReason: &reason,
		OccurredAt:    time.Now().UTC(),
	})
	return &Result{Status: entities.MeetingStatusFailed}, serr
}

func (s *Service) stale(log *zap.Logger, observed entities.MeetingStatus) *Result {
	log.Info("⏭️ Meeting advanced by another run, stopping", zap.String("observed_status", string(observed)))
	return &Result{Status: observed, Skipped: true}
}

func (s *Service) publish(ctx context.Context, log *zap.Logger, evt events.MeetingProcessed) {
	if err := s.publisher.PublishMeetingProcessed(ctx, evt); err != nil {
		log.Warn("failed to publish meeting event", zap.Error(err))
	}
}

// IsNoRecording reports whether Process refused a scheduled meeting without audio
func IsNoRecording(err error) bool {
	return errors.Is(err, entities.ErrNoRecording)
}
