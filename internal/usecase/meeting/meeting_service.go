package meeting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/repositories"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-pipeline/internal/usecase/dispatch"
	usecaseErrors "github.com/johnquangdev/meeting-pipeline/internal/usecase/errors"
)

// AllowedExtensions lists the recording formats accepted for upload
var AllowedExtensions = []string{".mp3", ".wav", ".m4a", ".webm", ".mp4", ".mpeg", ".mpga"}

const deleteBlobTimeout = 30 * time.Second

// Provider is the part of ai.Transcriber and ai.Summarizer reported by ProviderStatus
type Provider interface {
	Name() string
	Ready() error
}

// MeetingService handles meeting business logic
type MeetingService struct {
	meetingRepo    repositories.MeetingRepository
	actionItemRepo repositories.ActionItemRepository
	store          storage.ObjectStore
	dispatcher     dispatch.Dispatcher
	transcriber    Provider
	summarizer     Provider
	folder         string
	maxUploadBytes int64
	logger         *zap.Logger
}

// Options holds the upload settings of MeetingService
type Options struct {
	Folder         string
	MaxUploadBytes int64
}

// NewMeetingService creates a new meeting service
func NewMeetingService(
	meetingRepo repositories.MeetingRepository,
	actionItemRepo repositories.ActionItemRepository,
	store storage.ObjectStore,
	dispatcher dispatch.Dispatcher,
	transcriber Provider,
	summarizer Provider,
	opts Options,
	logger *zap.Logger,
) *MeetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Folder == "" {
		opts.Folder = "meetings"
	}
	return &MeetingService{
		meetingRepo:    meetingRepo,
		actionItemRepo: actionItemRepo,
		store:          store,
		dispatcher:     dispatcher,
		transcriber:    transcriber,
		summarizer:     summarizer,
		folder:         opts.Folder,
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         logger,
	}
}

// UploadRecordingInput represents an uploaded recording
type UploadRecordingInput struct {
	TeamID      uuid.UUID
	UserID      uuid.UUID
	Title       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadRecordingOutput is the created meeting and whether a run was scheduled
type UploadRecordingOutput struct {
	Meeting    *entities.Meeting
	Dispatched bool
}

// CreateMeetingInput represents input for creating a calendar meeting
type CreateMeetingInput struct {
	TeamID      uuid.UUID
	UserID      uuid.UUID
	Title       string
	ScheduledAt *time.Time
}

// UpdateMeetingInput represents a partial update; nil fields are left unchanged
type UpdateMeetingInput struct {
	TeamID      uuid.UUID
	MeetingID   uuid.UUID
	Title       *string
	ScheduledAt *time.Time
}

// ActionItemInput addresses one action item of a meeting
type ActionItemInput struct {
	TeamID       uuid.UUID
	UserID       uuid.UUID
	MeetingID    uuid.UUID
	ActionItemID uuid.UUID
}

// ProviderState describes one selected provider
type ProviderState struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// ProviderStatus describes the providers the pipeline will use
type ProviderStatus struct {
	Transcription ProviderState `json:"transcription"`
	Summarization ProviderState `json:"summarization"`
}

// IsAllowedExtension reports whether filename has an accepted recording extension
func IsAllowedExtension(filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// UploadRecording validates and stores a recording, then schedules processing.
// A failed dispatch leaves the meeting PROCESSING so it can be reprocessed.
func (s *MeetingService) UploadRecording(ctx context.Context, input UploadRecordingInput) (*UploadRecordingOutput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", usecaseErrors.ErrInvalidInput)
	}
	if !IsAllowedExtension(input.Filename) {
		return nil, fmt.Errorf("%w: allowed %s", usecaseErrors.ErrUnsupportedFormat, strings.Join(AllowedExtensions, ", "))
	}
	if input.Size > s.maxUploadBytes && s.maxUploadBytes > 0 {
		return nil, fmt.Errorf("%w: maximum size is %d bytes", usecaseErrors.ErrFileTooLarge, s.maxUploadBytes)
	}
	if input.Size == 0 {
		return nil, usecaseErrors.ErrEmptyFile
	}

	ref, err := s.store.Upload(ctx, input.Body, input.Size, input.Filename, s.folder, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrUploadFailed, err)
	}

	createdBy := input.UserID
	meeting := entities.NewRecordedMeeting(input.TeamID, &createdBy, title, ref)
	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		s.removeBlob(ref)
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	s.logger.Info("📤 Recording uploaded",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("ref", ref.String()),
		zap.Int64("size", input.Size),
	)

	dispatched := s.schedule(ctx, meeting.ID)
	return &UploadRecordingOutput{Meeting: meeting, Dispatched: dispatched}, nil
}

// CreateMeeting creates a SCHEDULED meeting
func (s *MeetingService) CreateMeeting(ctx context.Context, input CreateMeetingInput) (*entities.Meeting, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", usecaseErrors.ErrInvalidInput)
	}
	createdBy := input.UserID
	meeting := entities.NewMeeting(input.TeamID, &createdBy, title, input.ScheduledAt)
	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	return meeting, nil
}

// GetMeeting retrieves a meeting. Meetings of other teams are reported as not found.
func (s *MeetingService) GetMeeting(ctx context.Context, teamID, meetingID uuid.UUID) (*entities.Meeting, error) {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, entities.ErrMeetingNotFound) {
			return nil, usecaseErrors.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	if meeting.TeamID != teamID {
		return nil, usecaseErrors.ErrMeetingNotFound
	}
	return meeting, nil
}

// ListMeetings retrieves meetings with filters
func (s *MeetingService) ListMeetings(ctx context.Context, filters repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	if filters.TeamID == uuid.Nil {
		return nil, 0, fmt.Errorf("%w: team is required", usecaseErrors.ErrInvalidInput)
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", usecaseErrors.ErrInvalidInput, *filters.Status)
	}
	meetings, total, err := s.meetingRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, total, nil
}

// UpdateMeeting changes the title and/or schedule of a meeting
func (s *MeetingService) UpdateMeeting(ctx context.Context, input UpdateMeetingInput) (*entities.Meeting, error) {
	if _, err := s.GetMeeting(ctx, input.TeamID, input.MeetingID); err != nil {
		return nil, err
	}
	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", usecaseErrors.ErrInvalidInput)
		}
		input.Title = &trimmed
	}
	if input.Title != nil || input.ScheduledAt != nil {
		if err := s.meetingRepo.UpdateDetails(ctx, input.MeetingID, input.Title, input.ScheduledAt); err != nil {
			if errors.Is(err, entities.ErrMeetingNotFound) {
				return nil, usecaseErrors.ErrMeetingNotFound
			}
			return nil, fmt.Errorf("failed to update meeting: %w", err)
		}
	}
	return s.GetMeeting(ctx, input.TeamID, input.MeetingID)
}

// DeleteMeeting deletes the meeting record. The recording is removed
// best-effort: a storage failure is logged and the record is still deleted.
func (s *MeetingService) DeleteMeeting(ctx context.Context, teamID, meetingID uuid.UUID) error {
	meeting, err := s.GetMeeting(ctx, teamID, meetingID)
	if err != nil {
		return err
	}

	if err := s.meetingRepo.Delete(ctx, meetingID); err != nil {
		if errors.Is(err, entities.ErrMeetingNotFound) {
			return usecaseErrors.ErrMeetingNotFound
		}
		return fmt.Errorf("failed to delete meeting: %w", err)
	}

	// the row is gone first so a failed delete never leaves it pointing at a missing blob
	if ref, ok := storage.ResolveRef(meeting); ok {
		s.removeBlob(ref)
	}

	s.logger.Info("🗑️ Meeting deleted", zap.String("meeting_id", meetingID.String()))
	return nil
}

// ReprocessMeeting schedules another run for a meeting that has not reached a terminal status
func (s *MeetingService) ReprocessMeeting(ctx context.Context, teamID, meetingID uuid.UUID) (*entities.Meeting, error) {
	meeting, err := s.GetMeeting(ctx, teamID, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != entities.MeetingStatusProcessing && meeting.Status != entities.MeetingStatusTranscribed {
		return nil, fmt.Errorf("%w: status is %s", usecaseErrors.ErrNotReprocessable, meeting.Status)
	}
	if err := s.dispatch(ctx, meetingID); err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrProcessingScheduled, err)
	}
	return meeting, nil
}

// ListActionItems retrieves action items of a meeting
func (s *MeetingService) ListActionItems(ctx context.Context, teamID, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	if _, err := s.GetMeeting(ctx, teamID, meetingID); err != nil {
		return nil, err
	}
	items, err := s.actionItemRepo.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list action items: %w", err)
	}
	return items, nil
}

// ConvertActionItem creates a todo task from a pending action item
func (s *MeetingService) ConvertActionItem(ctx context.Context, input ActionItemInput) (*entities.Task, error) {
	item, err := s.actionItemOf(ctx, input)
	if err != nil {
		return nil, err
	}
	createdBy := input.UserID
	task := entities.NewTaskFromActionItem(item, input.TeamID, &createdBy)
	if err := item.MarkAsConverted(task.ID); err != nil {
		return nil, usecaseErrors.ErrActionItemNotPending
	}
	if err := s.actionItemRepo.Convert(ctx, item.ID, task); err != nil {
		if errors.Is(err, entities.ErrActionItemNotPending) {
			return nil, usecaseErrors.ErrActionItemNotPending
		}
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrActionItemConverting, err)
	}

	s.logger.Info("✅ Action item converted",
		zap.String("action_item_id", item.ID.String()),
		zap.String("task_id", task.ID.String()),
	)
	return task, nil
}

// RejectActionItem marks a pending action item as rejected
func (s *MeetingService) RejectActionItem(ctx context.Context, input ActionItemInput) (*entities.ActionItem, error) {
	item, err := s.actionItemOf(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := item.MarkAsRejected(); err != nil {
		return nil, usecaseErrors.ErrActionItemNotPending
	}
	if err := s.actionItemRepo.Reject(ctx, item.ID); err != nil {
		if errors.Is(err, entities.ErrActionItemNotPending) {
			return nil, usecaseErrors.ErrActionItemNotPending
		}
		return nil, fmt.Errorf("failed to reject action item: %w", err)
	}
	return item, nil
}

// ProviderStatus reports the selected providers and their readiness
func (s *MeetingService) ProviderStatus() ProviderStatus {
	return ProviderStatus{
		Transcription: providerState(s.transcriber.Name(), s.transcriber.Ready()),
		Summarization: providerState(s.summarizer.Name(), s.summarizer.Ready()),
	}
}

func providerState(name string, readyErr error) ProviderState {
	state := ProviderState{Name: name, Ready: readyErr == nil}
	if readyErr != nil {
		state.Error = readyErr.Error()
	}
	return state
}

// actionItemOf loads an action item and checks it belongs to the team's meeting
func (s *MeetingService) actionItemOf(ctx context.Context, input ActionItemInput) (*entities.ActionItem, error) {
	if _, err := s.GetMeeting(ctx, input.TeamID, input.MeetingID); err != nil {
		return nil, err
	}
	item, err := s.actionItemRepo.FindByID(ctx, input.ActionItemID)
	if err != nil {
		if errors.Is(err, entities.ErrActionItemNotFound) {
			return nil, usecaseErrors.ErrActionItemNotFound
		}
		return nil, fmt.Errorf("failed to get action item: %w", err)
	}
	if !item.BelongsToMeeting(input.MeetingID) {
		return nil, usecaseErrors.ErrActionItemMismatch
	}
	return item, nil
}

// dispatch treats a run already in flight as scheduled
func (s *MeetingService) dispatch(ctx context.Context, meetingID uuid.UUID) error {
	err := s.dispatcher.Dispatch(ctx, meetingID)
	if err == nil || errors.Is(err, dispatch.ErrAlreadyQueued) {
		return nil
	}
	return err
}

func (s *MeetingService) schedule(ctx context.Context, meetingID uuid.UUID) bool {
	if err := s.dispatch(ctx, meetingID); err != nil {
		s.logger.Warn("⚠️ Failed to schedule processing, meeting stays PROCESSING",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
		return false
	}
	return true
}

// removeBlob deletes a recording without failing the caller
func (s *MeetingService) removeBlob(ref entities.StorageRef) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteBlobTimeout)
	defer cancel()

	deleted, err := s.store.Delete(ctx, ref)
	if err != nil {
		s.logger.Warn("⚠️ Failed to delete recording",
			zap.String("ref", ref.String()),
			zap.Error(err),
		)
		return
	}
	if !deleted {
		s.logger.Debug("Recording already absent", zap.String("ref", ref.String()))
	}
}
