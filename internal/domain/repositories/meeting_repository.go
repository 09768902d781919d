package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access.
// The Mark*/Complete methods are conditional on the status the caller
// observed and report false when another run already moved the meeting.
type MeetingRepository interface {
	// Create creates a new meeting
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID retrieves a meeting by ID; entities.ErrMeetingNotFound if missing
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// List retrieves meetings with filters and pagination
	List(ctx context.Context, filters MeetingFilters) ([]*entities.Meeting, int64, error)

	// UpdateDetails changes title and/or scheduled_at only
	UpdateDetails(ctx context.Context, id uuid.UUID, title *string, scheduledAt *time.Time) error

	// Delete removes a meeting and its action items
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkProcessing moves a scheduled meeting with a recording to processing
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkTranscribed persists the transcript and moves processing -> transcribed
	MarkTranscribed(ctx context.Context, id uuid.UUID, update TranscriptUpdate) (bool, error)

	// Complete persists summary and action items atomically and moves transcribed -> completed
	Complete(ctx context.Context, id uuid.UUID, summary string, items []*entities.ActionItem) (bool, error)

	// MarkFailed moves the meeting to failed only if it is still in observed,
	// the status the failing run was working from
	MarkFailed(ctx context.Context, id uuid.UUID, observed entities.MeetingStatus, reason string) (bool, error)
}

// TranscriptUpdate is the output of the transcription stage
type TranscriptUpdate struct {
	Transcript      string
	Segments        []entities.TranscriptSegment
	DurationMinutes int
}

// MeetingFilters represents filter options for listing meetings
type MeetingFilters struct {
	TeamID   uuid.UUID
	Status   *entities.MeetingStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}
