package meeting

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/repositories"
)

// Service defines the interface for meeting use case
type Service interface {
	// UploadRecording stores a recording, creates a PROCESSING meeting and schedules the pipeline
	UploadRecording(ctx context.Context, input UploadRecordingInput) (*UploadRecordingOutput, error)

	// CreateMeeting creates a calendar meeting without a recording
	CreateMeeting(ctx context.Context, input CreateMeetingInput) (*entities.Meeting, error)

	// GetMeeting retrieves a meeting of the caller's team
	GetMeeting(ctx context.Context, teamID, meetingID uuid.UUID) (*entities.Meeting, error)

	// ListMeetings retrieves the team's meetings with filters
	ListMeetings(ctx context.Context, filters repositories.MeetingFilters) ([]*entities.Meeting, int64, error)

	// UpdateMeeting changes title and schedule
	UpdateMeeting(ctx context.Context, input UpdateMeetingInput) (*entities.Meeting, error)

	// DeleteMeeting removes the meeting, its action items and its recording
	DeleteMeeting(ctx context.Context, teamID, meetingID uuid.UUID) error

	// ReprocessMeeting dispatches a meeting stuck in PROCESSING or TRANSCRIBED again
	ReprocessMeeting(ctx context.Context, teamID, meetingID uuid.UUID) (*entities.Meeting, error)

	// ListActionItems retrieves the action items extracted from a meeting
	ListActionItems(ctx context.Context, teamID, meetingID uuid.UUID) ([]*entities.ActionItem, error)

	// ConvertActionItem turns a pending action item into a task
	ConvertActionItem(ctx context.Context, input ActionItemInput) (*entities.Task, error)

	// RejectActionItem discards a pending action item
	RejectActionItem(ctx context.Context, input ActionItemInput) (*entities.ActionItem, error)

	// ProviderStatus reports which AI providers are selected and whether they are usable
	ProviderStatus() ProviderStatus
}

// Ensure MeetingService implements Service interface
var _ Service = (*MeetingService)(nil)
