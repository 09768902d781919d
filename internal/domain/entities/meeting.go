package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingStatus represents the processing state of a meeting
type MeetingStatus string

const (
	MeetingStatusScheduled   MeetingStatus = "scheduled"   // Calendar entry, no recording attached
	MeetingStatusProcessing  MeetingStatus = "processing"  // Recording attached, waiting for transcription
	MeetingStatusTranscribed MeetingStatus = "transcribed" // Transcript persisted, waiting for summary
	MeetingStatusCompleted   MeetingStatus = "completed"
	MeetingStatusFailed      MeetingStatus = "failed"
)

var meetingStatuses = []MeetingStatus{
	MeetingStatusScheduled,
	MeetingStatusProcessing,
	MeetingStatusTranscribed,
	MeetingStatusCompleted,
	MeetingStatusFailed,
}

var meetingTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusScheduled:   {MeetingStatusProcessing},
	MeetingStatusProcessing:  {MeetingStatusTranscribed, MeetingStatusFailed},
	MeetingStatusTranscribed: {MeetingStatusCompleted, MeetingStatusFailed},
}

// IsValid reports whether s is a known status
func (s MeetingStatus) IsValid() bool {
	for _, known := range meetingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further pipeline activity may act on the meeting
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusFailed
}

// CanTransition reports whether the state machine allows s -> to
func (s MeetingStatus) CanTransition(to MeetingStatus) bool {
	for _, next := range meetingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when s -> to is not allowed
func (s MeetingStatus) ValidateTransition(to MeetingStatus) error {
	if !s.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return nil
}

// TransitionSources lists the statuses the state machine allows to move to to
func TransitionSources(to MeetingStatus) []MeetingStatus {
	var from []MeetingStatus
	for _, s := range meetingStatuses {
		if s.CanTransition(to) {
			from = append(from, s)
		}
	}
	return from
}

// TranscriptSegment is one timed span of speech returned by a transcription provider
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Meeting is a recorded (or scheduled) team meeting and its processing output
type Meeting struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	TeamID          uuid.UUID     `json:"team_id" gorm:"type:uuid;not null;index"`
	CreatedByID     *uuid.UUID    `json:"created_by_id,omitempty" gorm:"type:uuid;index"`
	Title           string        `json:"title" gorm:"type:varchar(500);not null"`
	ScheduledAt     *time.Time    `json:"scheduled_at,omitempty" gorm:"index"`
	DurationMinutes *int          `json:"duration_minutes,omitempty"`
	Status          MeetingStatus `json:"status" gorm:"type:varchar(20);not null;index"`

	// Recording is the structured location of the audio blob.
	Recording StorageRef `json:"recording" gorm:"embedded;embeddedPrefix:recording_"`
	// RecordingURL holds location strings imported from older rows.
	RecordingURL *string `json:"recording_url,omitempty" gorm:"type:text"`

	Transcript         *string                                 `json:"transcript,omitempty" gorm:"type:text"`
	TranscriptSegments datatypes.JSONType[[]TranscriptSegment] `json:"transcript_segments,omitempty"`
	Summary            *string                                 `json:"summary,omitempty" gorm:"type:text"`
	FailureReason      *string                                 `json:"failure_reason,omitempty" gorm:"type:text"`
	ProcessedAt        *time.Time                              `json:"processed_at,omitempty"`

	ActionItems []ActionItem `json:"action_items,omitempty" gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a calendar-only meeting without a recording
func NewMeeting(teamID uuid.UUID, createdBy *uuid.UUID, title string, scheduledAt *time.Time) *Meeting {
	now := time.Now()
	return &Meeting{
		ID:          uuid.New(),
		TeamID:      teamID,
		CreatedByID: createdBy,
		Title:       title,
		ScheduledAt: scheduledAt,
		Status:      MeetingStatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewRecordedMeeting creates a meeting with an uploaded recording, ready for the pipeline
func NewRecordedMeeting(teamID uuid.UUID, createdBy *uuid.UUID, title string, ref StorageRef) *Meeting {
	m := NewMeeting(teamID, createdBy, title, nil)
	m.Recording = ref
	m.Status = MeetingStatusProcessing
	return m
}

// HasRecording reports whether a recording location is attached, structured or legacy
func (m *Meeting) HasRecording() bool {
	if !m.Recording.IsZero() {
		return true
	}
	return m.RecordingURL != nil && *m.RecordingURL != ""
}

// Segments returns the persisted transcript segments
func (m *Meeting) Segments() []TranscriptSegment {
	return m.TranscriptSegments.Data()
}
