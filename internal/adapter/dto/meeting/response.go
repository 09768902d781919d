package meeting

import (
	"time"

	"github.com/johnquangdev/meeting-pipeline/internal/adapter/dto/common"
)

// SegmentResponse is one timed transcript span
type SegmentResponse struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// RecordingResponse locates the stored recording
type RecordingResponse struct {
	Backend string `json:"backend,omitempty"`
	Key     string `json:"key,omitempty"`
	URL     string `json:"url,omitempty"`
}

// ActionItemResponse represents an action item in API responses
type ActionItemResponse struct {
	ID                string    `json:"id"`
	MeetingID         *string   `json:"meeting_id,omitempty"`
	TaskID            *string   `json:"task_id,omitempty"`
	Description       string    `json:"description"`
	AssigneeMentioned *string   `json:"assignee_mentioned,omitempty"`
	DeadlineMentioned *string   `json:"deadline_mentioned,omitempty"`
	ConfidenceScore   float64   `json:"confidence_score"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// MeetingResponse represents a meeting in API responses
type MeetingResponse struct {
	ID                 string                `json:"id"`
	TeamID             string                `json:"team_id"`
	CreatedByID        *string               `json:"created_by_id,omitempty"`
	Title              string                `json:"title"`
	Status             string                `json:"status"`
	ScheduledAt        *time.Time            `json:"scheduled_at,omitempty"`
	DurationMinutes    *int                  `json:"duration_minutes,omitempty"`
	Recording          *RecordingResponse    `json:"recording,omitempty"`
	Transcript         *string               `json:"transcript,omitempty"`
	TranscriptSegments []SegmentResponse     `json:"transcript_segments,omitempty"`
	Summary            *string               `json:"summary,omitempty"`
	FailureReason      *string               `json:"failure_reason,omitempty"`
	ProcessedAt        *time.Time            `json:"processed_at,omitempty"`
	ActionItems        []*ActionItemResponse `json:"action_items"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// UploadMeetingResponse is returned after a recording upload
type UploadMeetingResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Dispatched bool   `json:"dispatched"`
	Message    string `json:"message"`
}

// MeetingListResponse represents a paginated list of meetings
type MeetingListResponse struct {
	Meetings   []*MeetingResponse         `json:"meetings"`
	Pagination *common.PaginationResponse `json:"pagination"`
}

// TaskResponse represents a task created from an action item
type TaskResponse struct {
	ID              string     `json:"id"`
	TeamID          string     `json:"team_id"`
	SourceMeetingID *string    `json:"source_meeting_id,omitempty"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
