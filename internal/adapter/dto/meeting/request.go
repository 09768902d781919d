package meeting

import (
	"time"
)

// CreateMeetingRequest represents the request to create a calendar meeting
type CreateMeetingRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=500"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// UpdateMeetingRequest represents the request to update a meeting
type UpdateMeetingRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// ListMeetingsRequest represents query parameters for listing meetings.
// Dates accept RFC 3339 timestamps or YYYY-MM-DD.
type ListMeetingsRequest struct {
	Status   *string `query:"status" validate:"omitempty,oneof=scheduled processing transcribed completed failed"`
	DateFrom string  `query:"date_from"`
	DateTo   string  `query:"date_to"`
	Limit    int     `query:"limit" validate:"min=1,max=100"`
	Offset   int     `query:"offset" validate:"min=0"`
}
