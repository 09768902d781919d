package presenter

import (
	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-pipeline/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-pipeline/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
)

// ToMeetingResponse converts a Meeting entity to MeetingResponse DTO
func ToMeetingResponse(m *entities.Meeting) *meeting.MeetingResponse {
	if m == nil {
		return nil
	}

	response := &meeting.MeetingResponse{
		ID:              m.ID.String(),
		TeamID:          m.TeamID.String(),
		CreatedByID:     uuidString(m.CreatedByID),
		Title:           m.Title,
		Status:          string(m.Status),
		ScheduledAt:     m.ScheduledAt,
		DurationMinutes: m.DurationMinutes,
		Transcript:      m.Transcript,
		Summary:         m.Summary,
		FailureReason:   m.FailureReason,
		ProcessedAt:     m.ProcessedAt,
		ActionItems:     make([]*meeting.ActionItemResponse, 0, len(m.ActionItems)),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}

	// Structured location wins over the legacy string
	if !m.Recording.IsZero() {
		response.Recording = &meeting.RecordingResponse{
			Backend: string(m.Recording.Backend),
			Key:     m.Recording.Key,
		}
	} else if m.RecordingURL != nil && *m.RecordingURL != "" {
		response.Recording = &meeting.RecordingResponse{URL: *m.RecordingURL}
	}

	for _, s := range m.Segments() {
		response.TranscriptSegments = append(response.TranscriptSegments, meeting.SegmentResponse{
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}

	for i := range m.ActionItems {
		response.ActionItems = append(response.ActionItems, ToActionItemResponse(&m.ActionItems[i]))
	}

	return response
}

// ToMeetingListResponse converts a page of meetings
func ToMeetingListResponse(meetings []*entities.Meeting, total int64, limit, offset int) *meeting.MeetingListResponse {
	responses := make([]*meeting.MeetingResponse, len(meetings))
	for i, m := range meetings {
		responses[i] = ToMeetingResponse(m)
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &meeting.MeetingListResponse{
		Meetings: responses,
		Pagination: &common.PaginationResponse{
			Page:       offset/limit + 1,
			PageSize:   limit,
			TotalPages: totalPages,
			TotalItems: total,
		},
	}
}

// ToUploadMeetingResponse describes a freshly uploaded meeting
func ToUploadMeetingResponse(m *entities.Meeting, dispatched bool) *meeting.UploadMeetingResponse {
	message := "Meeting uploaded successfully, processing has started"
	if !dispatched {
		message = "Meeting uploaded, processing could not be scheduled yet; retry with the process endpoint"
	}
	return &meeting.UploadMeetingResponse{
		ID:         m.ID.String(),
		Title:      m.Title,
		Status:     string(m.Status),
		Dispatched: dispatched,
		Message:    message,
	}
}

// ToActionItemResponse converts an ActionItem entity to ActionItemResponse DTO
func ToActionItemResponse(a *entities.ActionItem) *meeting.ActionItemResponse {
	if a == nil {
		return nil
	}
	return &meeting.ActionItemResponse{
		ID:                a.ID.String(),
		MeetingID:         uuidString(a.MeetingID),
		TaskID:            uuidString(a.TaskID),
		Description:       a.Description,
		AssigneeMentioned: a.AssigneeMentioned,
		DeadlineMentioned: a.DeadlineMentioned,
		ConfidenceScore:   a.ConfidenceScore,
		Status:            string(a.Status),
		CreatedAt:         a.CreatedAt,
	}
}

// ToActionItemListResponse converts a slice of action items
func ToActionItemListResponse(items []*entities.ActionItem) []*meeting.ActionItemResponse {
	responses := make([]*meeting.ActionItemResponse, len(items))
	for i, a := range items {
		responses[i] = ToActionItemResponse(a)
	}
	return responses
}

// ToTaskResponse converts a Task entity to TaskResponse DTO
func ToTaskResponse(t *entities.Task) *meeting.TaskResponse {
	if t == nil {
		return nil
	}
	return &meeting.TaskResponse{
		ID:              t.ID.String(),
		TeamID:          t.TeamID.String(),
		SourceMeetingID: uuidString(t.SourceMeetingID),
		Title:           t.Title,
		Description:     t.Description,
		Status:          string(t.Status),
		Priority:        string(t.Priority),
		DueDate:         t.DueDate,
		CreatedAt:       t.CreatedAt,
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
