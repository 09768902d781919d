package handler

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-pipeline/errors"
	"github.com/johnquangdev/meeting-pipeline/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-pipeline/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/meeting-pipeline/internal/usecase/errors"
	meetingUsecase "github.com/johnquangdev/meeting-pipeline/internal/usecase/meeting"
)

const (
	defaultListLimit = 20
	dateOnly         = "2006-01-02"
)

// Meeting handles meeting-related HTTP requests
type Meeting struct {
	meetingService meetingUsecase.Service
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(meetingService meetingUsecase.Service, maxUploadBytes int64, logger *zap.Logger) *Meeting {
	return &Meeting{
		meetingService: meetingService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// UploadMeeting handles POST /meetings/upload
// @Summary      Upload a meeting recording
// @Description  Stores the recording, creates a PROCESSING meeting and schedules transcription and summarization
// @Tags         Meetings
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file   formData  file    true  "Recording (mp3, wav, m4a, webm, mp4, mpeg, mpga)"
// @Param        title  formData  string  true  "Meeting title"
// @Success      201    {object}  meeting.UploadMeetingResponse
// @Failure      400    {object}  map[string]interface{}  "Missing, empty or unsupported file"
// @Failure      413    {object}  map[string]interface{}  "File too large"
// @Router       /meetings/upload [post]
func (h *Meeting) UploadMeeting(c echo.Context) error {
	userID, teamID, err := identity(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrMissingRecording())
	}

	ext := strings.ToLower(path.Ext(fileHeader.Filename))
	if !meetingUsecase.IsAllowedExtension(fileHeader.Filename) {
		return HandleError(h.logger, c, errors.ErrUnsupportedRecording(ext).
			WithDetail("allowed", strings.Join(meetingUsecase.AllowedExtensions, ", ")))
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		return HandleError(h.logger, c, errors.ErrRecordingTooLarge(h.maxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	defer file.Close()

	output, err := h.meetingService.UploadRecording(c.Request().Context(), meetingUsecase.UploadRecordingInput{
		TeamID:      teamID,
		UserID:      userID,
		Title:       c.FormValue("title"),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		if stdErrors.Is(err, usecaseErrors.ErrFileTooLarge) {
			return HandleError(h.logger, c, errors.ErrRecordingTooLarge(h.maxUploadBytes))
		}
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return HandleCreated(h.logger, c, presenter.ToUploadMeetingResponse(output.Meeting, output.Dispatched))
}

// CreateMeeting handles POST /meetings
// @Summary      Create a calendar meeting
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      meeting.CreateMeetingRequest  true  "Meeting"
// @Success      201      {object}  meeting.MeetingResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid request or validation failed"
// @Router       /meetings [post]
func (h *Meeting) CreateMeeting(c echo.Context) error {
	userID, teamID, err := identity(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meeting.CreateMeetingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, validationError(err))
	}

	m, err := h.meetingService.CreateMeeting(c.Request().Context(), meetingUsecase.CreateMeetingInput{
		TeamID:      teamID,
		UserID:      userID,
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return HandleCreated(h.logger, c, presenter.ToMeetingResponse(m))
}

// ListMeetings handles GET /meetings
// @Summary      List meetings of the caller's team
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "scheduled, processing, transcribed, completed or failed"
// @Param        date_from  query     string  false  "RFC 3339 or YYYY-MM-DD"
// @Param        date_to    query     string  false  "RFC 3339 or YYYY-MM-DD"
// @Param        limit      query     int     false  "1..100, default 20"
// @Param        offset     query     int     false  "default 0"
// @Success      200        {object}  meeting.MeetingListResponse
// @Router       /meetings [get]
func (h *Meeting) ListMeetings(c echo.Context) error {
	_, teamID, err := identity(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	req := meeting.ListMeetingsRequest{Limit: defaultListLimit}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, validationError(err))
	}

	filters := repositories.MeetingFilters{
		TeamID: teamID,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.Status != nil {
		status := entities.MeetingStatus(*req.Status)
		filters.Status = &status
	}
	if filters.DateFrom, err = parseDate(req.DateFrom, false); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("date_from must be RFC 3339 or YYYY-MM-DD"))
	}
	if filters.DateTo, err = parseDate(req.DateTo, true); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("date_to must be RFC 3339 or YYYY-MM-DD"))
	}

	meetings, total, err := h.meetingService.ListMeetings(c.Request().Context(), filters)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return HandleSuccess(h.logger, c, presenter.ToMeetingListResponse(meetings, total, req.Limit, req.Offset))
}

// GetMeeting handles GET /meetings/:id
// @Summary      Get meeting details with transcript, summary and action items
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  meeting.MeetingResponse
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id} [get]
func (h *Meeting) GetMeeting(c echo.Context) error {
	_, teamID, err := identity(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.meetingService.GetMeeting(c.Request().Context(), teamID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// UpdateMeeting handles PATCH /meetings/:id
// @Summary      Update meeting title or schedule
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Meeting ID (UUID)"
// @Param        request  body      meeting.UpdateMeetingRequest  true  "Fields to change"
// @Success      200      {object}  meeting.MeetingResponse
// @Router       /meetings/{id} [patch]
func (h *Meeting) UpdateMeeting(c echo.Context) error {
	_, teamID, err := identity(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meeting.UpdateMeetingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, validationError(err))
	}

	m, err := h.meetingService.UpdateMeeting(c.Request().Context(), meetingUsecase.UpdateMeetingInput{
		TeamID:      teamID,
		MeetingID:   meetingID,
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// DeleteMeeting handles DELETE /meetings/:id
// @Summary      Delete a meeting and its recording
// @Tags         Meetings
// @Security     BearerAuth
// @Param        id   path  string  true  "Meeting ID (UUID)"
// @Success      204
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id} [delete]
func (h *Meeting) DeleteMeeting(c echo.Context) error {
	_, teamID, err := identity(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.meetingService.DeleteMeeting(c.Request().Context(), teamID, meetingID); err != nil {
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return c.NoContent(http.StatusNoContent)
}

// ProcessMeeting handles POST /meetings/:id/process
// @Summary      Schedule another processing run
// @Description  Only meetings in PROCESSING or TRANSCRIBED can be processed again
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  meeting.MeetingResponse
// @Failure      409  {object}  map[string]interface{}  "Meeting is not waiting for processing"
// @Failure      503  {object}  map[string]interface{}  "Processing could not be scheduled"
// @Router       /meetings/{id}/process [post]
func (h *Meeting) ProcessMeeting(c echo.Context) error {
	_, teamID, err := identity(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.meetingService.ReprocessMeeting(c.Request().Context(), teamID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// ListActionItems handles GET /meetings/:id/action-items
// @Summary      List action items extracted from a meeting
// @Tags         Action Items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {array}   meeting.ActionItemResponse
// @Router       /meetings/{id}/action-items [get]
func (h *Meeting) ListActionItems(c echo.Context) error {
	_, teamID, err := identity(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	items, err := h.meetingService.ListActionItems(c.Request().Context(), teamID, meetingID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return HandleSuccess(h.logger, c, presenter.ToActionItemListResponse(items))
}

// ConvertActionItem handles POST /meetings/:id/action-items/:item_id/convert
// @Summary      Convert a pending action item into a task
// @Tags         Action Items
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Meeting ID (UUID)"
// @Param        item_id  path      string  true  "Action item ID (UUID)"
// @Success      201      {object}  meeting.TaskResponse
// @Failure      400      {object}  map[string]interface{}  "Action item belongs to another meeting"
// @Failure      409      {object}  map[string]interface{}  "Action item already processed"
// @Router       /meetings/{id}/action-items/{item_id}/convert [post]
func (h *Meeting) ConvertActionItem(c echo.Context) error {
	input, err := actionItemInput(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	task, err := h.meetingService.ConvertActionItem(c.Request().Context(), input)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return HandleCreated(h.logger, c, presenter.ToTaskResponse(task))
}

// RejectActionItem handles POST /meetings/:id/action-items/:item_id/reject
// @Summary      Reject a pending action item
// @Tags         Action Items
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Meeting ID (UUID)"
// @Param        item_id  path      string  true  "Action item ID (UUID)"
// @Success      200      {object}  meeting.ActionItemResponse
// @Router       /meetings/{id}/action-items/{item_id}/reject [post]
func (h *Meeting) RejectActionItem(c echo.Context) error {
	input, err := actionItemInput(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	item, err := h.meetingService.RejectActionItem(c.Request().Context(), input)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, c))
	}

	return HandleSuccess(h.logger, c, presenter.ToActionItemResponse(item))
}

// ProviderStatus handles GET /meetings/provider-status
// @Summary      Report the selected transcription and summarization providers
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meeting.ProviderStatus
// @Router       /meetings/provider-status [get]
func (h *Meeting) ProviderStatus(c echo.Context) error {
	return HandleSuccess(h.logger, c, h.meetingService.ProviderStatus())
}

func actionItemInput(c echo.Context) (meetingUsecase.ActionItemInput, error) {
	userID, teamID, err := identity(c)
	if err != nil {
		return meetingUsecase.ActionItemInput{}, err
	}
	meetingID, err := pathUUID(c, "id")
	if err != nil {
		return meetingUsecase.ActionItemInput{}, err
	}
	itemID, err := pathUUID(c, "item_id")
	if err != nil {
		return meetingUsecase.ActionItemInput{}, err
	}
	return meetingUsecase.ActionItemInput{
		TeamID:       teamID,
		UserID:       userID,
		MeetingID:    meetingID,
		ActionItemID: itemID,
	}, nil
}

func validationError(err error) errors.AppError {
	appErr := errors.ErrInvalidArgument("Validation failed")
	appErr.Raw = err
	return appErr
}

// parseDate accepts RFC 3339 or a bare date. A bare date_to covers the whole day.
func parseDate(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", value, err)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
