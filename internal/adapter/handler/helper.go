package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-pipeline/errors"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/http/middleware"
	usecaseErrors "github.com/johnquangdev/meeting-pipeline/internal/usecase/errors"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID reads X-Request-ID from the request, or the one the
// RequestID middleware generated on the response
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return handleStatus(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return handleStatus(logger, c, http.StatusCreated, data)
}

func handleStatus(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			log := logger.Warn
			if appErr.HTTPCode >= http.StatusInternalServerError {
				log = logger.Error
			}
			log("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Any("app_code", appErr.Code),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
			Details: appErr.Details,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
		Info:    err.Error(),
	}

	return c.JSON(http.StatusInternalServerError, body)
}

// toAppError maps usecase errors onto API errors
func toAppError(err error, c echo.Context) error {
	switch {
	case stdErrors.Is(err, usecaseErrors.ErrMeetingNotFound):
		return errors.ErrMeetingNotFound(c.Param("id"))
	case stdErrors.Is(err, usecaseErrors.ErrNotReprocessable):
		return errors.ErrMeetingInvalidState(c.Param("id"), err.Error())
	case stdErrors.Is(err, usecaseErrors.ErrProcessingScheduled):
		return errors.ErrDispatchFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrUnsupportedFormat):
		return errors.ErrUnsupportedRecording(err.Error())
	case stdErrors.Is(err, usecaseErrors.ErrEmptyFile):
		return errors.ErrEmptyRecording()
	case stdErrors.Is(err, usecaseErrors.ErrFileTooLarge):
		return errors.AppError{
			Raw:      err,
			HTTPCode: http.StatusRequestEntityTooLarge,
			Code:     errors.ErrorCode_RECORDING_TOO_LARGE,
			Message:  "Recording file is too large",
		}
	case stdErrors.Is(err, usecaseErrors.ErrUploadFailed):
		return errors.ErrRecordingUploadFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrActionItemNotFound):
		return errors.ErrActionItemNotFound(c.Param("item_id"))
	case stdErrors.Is(err, usecaseErrors.ErrActionItemMismatch):
		return errors.ErrInvalidArgument("Action item does not belong to this meeting").
			WithDetail("action_item_id", c.Param("item_id"))
	case stdErrors.Is(err, usecaseErrors.ErrActionItemNotPending):
		return errors.ErrActionItemInvalidState(c.Param("item_id"), "not pending")
	case stdErrors.Is(err, usecaseErrors.ErrActionItemConverting):
		return errors.ErrDBTransactionFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		appErr := errors.ErrInvalidArgument("Invalid input")
		appErr.Raw = err
		return appErr
	}
	return errors.ErrInternal(err)
}

// identity reads the caller set by the auth middleware
func identity(c echo.Context) (userID, teamID uuid.UUID, err error) {
	userID, okUser := c.Get(middleware.UserIDKey).(uuid.UUID)
	teamID, okTeam := c.Get(middleware.TeamIDKey).(uuid.UUID)
	if !okUser || !okTeam {
		return uuid.Nil, uuid.Nil, errors.ErrUnauthenticated()
	}
	return userID, teamID, nil
}

// pathUUID parses a UUID route parameter
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument(name + " must be a valid UUID")
	}
	return id, nil
}
