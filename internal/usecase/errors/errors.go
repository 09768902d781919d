package errors

import "errors"

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Meeting errors
var (
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrNotReprocessable    = errors.New("meeting is not waiting for processing")
	ErrProcessingScheduled = errors.New("meeting could not be scheduled for processing")
)

// Upload errors
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file is empty")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUploadFailed      = errors.New("upload failed")
)

// Action item errors
var (
	ErrActionItemNotFound   = errors.New("action item not found")
	ErrActionItemMismatch   = errors.New("action item does not belong to this meeting")
	ErrActionItemNotPending = errors.New("action item already processed")
	ErrActionItemConverting = errors.New("failed to convert action item")
)
